package strconvx

import "testing"

func TestTrimFloat(t *testing.T) {
	cases := []struct {
		f    float64
		prec int
		want string
	}{
		{1.5, 3, "1.5"},
		{2, 3, "2"},
		{0, 3, "0"},
		{-0.01, 3, "-0.01"},
		{-0.0001, 3, "0"},
		{87.77778, 3, "87.778"},
		{0.1 + 0.2, 3, "0.3"},
		{250, 0, "250"},
	}
	for _, c := range cases {
		if got := TrimFloat(c.f, c.prec); got != c.want {
			t.Fatalf("TrimFloat(%v, %d) = %q, want %q", c.f, c.prec, got, c.want)
		}
	}
}

func TestFormatIntUint(t *testing.T) {
	if FormatUint(255, 16) != "ff" || FormatInt(-15, 10) != "-15" || Itoa(0) != "0" {
		t.Fatal("integer formatting mismatch")
	}
}
