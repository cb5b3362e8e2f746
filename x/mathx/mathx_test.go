package mathx

import "testing"

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 3, 0) != 2 {
		t.Fatal("Clamp mismatch")
	}
}

func TestInside(t *testing.T) {
	if Inside(20.0, 20, 400) || Inside(400.0, 20, 400) || !Inside(21.0, 20, 400) {
		t.Fatal("Inside must be an open interval")
	}
}

func TestMapClamped(t *testing.T) {
	cases := []struct{ v, want float32 }{
		{3.6, 0},
		{4.5, 100},
		{3.0, 0},
		{5.0, 100},
		{4.05, 50},
	}
	for _, c := range cases {
		got := MapClamped[float32](c.v, 3.6, 4.5, 0, 100)
		if d := got - c.want; d > 0.01 || d < -0.01 {
			t.Fatalf("MapClamped(%v) = %v, want %v", c.v, got, c.want)
		}
	}
	if MapClamped[float64](1, 2, 2, 7, 9) != 7 {
		t.Fatal("degenerate range should yield outLo")
	}
}

func TestMean(t *testing.T) {
	if Mean([]int{}) != 0 {
		t.Fatal("empty mean should be 0")
	}
	if Mean([]uint16{100, 200, 300}) != 200 {
		t.Fatal("Mean mismatch")
	}
}
