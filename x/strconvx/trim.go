package strconvx

// TrimFloat formats f with at most prec decimals and drops trailing zeros
// (and a trailing dot), e.g. 1.500 => "1.5", 2.000 => "2".
func TrimFloat(f float64, prec int) string {
	s := FormatFloat(f, 'f', prec, 64)
	dot := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return s
	}
	end := len(s)
	for end > dot+1 && s[end-1] == '0' {
		end--
	}
	if end == dot+1 {
		end = dot
	}
	if s[:end] == "-0" {
		return "0"
	}
	return s[:end]
}
