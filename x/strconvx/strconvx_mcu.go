//go:build rp2040 || rp2350

package strconvx

// Minimal helpers with strconv signatures for MCU builds.
// FormatFloat supports the 'f' verb only; any other verb is treated as 'f'.

func Itoa(i int) string { return FormatInt(int64(i), 10) }

func FormatInt(i int64, base int) string {
	if i < 0 {
		return "-" + FormatUint(uint64(-i), base)
	}
	return FormatUint(uint64(i), base)
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	if u == 0 {
		return "0"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for u > 0 {
		i--
		buf[i] = digits[u%b]
		u /= b
	}
	return string(buf[i:])
}

func FormatFloat(f float64, _ byte, prec, _ int) string {
	if f != f {
		return "NaN"
	}
	if f > 1e18 || f < -1e18 {
		if f < 0 {
			return "-Inf"
		}
		return "+Inf"
	}
	if prec < 0 || prec > 9 {
		prec = 6
	}
	neg := f < 0
	if neg {
		f = -f
	}
	scale := uint64(1)
	for i := 0; i < prec; i++ {
		scale *= 10
	}
	// Round half up at the requested precision.
	v := uint64(f*float64(scale) + 0.5)
	ip, fp := v/scale, v%scale

	var buf [48]byte
	n := 0
	if neg && v != 0 {
		buf[n] = '-'
		n++
	}
	n += copy(buf[n:], FormatUint(ip, 10))
	if prec > 0 {
		buf[n] = '.'
		n++
		frac := FormatUint(fp, 10)
		for pad := prec - len(frac); pad > 0; pad-- {
			buf[n] = '0'
			n++
		}
		n += copy(buf[n:], frac)
	}
	return string(buf[:n])
}
