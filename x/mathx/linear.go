package mathx

import "golang.org/x/exp/constraints"

// MapClamped maps x linearly from [inLo,inHi] onto [outLo,outHi] and clamps
// the result to the output range. A degenerate input range yields outLo.
func MapClamped[T constraints.Float](x, inLo, inHi, outLo, outHi T) T {
	if inHi == inLo {
		return outLo
	}
	y := outLo + (x-inLo)*(outHi-outLo)/(inHi-inLo)
	return Clamp(y, outLo, outHi)
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean[T constraints.Integer | constraints.Float](xs []T) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}
