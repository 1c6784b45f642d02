package calibration

// interpolate1D linearly interpolates between (x1, va) and (x2, vb) at x.
// A degenerate bracket (x1 == x2) returns va directly; the bracket contract
// guarantees both endpoints carry the same value in that case.
func interpolate1D(x, x1, x2, va, vb float64) float64 {
	if x1 == x2 {
		return va
	}
	return va*(x2-x)/(x2-x1) + vb*(x-x1)/(x2-x1)
}

// interpolate2D bilinearly interpolates between four corner values: first
// along the x axis at both y endpoints, then along the y axis.
func interpolate2D(x, y, x1, x2, y1, y2, z11, z21, z12, z22 float64) float64 {
	zy1 := interpolate1D(x, x1, x2, z11, z21)
	zy2 := interpolate1D(x, x1, x2, z12, z22)
	return interpolate1D(y, y1, y2, zy1, zy2)
}
