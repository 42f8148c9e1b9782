package mathutil

// LinearFit holds an ordinary least squares fit y = Intercept + Slope*x.
type LinearFit struct {
	Slope     float64
	Intercept float64
	// RSquared is the coefficient of determination, 1 for a perfect fit.
	RSquared float64
}

// At evaluates the fitted line at x.
func (f LinearFit) At(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// FitLine computes the least squares line through the points (xs[i], ys[i]).
// It returns false when fewer than two points are given, the slices differ
// in length, or every x is identical.
func FitLine(xs, ys []float64) (LinearFit, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return LinearFit{}, false
	}

	meanX, meanY := Mean(xs), Mean(ys)
	var sxx, sxy, syy float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return LinearFit{}, false
	}

	slope := sxy / sxx
	fit := LinearFit{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		RSquared:  1,
	}

	// A flat series is explained perfectly by a flat line.
	if syy != 0 {
		fit.RSquared = Clamp((sxy*sxy)/(sxx*syy), 0, 1)
	}
	return fit, true
}

// Mean returns the arithmetic mean of vals, or 0 for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
