// Package forecast projects a monthly series forward with a least squares
// trend line.
package forecast

import (
	"sort"

	"github.com/iwvelando/contract-analytics/pkg/constants"
	"github.com/iwvelando/contract-analytics/pkg/datetime"
	"github.com/iwvelando/contract-analytics/pkg/mathutil"
	"github.com/rotisserie/eris"
)

// InsufficientDataMessage is reported when the history is too short.
const InsufficientDataMessage = "Insufficient data for forecasting"

// ErrInsufficientData is returned by Result.Err for a short history.
var ErrInsufficientData = eris.New(InsufficientDataMessage)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Point is one month of a series.
type Point struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// Options configures a projection.
type Options struct {
	Horizon   int `json:"horizon"`
	MinPoints int `json:"minPoints"`
	// TrendThreshold is the slope as a percentage of the historical mean
	// beyond which the series is no longer stable.
	TrendThreshold float64 `json:"trendThreshold"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Horizon:        constants.DefaultForecastHorizon,
		MinPoints:      constants.MinForecastPoints,
		TrendThreshold: constants.DefaultTrendThreshold,
	}
}

// Validate checks that opts describe a usable projection.
func Validate(opts Options) error {
	if opts.Horizon <= 0 {
		return eris.Errorf("forecast: horizon must be positive, got %d", opts.Horizon)
	}
	if opts.MinPoints < 2 {
		return eris.Errorf("forecast: at least 2 points are needed to fit a line, got %d", opts.MinPoints)
	}
	if opts.TrendThreshold < 0 {
		return eris.Errorf("forecast: trend threshold must be non-negative, got %v", opts.TrendThreshold)
	}
	return nil
}

// Projection is the outcome of a successful forecast.
type Projection struct {
	Trend     string  `json:"trend"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	// Confidence is the R² of the fitted line.
	Confidence float64 `json:"confidence"`
	Historical []Point `json:"historical"`
	Forecast   []Point `json:"forecast"`
}

// Result holds either an Error or a Projection, never both.
type Result struct {
	Error       string `json:"error,omitempty"`
	*Projection `json:",omitempty"`
}

// Insufficient reports whether the history was too short to project.
func (r Result) Insufficient() bool {
	return r.Error == InsufficientDataMessage
}

// Err returns the result's error, if any.
func (r Result) Err() error {
	switch {
	case r.Error == "":
		return nil
	case r.Insufficient():
		return ErrInsufficientData
	}
	return eris.New(r.Error)
}

type indexed struct {
	x     float64
	month string
	value float64
}

// Project fits a line over the history and extends it opts.Horizon months
// past the last historical month. x is the number of months since the
// earliest point, so gaps in the series keep their real distance.
// Historical is the history ordered by month, so Forecast[0] always follows
// the last historical month. A sorted history is echoed unchanged.
func Project(history []Point, opts Options) Result {
	if err := Validate(opts); err != nil {
		return Result{Error: err.Error()}
	}
	if len(history) < opts.MinPoints {
		return Result{Error: InsufficientDataMessage}
	}

	points := make([]Point, len(history))
	copy(points, history)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Month < points[j].Month })

	first := points[0].Month
	last := points[len(points)-1].Month
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		offset, err := datetime.MonthsBetween(first, p.Month)
		if err != nil {
			return Result{Error: eris.Wrapf(err, "forecast: invalid month %q", p.Month).Error()}
		}
		xs[i] = float64(offset)
		ys[i] = p.Value
	}

	fit, ok := mathutil.FitLine(xs, ys)
	if !ok {
		// Every point falls in one month.
		fit = mathutil.LinearFit{Intercept: mathutil.Mean(ys)}
	}

	span := xs[len(xs)-1]
	projected := make([]Point, 0, opts.Horizon)
	for step := 1; step <= opts.Horizon; step++ {
		month, err := datetime.OffsetMonth(last, step)
		if err != nil {
			return Result{Error: eris.Wrapf(err, "forecast: invalid month %q", last).Error()}
		}
		value := fit.At(span + float64(step))
		if value < 0 {
			value = 0
		}
		projected = append(projected, Point{Month: month, Value: mathutil.Round(value)})
	}

	return Result{Projection: &Projection{
		Trend:      classify(fit.Slope, mathutil.Mean(ys), opts.TrendThreshold),
		Slope:      fit.Slope,
		Intercept:  fit.Intercept,
		Confidence: fit.RSquared,
		Historical: points,
		Forecast:   projected,
	}}
}

func classify(slope, mean, threshold float64) string {
	if mean == 0 {
		return TrendStable
	}
	change := slope / mean * constants.PercentageMultiplier
	switch {
	case change > threshold:
		return TrendIncreasing
	case change < -threshold:
		return TrendDecreasing
	}
	return TrendStable
}
