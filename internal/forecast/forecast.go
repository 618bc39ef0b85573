// Package forecast implements trend analysis and short-horizon case
// forecasting for outbreak-risk assessment. The engine favors explainable,
// auditable heuristics (moving average, ordinary least squares, fixed
// threshold scoring) over opaque models because outputs must be defensible
// in a regulatory survey context.
package forecast

import (
	"math"

	"github.com/carewatch/stewardship/pkg/dateutil"
)

// smoothingWindow is the maximum trailing window used to smooth historical
// series before fitting a trend.
const smoothingWindow = 7

// DefaultConfidenceMultiplier is the default z-like width multiplier for
// forecast confidence bands.
const DefaultConfidenceMultiplier = 1.96

// Observation is one dated value in a historical series.
type Observation struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ForecastPoint is one projected value with its confidence band and the
// seasonal context that scaled it. Lower is floored at 0: counts cannot be
// negative.
type ForecastPoint struct {
	Date               string   `json:"date"`
	Predicted          float64  `json:"predicted"`
	Lower              float64  `json:"lower"`
	Upper              float64  `json:"upper"`
	SeasonalMultiplier float64  `json:"seasonal_multiplier"`
	SeasonalWindows    []string `json:"seasonal_windows,omitempty"`
}

// Trend is the result of a linear fit over a series.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// MovingAverage returns the trailing moving average of the series. For each
// index the average covers the up-to-window values ending there; the window
// shrinks at the start of the series rather than padding with zeros.
func MovingAverage(series []float64, window int) []float64 {
	if len(series) == 0 || window <= 0 {
		return nil
	}

	out := make([]float64, len(series))
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// LinearTrend fits an ordinary least-squares line to index-vs-value. Series
// shorter than 2 points yield a flat trend anchored at the only value (or
// 0); degenerate fits that would produce NaN are coerced to 0.
func LinearTrend(series []float64) Trend {
	n := len(series)
	if n < 2 {
		intercept := 0.0
		if n == 1 {
			intercept = series[0]
		}
		return Trend{Slope: 0, Intercept: intercept}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		slope = 0
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		intercept = 0
	}
	return Trend{Slope: slope, Intercept: intercept}
}

// GenerateForecast projects the historical daily series daysAhead points
// forward. The series is smoothed with a trailing moving average, a linear
// trend is fit to the smoothed values, each projection is scaled by the
// seasonal risk multiplier of its calendar date, and the confidence band
// widens with the horizon by sqrt(1 + i/len), an uncertainty-growth
// heuristic rather than a derived prediction interval. Fewer than 3 historical
// points yield no forecast.
func GenerateForecast(historical []Observation, daysAhead int, confidenceMultiplier float64) []ForecastPoint {
	if len(historical) < 3 || daysAhead <= 0 {
		return nil
	}
	if confidenceMultiplier <= 0 {
		confidenceMultiplier = DefaultConfidenceMultiplier
	}

	lastDate, err := dateutil.ToCalendarDate(historical[len(historical)-1].Date)
	if err != nil {
		return nil
	}

	values := make([]float64, len(historical))
	for i, obs := range historical {
		values[i] = obs.Value
	}

	window := smoothingWindow
	if len(values) < window {
		window = len(values)
	}
	smoothed := MovingAverage(values, window)
	trend := LinearTrend(smoothed)
	residualSD := residualStdDev(smoothed, trend)

	n := float64(len(smoothed))
	points := make([]ForecastPoint, 0, daysAhead)
	for i := 1; i <= daysAhead; i++ {
		date := lastDate.AddDate(0, 0, i)
		baseline := trend.Intercept + trend.Slope*(n-1+float64(i))
		if baseline < 0 {
			baseline = 0
		}

		risk := SeasonalRisk(date)
		predicted := baseline * risk.Multiplier

		// Uncertainty grows with the horizon.
		width := confidenceMultiplier * residualSD * math.Sqrt(1+float64(i)/n)
		lower := predicted - width
		if lower < 0 {
			lower = 0
		}

		points = append(points, ForecastPoint{
			Date:               date.Format(dateutil.ISODate),
			Predicted:          round2(predicted),
			Lower:              round2(lower),
			Upper:              round2(predicted + width),
			SeasonalMultiplier: risk.Multiplier,
			SeasonalWindows:    risk.Windows,
		})
	}
	return points
}

// TrendDirection classifies a recent-versus-baseline comparison.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendAnalysis reports the direction and relative change of a series.
type TrendAnalysis struct {
	Direction     TrendDirection `json:"direction"`
	ChangePercent float64        `json:"change_percent"`
}

// AnalyzeTrend compares the mean of the last 7 values against the mean of
// the prior up-to-7 values. A relative change beyond ±10% classifies the
// series as increasing or decreasing. Series shorter than 7 points, or with
// a zero prior-period baseline, report stable with 0%.
func AnalyzeTrend(series []float64) TrendAnalysis {
	stable := TrendAnalysis{Direction: TrendStable, ChangePercent: 0}
	if len(series) < 7 {
		return stable
	}

	recent := series[len(series)-7:]
	priorStart := len(series) - 14
	if priorStart < 0 {
		priorStart = 0
	}
	prior := series[priorStart : len(series)-7]
	if len(prior) == 0 {
		return stable
	}

	priorMean := mean(prior)
	if priorMean == 0 {
		return stable
	}

	change := (mean(recent) - priorMean) / priorMean * 100
	analysis := TrendAnalysis{Direction: TrendStable, ChangePercent: round2(change)}
	if change > 10 {
		analysis.Direction = TrendIncreasing
	} else if change < -10 {
		analysis.Direction = TrendDecreasing
	}
	return analysis
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// residualStdDev measures the spread of the series around the fitted line.
func residualStdDev(series []float64, trend Trend) float64 {
	if len(series) < 2 {
		return 0
	}
	var sumSq float64
	for i, v := range series {
		r := v - (trend.Intercept + trend.Slope*float64(i))
		sumSq += r * r
	}
	sd := math.Sqrt(sumSq / float64(len(series)-1))
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
