package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverage(t *testing.T) {
	t.Run("window shrinks at the start of the series", func(t *testing.T) {
		out := MovingAverage([]float64{1, 2, 3, 4}, 2)
		assert.Equal(t, []float64{1, 1.5, 2.5, 3.5}, out)
	})

	t.Run("window larger than series averages everything seen so far", func(t *testing.T) {
		out := MovingAverage([]float64{2, 4}, 7)
		assert.Equal(t, []float64{2, 3}, out)
	})

	t.Run("empty series and bad window", func(t *testing.T) {
		assert.Nil(t, MovingAverage(nil, 3))
		assert.Nil(t, MovingAverage([]float64{1, 2}, 0))
	})
}

func TestLinearTrend(t *testing.T) {
	t.Run("perfect line recovers slope and intercept", func(t *testing.T) {
		trend := LinearTrend([]float64{1, 2, 3, 4})
		assert.InDelta(t, 1.0, trend.Slope, 1e-9)
		assert.InDelta(t, 1.0, trend.Intercept, 1e-9)
	})

	t.Run("flat series has zero slope", func(t *testing.T) {
		trend := LinearTrend([]float64{5, 5, 5})
		assert.InDelta(t, 0.0, trend.Slope, 1e-9)
		assert.InDelta(t, 5.0, trend.Intercept, 1e-9)
	})

	t.Run("short series yields flat trend anchored at first value", func(t *testing.T) {
		assert.Equal(t, Trend{Slope: 0, Intercept: 7}, LinearTrend([]float64{7}))
		assert.Equal(t, Trend{Slope: 0, Intercept: 0}, LinearTrend(nil))
	})
}

func TestGenerateForecast(t *testing.T) {
	t.Run("fewer than three points yields no forecast", func(t *testing.T) {
		historical := []Observation{
			{Date: "2026-07-08", Value: 1},
			{Date: "2026-07-09", Value: 2},
		}
		assert.Nil(t, GenerateForecast(historical, 5, DefaultConfidenceMultiplier))
	})

	t.Run("constant series projects flat with tight band", func(t *testing.T) {
		historical := []Observation{
			{Date: "2026-07-06", Value: 5},
			{Date: "2026-07-07", Value: 5},
			{Date: "2026-07-08", Value: 5},
			{Date: "2026-07-09", Value: 5},
			{Date: "2026-07-10", Value: 5},
		}

		points := GenerateForecast(historical, 3, DefaultConfidenceMultiplier)
		require.Len(t, points, 3)

		assert.Equal(t, "2026-07-11", points[0].Date)
		assert.Equal(t, "2026-07-12", points[1].Date)
		assert.Equal(t, "2026-07-13", points[2].Date)

		for _, p := range points {
			assert.InDelta(t, 5.0, p.Predicted, 1e-9)
			assert.InDelta(t, 5.0, p.Lower, 1e-9)
			assert.InDelta(t, 5.0, p.Upper, 1e-9)
			assert.Equal(t, 1.0, p.SeasonalMultiplier, "July is outside every seasonal window")
			assert.Empty(t, p.SeasonalWindows)
		}
	})

	t.Run("confidence band widens with the horizon", func(t *testing.T) {
		historical := []Observation{
			{Date: "2026-07-01", Value: 2},
			{Date: "2026-07-02", Value: 5},
			{Date: "2026-07-03", Value: 3},
			{Date: "2026-07-04", Value: 7},
			{Date: "2026-07-05", Value: 4},
			{Date: "2026-07-06", Value: 8},
			{Date: "2026-07-07", Value: 5},
			{Date: "2026-07-08", Value: 9},
		}

		points := GenerateForecast(historical, 5, DefaultConfidenceMultiplier)
		require.Len(t, points, 5)

		for i, p := range points {
			assert.GreaterOrEqual(t, p.Lower, 0.0, "lower bound floored at zero")
			assert.LessOrEqual(t, p.Lower, p.Predicted)
			assert.GreaterOrEqual(t, p.Upper, p.Predicted)
			if i > 0 {
				prevWidth := points[i-1].Upper - points[i-1].Lower
				width := p.Upper - p.Lower
				assert.GreaterOrEqual(t, width, prevWidth-1e-9)
			}
		}
	})

	t.Run("declining series never projects negative counts", func(t *testing.T) {
		historical := []Observation{
			{Date: "2026-07-01", Value: 10},
			{Date: "2026-07-02", Value: 8},
			{Date: "2026-07-03", Value: 6},
			{Date: "2026-07-04", Value: 4},
			{Date: "2026-07-05", Value: 2},
		}

		points := GenerateForecast(historical, 10, DefaultConfidenceMultiplier)
		require.NotEmpty(t, points)
		for _, p := range points {
			assert.GreaterOrEqual(t, p.Predicted, 0.0)
			assert.GreaterOrEqual(t, p.Lower, 0.0)
		}
	})

	t.Run("seasonal multiplier scales winter projections", func(t *testing.T) {
		historical := []Observation{
			{Date: "2026-12-10", Value: 4},
			{Date: "2026-12-11", Value: 4},
			{Date: "2026-12-12", Value: 4},
		}

		points := GenerateForecast(historical, 1, DefaultConfidenceMultiplier)
		require.Len(t, points, 1)

		assert.Equal(t, 1.5, points[0].SeasonalMultiplier)
		assert.Contains(t, points[0].SeasonalWindows, "influenza")
		assert.InDelta(t, 6.0, points[0].Predicted, 1e-9) // 4 * 1.5
	})

	t.Run("unparseable last date yields no forecast", func(t *testing.T) {
		historical := []Observation{
			{Date: "2026-07-01", Value: 1},
			{Date: "2026-07-02", Value: 1},
			{Date: "bogus", Value: 1},
		}
		assert.Nil(t, GenerateForecast(historical, 3, DefaultConfidenceMultiplier))
	})
}

func TestAnalyzeTrend(t *testing.T) {
	t.Run("increase beyond ten percent", func(t *testing.T) {
		series := []float64{10, 10, 10, 10, 10, 10, 10, 12, 12, 12, 12, 12, 12, 12}
		analysis := AnalyzeTrend(series)

		assert.Equal(t, TrendIncreasing, analysis.Direction)
		assert.InDelta(t, 20.0, analysis.ChangePercent, 1e-9)
	})

	t.Run("decrease beyond ten percent", func(t *testing.T) {
		series := []float64{10, 10, 10, 10, 10, 10, 10, 8, 8, 8, 8, 8, 8, 8}
		analysis := AnalyzeTrend(series)

		assert.Equal(t, TrendDecreasing, analysis.Direction)
		assert.InDelta(t, -20.0, analysis.ChangePercent, 1e-9)
	})

	t.Run("small change is stable", func(t *testing.T) {
		series := []float64{10, 10, 10, 10, 10, 10, 10, 10.5, 10.5, 10.5, 10.5, 10.5, 10.5, 10.5}
		analysis := AnalyzeTrend(series)

		assert.Equal(t, TrendStable, analysis.Direction)
		assert.InDelta(t, 5.0, analysis.ChangePercent, 1e-9)
	})

	t.Run("short series reports stable zero", func(t *testing.T) {
		assert.Equal(t, TrendAnalysis{Direction: TrendStable, ChangePercent: 0}, AnalyzeTrend([]float64{1, 2, 3}))
	})

	t.Run("zero prior baseline reports stable zero", func(t *testing.T) {
		series := []float64{0, 0, 0, 0, 0, 0, 0, 5, 5, 5, 5, 5, 5, 5}
		assert.Equal(t, TrendAnalysis{Direction: TrendStable, ChangePercent: 0}, AnalyzeTrend(series))
	})

	t.Run("exactly seven points has no prior window", func(t *testing.T) {
		series := []float64{5, 5, 5, 5, 5, 5, 5}
		assert.Equal(t, TrendAnalysis{Direction: TrendStable, ChangePercent: 0}, AnalyzeTrend(series))
	})
}
