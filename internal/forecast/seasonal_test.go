package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeasonalRisk(t *testing.T) {
	t.Run("mid-winter matches every window", func(t *testing.T) {
		result := SeasonalRisk(date(time.December, 15))

		assert.Equal(t, 1.5, result.Multiplier, "maximum multiplier wins")
		assert.ElementsMatch(t, []string{"influenza", "rsv", "norovirus"}, result.Windows)
	})

	t.Run("summer is neutral", func(t *testing.T) {
		result := SeasonalRisk(date(time.July, 4))

		assert.Equal(t, 1.0, result.Multiplier)
		assert.Empty(t, result.Windows)
	})

	t.Run("wrap-around window matches after year boundary", func(t *testing.T) {
		result := SeasonalRisk(date(time.January, 10))

		assert.Equal(t, 1.5, result.Multiplier)
		assert.Contains(t, result.Windows, "influenza")
		assert.Contains(t, result.Windows, "rsv")
	})

	t.Run("late-season tail matches only the longer windows", func(t *testing.T) {
		result := SeasonalRisk(date(time.April, 15))

		assert.Equal(t, 1.4, result.Multiplier)
		assert.Equal(t, []string{"norovirus"}, result.Windows)
	})

	t.Run("window start boundary is inclusive", func(t *testing.T) {
		result := SeasonalRisk(date(time.October, 1))

		assert.Equal(t, 1.5, result.Multiplier)
		assert.Equal(t, []string{"influenza"}, result.Windows)
	})

	t.Run("window end boundary is inclusive", func(t *testing.T) {
		result := SeasonalRisk(date(time.March, 31))

		assert.Contains(t, result.Windows, "influenza")
	})
}
