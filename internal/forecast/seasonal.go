package forecast

import "time"

// SeasonalWindow is a fixed month-day range during which a disease
// category's baseline risk is elevated. Windows that start late in the year
// and end early in the next wrap across the year boundary.
type SeasonalWindow struct {
	Name       string
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
	Multiplier float64
}

// seasonalWindows are the surveillance calendar's peak-risk periods.
var seasonalWindows = []SeasonalWindow{
	{Name: "influenza", StartMonth: time.October, StartDay: 1, EndMonth: time.March, EndDay: 31, Multiplier: 1.5},
	{Name: "rsv", StartMonth: time.November, StartDay: 1, EndMonth: time.February, EndDay: 28, Multiplier: 1.3},
	{Name: "norovirus", StartMonth: time.November, StartDay: 1, EndMonth: time.April, EndDay: 30, Multiplier: 1.4},
}

// SeasonalRiskResult is the outcome of matching a date against the seasonal
// windows: the maximum multiplier among matches and the names of every
// matching window.
type SeasonalRiskResult struct {
	Multiplier float64  `json:"multiplier"`
	Windows    []string `json:"windows,omitempty"`
}

// SeasonalRisk matches the date's month and day against the fixed seasonal
// windows. Dates outside every window carry a neutral multiplier of 1.
func SeasonalRisk(date time.Time) SeasonalRiskResult {
	result := SeasonalRiskResult{Multiplier: 1.0}
	md := monthDay(date.Month(), date.Day())

	for _, w := range seasonalWindows {
		if !w.contains(md) {
			continue
		}
		result.Windows = append(result.Windows, w.Name)
		if w.Multiplier > result.Multiplier {
			result.Multiplier = w.Multiplier
		}
	}
	return result
}

// contains tests month-day containment, aware of windows that wrap the year
// boundary (start later in the calendar than end).
func (w SeasonalWindow) contains(md int) bool {
	start := monthDay(w.StartMonth, w.StartDay)
	end := monthDay(w.EndMonth, w.EndDay)
	if start <= end {
		return md >= start && md <= end
	}
	return md >= start || md <= end
}

// monthDay collapses a month and day into a single comparable ordinal.
func monthDay(m time.Month, d int) int {
	return int(m)*100 + d
}
