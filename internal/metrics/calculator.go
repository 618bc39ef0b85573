// Package metrics implements the surveillance calculations used for
// antibiotic-stewardship and infection-control reporting: resident-days,
// antibiotic starts, days of therapy, utilization ratio, and infection rate.
// Every function is total over well-formed input; records carrying malformed
// dates are excluded from date-bounded aggregates rather than aborting the
// whole calculation.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/carewatch/stewardship/pkg/dateutil"
	"github.com/carewatch/stewardship/pkg/logger"
	"github.com/carewatch/stewardship/pkg/types"
)

// ResidentDaysMethod selects the resident-days calculation method.
type ResidentDaysMethod string

const (
	// MethodMidnightCensusSum sums the midnight census count of every day in
	// the range; days without a snapshot contribute 0.
	MethodMidnightCensusSum ResidentDaysMethod = "midnight_census_sum"

	// MethodADCTimesDays multiplies the average daily census over the range
	// by the number of days in the range, rounded to the nearest whole day.
	MethodADCTimesDays ResidentDaysMethod = "adc_x_days"
)

// Calculator computes surveillance metrics over record collections and a
// bounding date range. Methods are deterministic and perform no I/O.
type Calculator struct {
	logger *logger.Logger
}

// NewCalculator creates a new metrics calculator
func NewCalculator(log *logger.Logger) *Calculator {
	return &Calculator{logger: log}
}

// ResidentDays computes the resident-days denominator for the range using
// the given method. Returns 0 for an inverted or empty range.
func (c *Calculator) ResidentDays(r dateutil.DateRange, snapshots []*types.CensusSnapshot, method ResidentDaysMethod) int {
	days := r.Days()
	if days <= 0 {
		return 0
	}

	// One count per calendar day: duplicate snapshots for a day collapse to
	// the last one seen, for both methods.
	inRange := make(map[string]int)
	for _, snap := range snapshots {
		if snap == nil {
			continue
		}
		d, err := dateutil.ToCalendarDate(snap.Date)
		if err != nil {
			c.debugExcluded("census snapshot", snap.Date)
			continue
		}
		if !r.Contains(d) {
			continue
		}
		inRange[d.Format(dateutil.ISODate)] = snap.CensusCount
	}

	switch method {
	case MethodADCTimesDays:
		if len(inRange) == 0 {
			return 0
		}
		total := 0
		for _, count := range inRange {
			total += count
		}
		adc := float64(total) / float64(len(inRange))
		return int(math.Round(adc * float64(days)))
	default:
		// midnight_census_sum: missing days contribute 0
		sum := 0
		for _, day := range dateutil.EnumerateDays(r) {
			sum += inRange[day]
		}
		return sum
	}
}

// ABTStarts counts antibiotic therapy starts within the range. A course is a
// start if its start date falls in the range AND it is either the resident's
// first course chronologically or the immediately-preceding course (by start
// date) had ended before this course began. Continuations and edits of an
// ongoing course therefore do not inflate the count, while a genuine restart
// after a gap counts again.
func (c *Calculator) ABTStarts(courses []*types.AntibioticCourse, r dateutil.DateRange) int {
	type dated struct {
		course *types.AntibioticCourse
		start  time.Time
	}

	byResident := make(map[string][]dated)
	order := []string{}
	for _, course := range courses {
		if course == nil {
			continue
		}
		start, err := dateutil.ToCalendarDate(course.StartDate)
		if err != nil {
			c.debugExcluded("antibiotic course", course.StartDate)
			continue
		}
		key := residentKey(course)
		if _, seen := byResident[key]; !seen {
			order = append(order, key)
		}
		byResident[key] = append(byResident[key], dated{course: course, start: start})
	}

	starts := 0
	for _, key := range order {
		history := byResident[key]
		// Stable sort: same-day courses keep their input order, and only the
		// immediate predecessor in this ordering is consulted.
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].start.Before(history[j].start)
		})

		for i, entry := range history {
			if !r.Contains(entry.start) {
				continue
			}
			if i == 0 {
				starts++
				continue
			}
			if endedBefore(history[i-1].course, entry.start) {
				starts++
			}
		}
	}
	return starts
}

// endedBefore reports whether a course had ended before the given start
// date. A recorded end date must fall strictly before the start; a terminal
// status with no end date is taken as ended.
func endedBefore(prev *types.AntibioticCourse, start time.Time) bool {
	if !prev.Ended() {
		return false
	}
	if prev.EndDate != "" {
		end, err := dateutil.ToCalendarDate(prev.EndDate)
		if err == nil {
			return dateutil.CalendarDayDifference(end, start) > 0
		}
	}
	return prev.Status.Terminal()
}

// DaysOfTherapy returns the inclusive day count of the course's interval
// clipped to the range. An open-ended course is capped at the range end, not
// excluded. A course entirely outside the range yields 0.
func (c *Calculator) DaysOfTherapy(course *types.AntibioticCourse, r dateutil.DateRange) int {
	if course == nil {
		return 0
	}
	start, err := dateutil.ToCalendarDate(course.StartDate)
	if err != nil {
		c.debugExcluded("antibiotic course", course.StartDate)
		return 0
	}

	effectiveEnd := r.End
	if course.EndDate != "" {
		if end, err := dateutil.ToCalendarDate(course.EndDate); err == nil {
			effectiveEnd = end
		}
	}

	clipStart := start
	if dateutil.CalendarDayDifference(r.Start, clipStart) < 0 {
		clipStart = r.Start
	}
	clipEnd := effectiveEnd
	if dateutil.CalendarDayDifference(clipEnd, r.End) < 0 {
		clipEnd = r.End
	}

	days := dateutil.CalendarDayDifference(clipStart, clipEnd) + 1
	if days < 0 {
		return 0
	}
	return days
}

// TotalDaysOfTherapy sums DaysOfTherapy across all courses for the range.
func (c *Calculator) TotalDaysOfTherapy(courses []*types.AntibioticCourse, r dateutil.DateRange) int {
	total := 0
	for _, course := range courses {
		total += c.DaysOfTherapy(course, r)
	}
	return total
}

// AntibioticUtilizationRatio returns days of therapy per 1000 resident-days.
// Returns 0 whenever residentDays is non-positive; never raises on garbage
// input.
func (c *Calculator) AntibioticUtilizationRatio(totalDaysOfTherapy, residentDays float64) float64 {
	if residentDays <= 0 {
		return 0
	}
	return totalDaysOfTherapy / residentDays * 1000
}

// InfectionRatePer1000ResidentDays returns the rate of new IP case onsets in
// the range per 1000 resident-days. Resolution dates are irrelevant: this is
// a rate of new onsets, not prevalence. Returns 0 when residentDays is
// non-positive.
func (c *Calculator) InfectionRatePer1000ResidentDays(ipCases []*types.IPCase, r dateutil.DateRange, residentDays float64) float64 {
	if residentDays <= 0 {
		return 0
	}

	onsets := 0
	for _, ipCase := range ipCases {
		if ipCase == nil {
			continue
		}
		onset, err := dateutil.ToCalendarDate(ipCase.OnsetDate)
		if err != nil {
			c.debugExcluded("IP case", ipCase.OnsetDate)
			continue
		}
		if r.Contains(onset) {
			onsets++
		}
	}

	return float64(onsets) / residentDays * 1000
}

// residentKey returns the identifier used to group a course's resident
// history: the canonical resident ID when assigned, otherwise the legacy MRN.
func residentKey(course *types.AntibioticCourse) string {
	if course.ResidentID != "" {
		return course.ResidentID
	}
	return course.MRN
}

func (c *Calculator) debugExcluded(record, date string) {
	if c.logger != nil {
		c.logger.WithFields(map[string]interface{}{
			"record": record,
			"date":   date,
		}).Debug("Excluding record with unparseable date from aggregate")
	}
}
