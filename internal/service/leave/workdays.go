package leave

import (
	"fmt"
	"time"
)

// Day portions for the weekly work pattern.
const (
	portionFull = 1.0
	portionHalf = 0.5
	portionOff  = 0.0
)

// WorkCalendar evaluates a company's working week plus its holiday table.
// All methods are pure; dates are compared by calendar day.
type WorkCalendar struct {
	weekly   [7]float64 // Monday first
	holidays map[string]struct{}
}

// NewWorkCalendar builds a calendar from a seven-character weekly pattern
// (Monday first, F=full day, H=half day, O=off) and a list of holiday dates.
func NewWorkCalendar(pattern string, holidays []time.Time) (WorkCalendar, error) {
	if len(pattern) != 7 {
		return WorkCalendar{}, fmt.Errorf("weekly pattern must be 7 characters, got %d", len(pattern))
	}

	var c WorkCalendar
	hasWorkDay := false
	for i, ch := range pattern {
		switch ch {
		case 'F':
			c.weekly[i] = portionFull
			hasWorkDay = true
		case 'H':
			c.weekly[i] = portionHalf
			hasWorkDay = true
		case 'O':
			c.weekly[i] = portionOff
		default:
			return WorkCalendar{}, fmt.Errorf("weekly pattern has invalid character %q at position %d", ch, i)
		}
	}
	// An all-off week would make the return-date scan run forever.
	if !hasWorkDay {
		return WorkCalendar{}, fmt.Errorf("weekly pattern has no working day")
	}

	c.holidays = make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		c.holidays[dayKey(h)] = struct{}{}
	}
	return c, nil
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// mondayIndex maps time.Weekday (Sunday=0) to a Monday-first index.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DayPortion returns the working fraction of a single date. A holiday zeroes
// the day regardless of the weekly pattern.
func (c WorkCalendar) DayPortion(d time.Time) float64 {
	if _, ok := c.holidays[dayKey(d)]; ok {
		return portionOff
	}
	return c.weekly[mondayIndex(d)]
}

// WorkingDays sums day portions over [start, end] inclusive. Returns 0 when
// end precedes start.
func (c WorkCalendar) WorkingDays(start, end time.Time) float64 {
	total := 0.0
	for d := truncateDay(start); !d.After(truncateDay(end)); d = d.AddDate(0, 0, 1) {
		total += c.DayPortion(d)
	}
	return total
}

// ReturnDate finds the first date after end on which the employee works.
// Half days count as working days for this purpose.
func (c WorkCalendar) ReturnDate(end time.Time) time.Time {
	d := truncateDay(end).AddDate(0, 0, 1)
	for c.DayPortion(d) == portionOff {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// CalendarDays counts every date in [start, end] inclusive, holidays and
// off days included. Used for leave types deducted on a calendar basis.
func CalendarDays(start, end time.Time) float64 {
	s, e := truncateDay(start), truncateDay(end)
	if e.Before(s) {
		return 0
	}
	return float64(e.Sub(s)/(24*time.Hour)) + 1
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
