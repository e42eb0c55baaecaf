package statistics

import (
	"fmt"
	"strings"
	"time"
)

// PeriodUnit sizes the reporting window.
type PeriodUnit string

const (
	Hours  PeriodUnit = "HOURS"
	Days   PeriodUnit = "DAYS"
	Weeks  PeriodUnit = "WEEKS"
	Months PeriodUnit = "MONTHS"
	Years  PeriodUnit = "YEARS"
)

// GroupBy sizes a single bucket.
type GroupBy string

const (
	ByHour  GroupBy = "HOUR"
	ByDay   GroupBy = "DAY"
	ByWeek  GroupBy = "WEEK"
	ByMonth GroupBy = "MONTH"
)

// ParsePeriodUnit accepts singular or plural names in any case.
func ParsePeriodUnit(raw string) (PeriodUnit, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s != "" && !strings.HasSuffix(s, "S") {
		s += "S"
	}
	switch u := PeriodUnit(s); u {
	case Hours, Days, Weeks, Months, Years:
		return u, nil
	}
	return "", fmt.Errorf("%w: period unit %q, want one of HOURS, DAYS, WEEKS, MONTHS, YEARS", ErrInvalidQuery, raw)
}

func ParseGroupBy(raw string) (GroupBy, error) {
	switch g := GroupBy(strings.ToUpper(strings.TrimSpace(raw))); g {
	case ByHour, ByDay, ByWeek, ByMonth:
		return g, nil
	}
	return "", fmt.Errorf("%w: group by %q, want one of HOUR, DAY, WEEK, MONTH", ErrInvalidQuery, raw)
}

// maxCount is the largest period count that stays within maxWindowYears.
func (u PeriodUnit) maxCount() int {
	switch u {
	case Hours:
		return maxWindowYears * 366 * 24
	case Days:
		return maxWindowYears * 366
	case Weeks:
		return maxWindowYears * 53
	case Months:
		return maxWindowYears * 12
	default:
		return maxWindowYears
	}
}

// shift moves t by n units. Month and year steps clamp to the last day of the target month.
func (u PeriodUnit) shift(t time.Time, n int) time.Time {
	switch u {
	case Hours:
		// Whole days go through AddDate so large counts cannot overflow a Duration.
		return t.AddDate(0, 0, n/24).Add(time.Duration(n%24) * time.Hour)
	case Days:
		return t.AddDate(0, 0, n)
	case Weeks:
		return t.AddDate(0, 0, 7*n)
	case Months:
		return addMonths(t, n)
	default:
		return addMonths(t, 12*n)
	}
}

func (g GroupBy) shift(t time.Time, n int) time.Time {
	switch g {
	case ByHour:
		return t.Add(time.Duration(n) * time.Hour)
	case ByDay:
		return t.AddDate(0, 0, n)
	case ByWeek:
		return t.AddDate(0, 0, 7*n)
	default:
		return addMonths(t, n)
	}
}

func (g GroupBy) label(t time.Time) string {
	switch g {
	case ByHour:
		return t.Format("2006-01-02T15:00")
	case ByDay:
		return t.Format("2006-01-02")
	case ByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format("2006-01")
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
