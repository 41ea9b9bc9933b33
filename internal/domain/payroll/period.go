package payroll

import (
	"fmt"
	"strings"
	"time"

	"chancehr/internal/domain/employee"
)

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

func (p Period) Contains(day time.Time) bool {
	day = employee.DateOf(day)
	return !day.Before(p.Start) && !day.After(p.End)
}

// ParseMonth parses YYYY-MM into the first day of that month.
func ParseMonth(value string) (time.Time, error) {
	month, err := time.Parse(MonthLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, value)
	}
	return month, nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dayOn resolves a configured day of month; 0 is the last day and overflow clamps to it.
func dayOn(year int, month time.Month, day int) time.Time {
	last := daysIn(year, month)
	if day <= 0 || day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// PeriodFor returns the pay period labelled by month. An end day earlier than the start day means
// the period opens in the previous month, never before the day after the previous period's end.
func PeriodFor(profile employee.Profile, month time.Time) Period {
	startDay := profile.PeriodStartDay
	if startDay <= 0 {
		startDay = 1
	}
	endDay := profile.PeriodEndDay
	year, mon := month.Year(), month.Month()

	if endDay > 0 && endDay < startDay {
		prev := time.Date(year, mon-1, 1, 0, 0, 0, 0, time.UTC)
		start := dayOn(prev.Year(), prev.Month(), startDay)
		if afterPrev := dayOn(prev.Year(), prev.Month(), endDay).AddDate(0, 0, 1); afterPrev.After(start) {
			start = afterPrev
		}
		return Period{
			Start: start,
			End:   dayOn(year, mon, endDay),
		}
	}
	return Period{
		Start: dayOn(year, mon, startDay),
		End:   dayOn(year, mon, endDay),
	}
}

// PayDate derives when the period is paid.
func PayDate(profile employee.Profile, periodEnd time.Time) time.Time {
	next := time.Date(periodEnd.Year(), periodEnd.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	switch profile.PayScheduleType {
	case employee.PayHireAnchored:
		return dayOn(next.Year(), next.Month(), profile.HireDate.Day())
	case employee.PayDaysAfterHire:
		return employee.DateOf(periodEnd).AddDate(0, 0, profile.PayOffsetDays)
	default:
		return dayOn(next.Year(), next.Month(), profile.PayDay)
	}
}
