package employee

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Workplace struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters float64   `json:"radiusMeters"`
	Timezone     string    `json:"timezone"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (w Workplace) Location() *time.Location {
	if w.Timezone != "" {
		if loc, err := time.LoadLocation(w.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone("KST", 9*60*60)
}

// Profile is the compensation profile payroll is computed from. Dates are calendar dates in the
// workplace timezone, stored at midnight UTC.
type Profile struct {
	ID                string          `json:"id"`
	WorkplaceID       string          `json:"workplaceId"`
	UserID            string          `json:"userId,omitempty"`
	Name              string          `json:"name"`
	Phone             string          `json:"phone"`
	SSN               string          `json:"ssn,omitempty"`
	SalaryType        string          `json:"salaryType"`
	BaseAmount        int64           `json:"baseAmount"`
	TaxType           string          `json:"taxType"`
	Dependents        int             `json:"dependents"`
	PeriodStartDay    int             `json:"periodStartDay"`
	PeriodEndDay      int             `json:"periodEndDay"`
	PayScheduleType   string          `json:"payScheduleType"`
	PayDay            int             `json:"payDay"`
	PayOffsetDays     int             `json:"payOffsetDays"`
	WeeklyHolidayType string          `json:"weeklyHolidayType"`
	OvertimeRate      decimal.Decimal `json:"overtimeRate"`
	DeductAbsence     bool            `json:"deductAbsence"`
	WorkDays          []time.Weekday  `json:"workDays"`
	ScheduledStart    string          `json:"scheduledStart"`
	ScheduledEnd      string          `json:"scheduledEnd"`
	HireDate          time.Time       `json:"hireDate"`
	ResignationDate   *time.Time      `json:"resignationDate,omitempty"`
	Active            bool            `json:"active"`
}

func (p Profile) WorksOn(day time.Weekday) bool {
	for _, d := range p.WorkDays {
		if d == day {
			return true
		}
	}
	return false
}

// ScheduledHours is the length of the scheduled daily span. A span ending at or before its start
// wraps past midnight.
func (p Profile) ScheduledHours() float64 {
	start, errStart := parseClock(p.ScheduledStart)
	end, errEnd := parseClock(p.ScheduledEnd)
	if errStart != nil || errEnd != nil {
		return 0
	}
	span := end - start
	if span <= 0 {
		span += 24 * time.Hour
	}
	return span.Hours()
}

// ScheduledStartOn returns the scheduled start instant on the given calendar date.
func (p Profile) ScheduledStartOn(date time.Time, loc *time.Location) (time.Time, bool) {
	offset, err := parseClock(p.ScheduledStart)
	if err != nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return day.Add(offset), true
}

// MonthlyAmount is the base amount per month for salaried profiles.
func (p Profile) MonthlyAmount() int64 {
	switch p.SalaryType {
	case SalaryAnnual:
		return decimal.NewFromInt(p.BaseAmount).Div(decimal.NewFromInt(12)).Round(0).IntPart()
	case SalaryMonthly:
		return p.BaseAmount
	default:
		return 0
	}
}

func (p Profile) OvertimeMultiplier() decimal.Decimal {
	if p.OvertimeRate.IsZero() {
		return decimal.RequireFromString(DefaultOvertimeRate)
	}
	return p.OvertimeRate
}

// EmployedOn reports whether date falls within [hire date, resignation date].
func (p Profile) EmployedOn(date time.Time) bool {
	day := DateOf(date)
	if !p.HireDate.IsZero() && day.Before(DateOf(p.HireDate)) {
		return false
	}
	if p.ResignationDate != nil && day.After(DateOf(*p.ResignationDate)) {
		return false
	}
	return true
}

// DateOf drops the clock, keeping the calendar date as seen in t's own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseClock(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", value, err)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}
