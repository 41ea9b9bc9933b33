package employee

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ssnPattern   = regexp.MustCompile(`^\d{6}-\d{7}$`)
	phonePattern = regexp.MustCompile(`^01[016789]-\d{3,4}-\d{4}$`)
)

func ValidateSSN(ssn string) error {
	if !ssnPattern.MatchString(strings.TrimSpace(ssn)) {
		return ErrInvalidSSN
	}
	return nil
}

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		return ErrInvalidPhone
	}
	return nil
}

// Validate rejects malformed fields on create and update. Optional fields are checked only when set.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.WorkplaceID) == "" || strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: workplace and name are required", ErrInvalidProfile)
	}
	if p.SSN != "" {
		if err := ValidateSSN(p.SSN); err != nil {
			return err
		}
	}
	if p.Phone != "" {
		if err := ValidatePhone(p.Phone); err != nil {
			return err
		}
	}
	if !oneOf(p.SalaryType, SalaryTypes) {
		return fmt.Errorf("%w: salary type %q", ErrInvalidProfile, p.SalaryType)
	}
	if !oneOf(p.TaxType, TaxTypes) {
		return fmt.Errorf("%w: tax type %q", ErrInvalidProfile, p.TaxType)
	}
	if p.PayScheduleType != "" && !oneOf(p.PayScheduleType, PayScheduleTypes) {
		return fmt.Errorf("%w: pay schedule %q", ErrInvalidProfile, p.PayScheduleType)
	}
	if p.WeeklyHolidayType != "" && !oneOf(p.WeeklyHolidayType, WeeklyHolidayTypes) {
		return fmt.Errorf("%w: weekly holiday mode %q", ErrInvalidProfile, p.WeeklyHolidayType)
	}
	if p.Dependents < 1 {
		return fmt.Errorf("%w: dependents must be at least 1", ErrInvalidProfile)
	}
	if p.BaseAmount < 0 {
		return fmt.Errorf("%w: base amount must not be negative", ErrInvalidProfile)
	}
	for _, day := range []int{p.PeriodStartDay, p.PeriodEndDay, p.PayDay} {
		if day < 0 || day > 31 {
			return fmt.Errorf("%w: day of month must be within 0..31", ErrInvalidProfile)
		}
	}
	if p.PayOffsetDays < 0 {
		return fmt.Errorf("%w: pay offset must not be negative", ErrInvalidProfile)
	}
	if p.OvertimeRate.IsNegative() {
		return fmt.Errorf("%w: overtime rate must not be negative", ErrInvalidProfile)
	}
	for _, clock := range []string{p.ScheduledStart, p.ScheduledEnd} {
		if clock == "" {
			continue
		}
		if _, err := parseClock(clock); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
	}
	for _, d := range p.WorkDays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: work day %d", ErrInvalidProfile, d)
		}
	}
	if p.ResignationDate != nil && !p.HireDate.IsZero() && p.ResignationDate.Before(p.HireDate) {
		return fmt.Errorf("%w: resignation before hire", ErrInvalidProfile)
	}
	return nil
}

// ReadyForPayroll lists what must be filled in before the first slip can be generated.
func (p Profile) ReadyForPayroll() error {
	var missing []string
	if p.BaseAmount <= 0 {
		missing = append(missing, "baseAmount")
	}
	if p.HireDate.IsZero() {
		missing = append(missing, "hireDate")
	}
	if len(p.WorkDays) == 0 {
		missing = append(missing, "workDays")
	}
	if p.ScheduledStart == "" || p.ScheduledEnd == "" {
		missing = append(missing, "scheduledHours")
	}
	if p.PayScheduleType == "" {
		missing = append(missing, "payScheduleType")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteProfile, strings.Join(missing, ", "))
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}
