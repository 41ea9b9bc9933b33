package payroll

import (
	"fmt"
	"time"

	"chancehr/internal/domain/employee"
)

// AssembleSlip fills a slip from gross pay and a deduction result.
func AssembleSlip(profile employee.Profile, month string, period Period, payDate time.Time, gross GrossPay, deductions DeductionResult) (Slip, error) {
	slip := Slip{
		EmployeeID:       profile.ID,
		EmployeeName:     profile.Name,
		WorkplaceID:      profile.WorkplaceID,
		PayrollMonth:     month,
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		PayDate:          payDate,
		TaxType:          profile.TaxType,
		BasePay:          gross.BaseSalaryAmount,
		WeeklyHolidayPay: gross.WeeklyHolidayPayAmount,
		OvertimePay:      gross.OvertimeAmount,
	}
	if deductions != nil {
		deductions.apply(&slip)
	}
	if err := slip.Recalculate(); err != nil {
		return Slip{}, err
	}
	return slip, nil
}

// Recalculate derives gross, total deductions and net from the individual lines. Lines that do
// not belong to the slip's tax classification are cleared, and flat withholding is recomputed
// from gross.
func (s *Slip) Recalculate() error {
	lines := []int64{
		s.BasePay, s.WeeklyHolidayPay, s.OvertimePay,
		s.NationalPension, s.HealthInsurance, s.LongTermCare, s.EmploymentInsurance,
		s.IncomeTax, s.LocalIncomeTax, s.Withholding,
	}
	for _, amount := range lines {
		if amount < 0 {
			return ErrInvalidAmount
		}
	}
	s.GrossPay = s.BasePay + s.WeeklyHolidayPay + s.OvertimePay
	deductions := s.Deductions()
	if _, flat := deductions.(FlatWithholding); flat {
		deductions = ComputeWithholding(s.GrossPay)
	}
	deductions.apply(s)
	s.TotalDeductions = deductions.Total()
	s.NetPay = s.GrossPay - s.TotalDeductions
	if s.NetPay < 0 {
		return fmt.Errorf("%w: deductions %d exceed gross %d", ErrNegativeNet, s.TotalDeductions, s.GrossPay)
	}
	return nil
}

// Deductions rebuilds the tagged deduction result from the flattened lines.
func (s Slip) Deductions() DeductionResult {
	switch s.TaxType {
	case employee.TaxWithholding33, employee.TaxDaily:
		return FlatWithholding{Amount: s.Withholding}
	default:
		return FourInsurance{
			NationalPension:     s.NationalPension,
			HealthInsurance:     s.HealthInsurance,
			LongTermCare:        s.LongTermCare,
			EmploymentInsurance: s.EmploymentInsurance,
			IncomeTax:           s.IncomeTax,
			LocalIncomeTax:      s.LocalIncomeTax,
			Employer: EmployerBurden{
				NationalPension:     s.EmployerNationalPension,
				HealthInsurance:     s.EmployerHealthInsurance,
				LongTermCare:        s.EmployerLongTermCare,
				EmploymentInsurance: s.EmployerEmploymentInsurance,
			},
		}
	}
}

// Apply merges an owner edit into the slip and rebalances it.
func (u SlipUpdate) Apply(slip *Slip) error {
	set := func(dst *int64, src *int64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&slip.BasePay, u.BasePay)
	set(&slip.WeeklyHolidayPay, u.WeeklyHolidayPay)
	set(&slip.OvertimePay, u.OvertimePay)
	set(&slip.NationalPension, u.NationalPension)
	set(&slip.HealthInsurance, u.HealthInsurance)
	set(&slip.LongTermCare, u.LongTermCare)
	set(&slip.EmploymentInsurance, u.EmploymentInsurance)
	set(&slip.IncomeTax, u.IncomeTax)
	set(&slip.LocalIncomeTax, u.LocalIncomeTax)
	if u.PayDate != nil {
		slip.PayDate = employee.DateOf(*u.PayDate)
	}
	return slip.Recalculate()
}
