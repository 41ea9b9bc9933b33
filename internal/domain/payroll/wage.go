package payroll

import (
	"github.com/shopspring/decimal"

	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/worktime"
)

type GrossPay struct {
	BaseSalaryAmount       int64 `json:"baseSalaryAmount"`
	WeeklyHolidayPayAmount int64 `json:"weeklyHolidayPayAmount"`
	OvertimeAmount         int64 `json:"overtimeAmount"`
	AbsenceDeduction       int64 `json:"absenceDeduction"`
	TotalGrossPay          int64 `json:"totalGrossPay"`
}

// ComputeGross turns the period summary into gross pay. Hourly profiles are paid for hours worked;
// salaried profiles get the full monthly amount unless hire or resignation falls inside the period.
func ComputeGross(profile employee.Profile, summary worktime.Summary, period Period) GrossPay {
	var gross GrossPay
	switch profile.SalaryType {
	case employee.SalaryHourly:
		gross = hourlyGross(profile, summary)
	case employee.SalaryMonthly, employee.SalaryAnnual:
		gross = salariedGross(profile, summary, period)
	}
	gross.TotalGrossPay = gross.BaseSalaryAmount + gross.WeeklyHolidayPayAmount + gross.OvertimeAmount
	if gross.TotalGrossPay < 0 {
		gross.TotalGrossPay = 0
	}
	return gross
}

func hourlyGross(profile employee.Profile, summary worktime.Summary) GrossPay {
	rate := decimal.NewFromInt(profile.BaseAmount)
	worked := decimal.NewFromFloat(summary.WorkedHours)
	overtime := decimal.NewFromFloat(summary.OvertimeHours)
	regular := worked.Sub(overtime)
	if regular.IsNegative() {
		regular = decimal.Zero
	}

	gross := GrossPay{
		BaseSalaryAmount: won(rate.Mul(regular)),
		OvertimeAmount:   won(overtime.Mul(rate).Mul(profile.OvertimeMultiplier())),
	}
	if profile.WeeklyHolidayType == employee.WeeklyHolidaySeparate {
		daily := decimal.NewFromFloat(profile.ScheduledHours())
		weeks := decimal.NewFromFloat(summary.WeeklyHolidayWeeks)
		gross.WeeklyHolidayPayAmount = won(weeks.Mul(daily).Mul(rate))
	}
	return gross
}

func salariedGross(profile employee.Profile, summary worktime.Summary, period Period) GrossPay {
	monthly := decimal.NewFromInt(profile.MonthlyAmount())
	base := monthly

	if employedDays, prorate := employedWithin(profile, period); prorate {
		base = monthly.Mul(decimal.NewFromInt(int64(employedDays))).Div(decimal.NewFromInt(int64(period.Days())))
	}

	var absence decimal.Decimal
	if profile.DeductAbsence && summary.ScheduledDays > 0 && summary.AbsentDays > 0 {
		absence = monthly.Div(decimal.NewFromInt(int64(summary.ScheduledDays))).Mul(decimal.NewFromInt(int64(summary.AbsentDays)))
	}

	baseWon := won(base)
	absenceWon := won(absence)
	if absenceWon > baseWon {
		absenceWon = baseWon
	}
	return GrossPay{
		BaseSalaryAmount: baseWon - absenceWon,
		AbsenceDeduction: absenceWon,
	}
}

// employedWithin counts employed calendar days in the period; prorate is false when the whole
// period was employed.
func employedWithin(profile employee.Profile, period Period) (int, bool) {
	hire := employee.DateOf(profile.HireDate)
	hiredInside := !profile.HireDate.IsZero() && hire.After(period.Start)
	resignedInside := profile.ResignationDate != nil && employee.DateOf(*profile.ResignationDate).Before(period.End)
	if !hiredInside && !resignedInside {
		return period.Days(), false
	}
	days := 0
	for day := period.Start; !day.After(period.End); day = day.AddDate(0, 0, 1) {
		if profile.EmployedOn(day) {
			days++
		}
	}
	return days, true
}

func won(amount decimal.Decimal) int64 {
	return amount.Round(0).IntPart()
}
