package employee

const (
	SalaryHourly  = "hourly"
	SalaryMonthly = "monthly"
	SalaryAnnual  = "annual"

	TaxFourInsurance = "four_insurance"
	TaxWithholding33 = "withholding_3_3"
	TaxDaily         = "daily"

	PayFixedDay      = "fixed_day"
	PayHireAnchored  = "hire_anchored"
	PayDaysAfterHire = "days_after_hire"

	WeeklyHolidayIncluded = "included"
	WeeklyHolidaySeparate = "separate"
	WeeklyHolidayNone     = "none"

	DefaultOvertimeRate = "1.5"
	DefaultRadiusMeters = 100
)

var (
	SalaryTypes        = []string{SalaryHourly, SalaryMonthly, SalaryAnnual}
	TaxTypes           = []string{TaxFourInsurance, TaxWithholding33, TaxDaily}
	PayScheduleTypes   = []string{PayFixedDay, PayHireAnchored, PayDaysAfterHire}
	WeeklyHolidayTypes = []string{WeeklyHolidayIncluded, WeeklyHolidaySeparate, WeeklyHolidayNone}
)
