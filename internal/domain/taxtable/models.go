package taxtable

import "github.com/shopspring/decimal"

const (
	MinDependents = 1
	MaxDependents = 11
)

// Entry is one bracket of the simplified withholding table. Bounds are whole won, half-open [SalaryMin, SalaryMax).
type Entry struct {
	Year      int                  `json:"year"`
	SalaryMin int64                `json:"salaryMin"`
	SalaryMax int64                `json:"salaryMax"`
	Taxes     [MaxDependents]int64 `json:"taxes"`
}

// Rates holds the employee-side statutory insurance rates for a year.
// LongTermCareRate is a fraction of the health premium, not of gross pay.
type Rates struct {
	Year                   int             `json:"year"`
	PensionRate            decimal.Decimal `json:"pensionRate"`
	PensionFloor           int64           `json:"pensionFloor"`
	PensionCeiling         int64           `json:"pensionCeiling"`
	HealthRate             decimal.Decimal `json:"healthRate"`
	LongTermCareRate       decimal.Decimal `json:"longTermCareRate"`
	EmploymentRate         decimal.Decimal `json:"employmentRate"`
	EmployerEmploymentRate decimal.Decimal `json:"employerEmploymentRate"`
}

type ImportResult struct {
	Year     int `json:"year"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
