package payroll

import "time"

// Slip is the persisted salary slip. Deduction lines are flattened; Deductions rebuilds the tagged form.
type Slip struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName,omitempty"`
	WorkplaceID  string    `json:"workplaceId"`
	PayrollMonth string    `json:"payrollMonth"`
	PeriodStart  time.Time `json:"periodStart"`
	PeriodEnd    time.Time `json:"periodEnd"`
	PayDate      time.Time `json:"payDate"`
	TaxType      string    `json:"taxType"`

	BasePay          int64 `json:"basePay"`
	WeeklyHolidayPay int64 `json:"weeklyHolidayPay"`
	OvertimePay      int64 `json:"overtimePay"`
	GrossPay         int64 `json:"grossPay"`

	NationalPension     int64 `json:"nationalPension"`
	HealthInsurance     int64 `json:"healthInsurance"`
	LongTermCare        int64 `json:"longTermCare"`
	EmploymentInsurance int64 `json:"employmentInsurance"`
	IncomeTax           int64 `json:"incomeTax"`
	LocalIncomeTax      int64 `json:"localIncomeTax"`
	Withholding         int64 `json:"withholding"`
	TotalDeductions     int64 `json:"totalDeductions"`
	NetPay              int64 `json:"netPay"`

	EmployerNationalPension     int64 `json:"employerNationalPension"`
	EmployerHealthInsurance     int64 `json:"employerHealthInsurance"`
	EmployerLongTermCare        int64 `json:"employerLongTermCare"`
	EmployerEmploymentInsurance int64 `json:"employerEmploymentInsurance"`

	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SlipUpdate carries owner edits; nil fields keep their current value. Flat withholding is
// always derived from gross pay, so it has no edit field.
type SlipUpdate struct {
	BasePay             *int64     `json:"basePay"`
	WeeklyHolidayPay    *int64     `json:"weeklyHolidayPay"`
	OvertimePay         *int64     `json:"overtimePay"`
	NationalPension     *int64     `json:"nationalPension"`
	HealthInsurance     *int64     `json:"healthInsurance"`
	LongTermCare        *int64     `json:"longTermCare"`
	EmploymentInsurance *int64     `json:"employmentInsurance"`
	IncomeTax           *int64     `json:"incomeTax"`
	LocalIncomeTax      *int64     `json:"localIncomeTax"`
	PayDate             *time.Time `json:"payDate"`
}

type BatchResult struct {
	WorkplaceID  string   `json:"workplaceId"`
	PayrollMonth string   `json:"payrollMonth"`
	Created      int      `json:"created"`
	Skipped      int      `json:"skipped"`
	Failed       int      `json:"failed"`
	Errors       []string `json:"errors,omitempty"`
}

// PastRecord is pay history entered for the time before the employer used this system.
type PastRecord struct {
	ID              string    `json:"id"`
	EmployeeID      string    `json:"employeeId"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	SalaryType      string    `json:"salaryType"`
	Amount          int64     `json:"amount"`
	Notes           string    `json:"notes"`
	ConvertedSlipID string    `json:"convertedSlipId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Preview struct {
	Slip       Slip            `json:"slip"`
	Gross      GrossPay        `json:"gross"`
	Deductions DeductionResult `json:"deductions"`
}
