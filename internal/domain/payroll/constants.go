package payroll

const (
	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"

	// WithholdingRate covers income tax and local tax for freelance and daily classifications.
	WithholdingRate = "0.033"
	// LocalIncomeTaxRate is applied to income tax, not to gross pay.
	LocalIncomeTaxRate = "0.1"

	DeductionFourInsurance   = "four_insurance"
	DeductionFlatWithholding = "flat_withholding"
)
