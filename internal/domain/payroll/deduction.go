package payroll

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/taxtable"
)

// DeductionResult is either FourInsurance or FlatWithholding.
type DeductionResult interface {
	Kind() string
	Total() int64
	Net(gross int64) int64
	apply(slip *Slip)
}

// EmployerBurden is the employer's matching contribution; it never reduces net pay.
type EmployerBurden struct {
	NationalPension     int64 `json:"nationalPension"`
	HealthInsurance     int64 `json:"healthInsurance"`
	LongTermCare        int64 `json:"longTermCare"`
	EmploymentInsurance int64 `json:"employmentInsurance"`
}

func (e EmployerBurden) Total() int64 {
	return e.NationalPension + e.HealthInsurance + e.LongTermCare + e.EmploymentInsurance
}

type FourInsurance struct {
	NationalPension     int64          `json:"nationalPension"`
	HealthInsurance     int64          `json:"healthInsurance"`
	LongTermCare        int64          `json:"longTermCare"`
	EmploymentInsurance int64          `json:"employmentInsurance"`
	IncomeTax           int64          `json:"incomeTax"`
	LocalIncomeTax      int64          `json:"localIncomeTax"`
	Employer            EmployerBurden `json:"employer"`
}

func (FourInsurance) Kind() string { return DeductionFourInsurance }

func (f FourInsurance) Total() int64 {
	return f.NationalPension + f.HealthInsurance + f.LongTermCare + f.EmploymentInsurance + f.IncomeTax + f.LocalIncomeTax
}

func (f FourInsurance) Net(gross int64) int64 { return gross - f.Total() }

func (f FourInsurance) apply(slip *Slip) {
	slip.NationalPension = f.NationalPension
	slip.HealthInsurance = f.HealthInsurance
	slip.LongTermCare = f.LongTermCare
	slip.EmploymentInsurance = f.EmploymentInsurance
	slip.IncomeTax = f.IncomeTax
	slip.LocalIncomeTax = f.LocalIncomeTax
	slip.Withholding = 0
	slip.EmployerNationalPension = f.Employer.NationalPension
	slip.EmployerHealthInsurance = f.Employer.HealthInsurance
	slip.EmployerLongTermCare = f.Employer.LongTermCare
	slip.EmployerEmploymentInsurance = f.Employer.EmploymentInsurance
}

func (f FourInsurance) MarshalJSON() ([]byte, error) {
	type alias FourInsurance
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
		Total int64 `json:"total"`
	}{Kind: f.Kind(), alias: alias(f), Total: f.Total()})
}

type FlatWithholding struct {
	Amount int64 `json:"amount"`
}

func (FlatWithholding) Kind() string { return DeductionFlatWithholding }

func (w FlatWithholding) Total() int64 { return w.Amount }

func (w FlatWithholding) Net(gross int64) int64 { return gross - w.Amount }

func (w FlatWithholding) apply(slip *Slip) {
	slip.NationalPension = 0
	slip.HealthInsurance = 0
	slip.LongTermCare = 0
	slip.EmploymentInsurance = 0
	slip.IncomeTax = 0
	slip.LocalIncomeTax = 0
	slip.Withholding = w.Amount
	slip.EmployerNationalPension = 0
	slip.EmployerHealthInsurance = 0
	slip.EmployerLongTermCare = 0
	slip.EmployerEmploymentInsurance = 0
}

func (w FlatWithholding) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string `json:"kind"`
		Amount int64  `json:"amount"`
		Total  int64  `json:"total"`
	}{Kind: w.Kind(), Amount: w.Amount, Total: w.Amount})
}

// ComputeWithholding is round(gross x 3.3%).
func ComputeWithholding(gross int64) FlatWithholding {
	amount := decimal.NewFromInt(gross).Mul(decimal.RequireFromString(WithholdingRate)).Round(0).IntPart()
	return FlatWithholding{Amount: amount}
}

// ComputeFourInsurance applies the year's rates. Insurance lines are truncated to whole won and the
// pension base is clamped to the statutory floor and ceiling.
func ComputeFourInsurance(gross int64, rates taxtable.Rates, incomeTax int64) FourInsurance {
	g := decimal.NewFromInt(gross)

	pensionBase := gross
	if pensionBase < rates.PensionFloor {
		pensionBase = rates.PensionFloor
	}
	if rates.PensionCeiling > 0 && pensionBase > rates.PensionCeiling {
		pensionBase = rates.PensionCeiling
	}
	if gross <= 0 {
		pensionBase = 0
	}

	pension := decimal.NewFromInt(pensionBase).Mul(rates.PensionRate).Floor().IntPart()
	health := g.Mul(rates.HealthRate).Floor().IntPart()
	ltc := decimal.NewFromInt(health).Mul(rates.LongTermCareRate).Floor().IntPart()
	employment := g.Mul(rates.EmploymentRate).Floor().IntPart()
	local := decimal.NewFromInt(incomeTax).Mul(decimal.RequireFromString(LocalIncomeTaxRate)).Floor().IntPart()

	return FourInsurance{
		NationalPension:     pension,
		HealthInsurance:     health,
		LongTermCare:        ltc,
		EmploymentInsurance: employment,
		IncomeTax:           incomeTax,
		LocalIncomeTax:      local,
		Employer: EmployerBurden{
			NationalPension:     pension,
			HealthInsurance:     health,
			LongTermCare:        ltc,
			EmploymentInsurance: g.Mul(rates.EmployerEmploymentRate).Floor().IntPart(),
		},
	}
}

// TaxTables is satisfied by *taxtable.Service.
type TaxTables interface {
	Lookup(ctx context.Context, year int, gross int64, dependents int) (int64, error)
	Rates(ctx context.Context, year int) (taxtable.Rates, error)
}

type DeductionEngine struct {
	tables TaxTables
}

func NewDeductionEngine(tables TaxTables) *DeductionEngine {
	return &DeductionEngine{tables: tables}
}

// ComputeDeductions fails with taxtable.ErrTaxTableNotFound when the year has no table; no other
// year is substituted.
func (e *DeductionEngine) ComputeDeductions(ctx context.Context, gross int64, classification string, dependents, year int) (DeductionResult, error) {
	if gross < 0 {
		return nil, ErrInvalidAmount
	}
	switch classification {
	case employee.TaxWithholding33, employee.TaxDaily:
		return ComputeWithholding(gross), nil
	case employee.TaxFourInsurance:
		rates, err := e.tables.Rates(ctx, year)
		if err != nil {
			return nil, err
		}
		incomeTax, err := e.tables.Lookup(ctx, year, gross, dependents)
		if err != nil {
			return nil, err
		}
		return ComputeFourInsurance(gross, rates, incomeTax), nil
	default:
		return nil, fmt.Errorf("%w: tax type %q", employee.ErrInvalidProfile, classification)
	}
}

// DefaultDeductions is what batch generation writes: four-insurance lines are left for the owner,
// flat withholding is always computed.
func DefaultDeductions(gross int64, classification string) DeductionResult {
	switch classification {
	case employee.TaxWithholding33, employee.TaxDaily:
		return ComputeWithholding(gross)
	default:
		return FourInsurance{}
	}
}
