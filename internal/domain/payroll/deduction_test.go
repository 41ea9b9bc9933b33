package payroll

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/taxtable"
)

func builtinTables(t *testing.T) *taxtable.Service {
	t.Helper()
	tables := taxtable.NewService(nil)
	require.NoError(t, tables.LoadBuiltin(context.Background()))
	return tables
}

func TestComputeDeductionsFourInsurance(t *testing.T) {
	engine := NewDeductionEngine(builtinTables(t))

	result, err := engine.ComputeDeductions(context.Background(), 3_000_000, employee.TaxFourInsurance, 1, 2026)
	require.NoError(t, err)

	four, ok := result.(FourInsurance)
	require.True(t, ok, "expected four-insurance result, got %T", result)
	assert.Equal(t, int64(142_500), four.NationalPension)
	assert.Equal(t, int64(107_850), four.HealthInsurance)
	assert.Equal(t, int64(14_171), four.LongTermCare)
	assert.Equal(t, int64(27_000), four.EmploymentInsurance)
	assert.Equal(t, int64(85_220), four.IncomeTax)
	assert.Equal(t, four.IncomeTax/10, four.LocalIncomeTax)
	assert.Equal(t, int64(385_263), result.Total())
	assert.Equal(t, int64(2_614_737), result.Net(3_000_000))

	assert.Equal(t, four.NationalPension, four.Employer.NationalPension)
	assert.Equal(t, four.HealthInsurance, four.Employer.HealthInsurance)
	assert.Equal(t, four.LongTermCare, four.Employer.LongTermCare)
	assert.Equal(t, int64(34_500), four.Employer.EmploymentInsurance)
}

func TestComputeDeductionsWithholding(t *testing.T) {
	engine := NewDeductionEngine(builtinTables(t))

	for _, classification := range []string{employee.TaxWithholding33, employee.TaxDaily} {
		result, err := engine.ComputeDeductions(context.Background(), 2_000_000, classification, 1, 2026)
		require.NoError(t, err)
		assert.Equal(t, FlatWithholding{Amount: 66_000}, result)
		assert.Equal(t, int64(1_934_000), result.Net(2_000_000))
	}
}

func TestComputeDeductionsMissingYear(t *testing.T) {
	engine := NewDeductionEngine(builtinTables(t))

	_, err := engine.ComputeDeductions(context.Background(), 3_000_000, employee.TaxFourInsurance, 1, 2019)
	assert.ErrorIs(t, err, taxtable.ErrTaxTableNotFound)

	// 2025 has rates but no withholding table.
	_, err = engine.ComputeDeductions(context.Background(), 3_000_000, employee.TaxFourInsurance, 1, 2025)
	assert.ErrorIs(t, err, taxtable.ErrTaxTableNotFound)
}

func TestComputeDeductionsRejectsUnknownClassification(t *testing.T) {
	engine := NewDeductionEngine(builtinTables(t))
	_, err := engine.ComputeDeductions(context.Background(), 1_000_000, "cash", 1, 2026)
	assert.ErrorIs(t, err, employee.ErrInvalidProfile)
}

func TestComputeFourInsurancePensionClamp(t *testing.T) {
	rates := taxtable.Rates{
		Year:             2026,
		PensionRate:      decimal.RequireFromString("0.0475"),
		PensionFloor:     400_000,
		PensionCeiling:   6_370_000,
		HealthRate:       decimal.RequireFromString("0.03595"),
		LongTermCareRate: decimal.RequireFromString("0.1314"),
		EmploymentRate:   decimal.RequireFromString("0.009"),
	}

	low := ComputeFourInsurance(300_000, rates, 0)
	assert.Equal(t, int64(19_000), low.NationalPension)

	high := ComputeFourInsurance(10_000_000, rates, 0)
	assert.Equal(t, int64(302_575), high.NationalPension)

	zero := ComputeFourInsurance(0, rates, 0)
	assert.Zero(t, zero.Total())
}

func TestComputeWithholdingRounds(t *testing.T) {
	// 15,150 x 0.033 = 499.95
	assert.Equal(t, int64(500), ComputeWithholding(15_150).Amount)
	assert.Equal(t, int64(0), ComputeWithholding(0).Amount)
}

func TestDefaultDeductions(t *testing.T) {
	assert.Equal(t, FourInsurance{}, DefaultDeductions(3_000_000, employee.TaxFourInsurance))
	assert.Equal(t, FlatWithholding{Amount: 66_000}, DefaultDeductions(2_000_000, employee.TaxWithholding33))
}
