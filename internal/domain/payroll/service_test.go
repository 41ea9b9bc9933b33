package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/taxtable"
	"chancehr/internal/domain/worktime"
)

var fixedNow = time.Date(2026, time.April, 5, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, profiles fakeProfiles, opts ...Option) (*Service, *memoryStore, *captureAudit) {
	t.Helper()
	store := newMemoryStore()
	recorder := &captureAudit{}
	agg := fixedAggregator{summary: worktime.Summary{ScheduledDays: 22, CompletedDays: 22, WorkedHours: 176}}
	opts = append([]Option{WithAudit(recorder), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(store, profiles, agg, builtinTables(t), opts...), store, recorder
}

func withholdingProfile(id string, amount int64) employee.Profile {
	p := monthlyProfile(id, amount)
	p.TaxType = employee.TaxWithholding33
	return p
}

func TestCreateSlipFourInsurance(t *testing.T) {
	svc, _, recorder := newTestService(t, fakeProfiles{"e1": monthlyProfile("e1", 3_000_000)})

	slip, err := svc.CreateSlip(context.Background(), "e1", "2026-03", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", slip.PayrollMonth)
	assert.Equal(t, date(2026, time.March, 1), slip.PeriodStart)
	assert.Equal(t, date(2026, time.March, 31), slip.PeriodEnd)
	assert.Equal(t, date(2026, time.April, 10), slip.PayDate)
	assert.Equal(t, int64(3_000_000), slip.GrossPay)
	assert.Equal(t, int64(85_220), slip.IncomeTax)
	assert.Equal(t, int64(8_522), slip.LocalIncomeTax)
	assert.Equal(t, int64(385_263), slip.TotalDeductions)
	assert.Equal(t, int64(2_614_737), slip.NetPay)
	assert.Equal(t, slip.GrossPay, slip.NetPay+slip.TotalDeductions)
	assert.Equal(t, []string{audit.ActionSlipCreate}, recorder.actions())

	_, err = svc.CreateSlip(context.Background(), "e1", "2026-03", "owner-1")
	assert.ErrorIs(t, err, ErrSlipExists)
}

func TestCreateSlipWithholding(t *testing.T) {
	svc, _, _ := newTestService(t, fakeProfiles{"e2": withholdingProfile("e2", 2_000_000)})

	slip, err := svc.CreateSlip(context.Background(), "e2", "2026-03", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(66_000), slip.Withholding)
	assert.Equal(t, int64(1_934_000), slip.NetPay)
	assert.Zero(t, slip.NationalPension)
}

func TestComputeSlipErrors(t *testing.T) {
	incomplete := monthlyProfile("e3", 0)
	svc, _, _ := newTestService(t, fakeProfiles{"e3": incomplete, "e1": monthlyProfile("e1", 3_000_000)})

	_, err := svc.ComputeSlip(context.Background(), "missing", "2026-03")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.ComputeSlip(context.Background(), "e1", "March")
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = svc.ComputeSlip(context.Background(), "e3", "2026-03")
	assert.ErrorIs(t, err, employee.ErrIncompleteProfile)

	_, err = svc.ComputeSlip(context.Background(), "e1", "2024-03")
	assert.ErrorIs(t, err, taxtable.ErrTaxTableNotFound)
}

func TestComputeSlipPreviewCarriesParts(t *testing.T) {
	svc, store, _ := newTestService(t, fakeProfiles{"e1": monthlyProfile("e1", 3_000_000)})

	preview, err := svc.ComputeSlip(context.Background(), "e1", "2026-03")
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000), preview.Gross.TotalGrossPay)
	assert.Equal(t, DeductionFourInsurance, preview.Deductions.Kind())
	assert.Equal(t, preview.Deductions.Total(), preview.Slip.TotalDeductions)
	assert.Empty(t, store.slips)
}

func TestGenerateForMonth(t *testing.T) {
	incomplete := monthlyProfile("e3", 0)
	inactive := monthlyProfile("e4", 1_000_000)
	inactive.Active = false
	future := monthlyProfile("e5", 2_500_000)
	future.HireDate = date(2026, time.April, 15)

	profiles := fakeProfiles{
		"e1": monthlyProfile("e1", 3_000_000),
		"e2": withholdingProfile("e2", 2_000_000),
		"e3": incomplete,
		"e4": inactive,
		"e5": future,
	}
	svc, store, recorder := newTestService(t, profiles)
	ctx := context.Background()

	result, err := svc.GenerateForMonth(ctx, "wp-1", "2026-03", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "e3")

	four, found, err := store.FindSlip(ctx, "e1", "2026-03")
	require.NoError(t, err)
	require.True(t, found)
	assert.Zero(t, four.TotalDeductions, "four-insurance lines are left for the owner")
	assert.Equal(t, four.GrossPay, four.NetPay)

	flat, found, err := store.FindSlip(ctx, "e2", "2026-03")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(66_000), flat.Withholding)

	again, err := svc.GenerateForMonth(ctx, "wp-1", "2026-03", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 3, again.Skipped)
	assert.Len(t, store.slips, 2)

	assert.Contains(t, recorder.actions(), audit.ActionBatchGenerate)
}

func TestGenerateForMonthContinuesAfterStoreFailure(t *testing.T) {
	svc, store, _ := newTestService(t, fakeProfiles{
		"e1": monthlyProfile("e1", 3_000_000),
		"e2": withholdingProfile("e2", 2_000_000),
	})
	store.failOn["e1"] = errors.New("connection reset")

	result, err := svc.GenerateForMonth(context.Background(), "wp-1", "2026-03", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors[0], "connection reset")
}

func TestGenerateForMonthInvalidMonth(t *testing.T) {
	svc, _, _ := newTestService(t, fakeProfiles{})
	_, err := svc.GenerateForMonth(context.Background(), "wp-1", "2026-3-1", "owner-1")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestUpdateSlipRebalances(t *testing.T) {
	svc, _, recorder := newTestService(t, fakeProfiles{"e1": monthlyProfile("e1", 3_000_000)})
	ctx := context.Background()
	_, err := svc.GenerateForMonth(ctx, "wp-1", "2026-03", "owner-1")
	require.NoError(t, err)
	slips, err := svc.ListSlips(ctx, "wp-1", "2026-03", false)
	require.NoError(t, err)
	require.Len(t, slips, 1)

	pension, tax, local := int64(142_500), int64(85_220), int64(8_522)
	updated, err := svc.UpdateSlip(ctx, slips[0].ID, SlipUpdate{NationalPension: &pension, IncomeTax: &tax, LocalIncomeTax: &local}, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(236_242), updated.TotalDeductions)
	assert.Equal(t, int64(2_763_758), updated.NetPay)
	assert.Equal(t, updated.GrossPay, updated.NetPay+updated.TotalDeductions)
	assert.Contains(t, recorder.actions(), audit.ActionSlipUpdate)

	huge := int64(5_000_000)
	_, err = svc.UpdateSlip(ctx, slips[0].ID, SlipUpdate{IncomeTax: &huge}, "owner-1")
	assert.ErrorIs(t, err, ErrNegativeNet)

	negative := int64(-1)
	_, err = svc.UpdateSlip(ctx, slips[0].ID, SlipUpdate{BasePay: &negative}, "owner-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestUpdateSlipIgnoresForeignLines(t *testing.T) {
	svc, _, _ := newTestService(t, fakeProfiles{"e2": withholdingProfile("e2", 2_000_000)})
	ctx := context.Background()
	slip, err := svc.CreateSlip(ctx, "e2", "2026-03", "owner-1")
	require.NoError(t, err)

	pension := int64(90_000)
	updated, err := svc.UpdateSlip(ctx, slip.ID, SlipUpdate{NationalPension: &pension}, "owner-1")
	require.NoError(t, err)
	assert.Zero(t, updated.NationalPension)
	assert.Equal(t, int64(66_000), updated.TotalDeductions)
}

func TestUpdateSlipRecomputesWithholding(t *testing.T) {
	svc, _, _ := newTestService(t, fakeProfiles{"e2": withholdingProfile("e2", 2_000_000)})
	ctx := context.Background()
	_, err := svc.GenerateForMonth(ctx, "wp-1", "2026-03", "owner-1")
	require.NoError(t, err)
	slips, err := svc.ListSlips(ctx, "wp-1", "2026-03", false)
	require.NoError(t, err)
	require.Len(t, slips, 1)
	require.Equal(t, int64(66_000), slips[0].Withholding)

	base := int64(3_000_000)
	updated, err := svc.UpdateSlip(ctx, slips[0].ID, SlipUpdate{BasePay: &base}, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000), updated.GrossPay)
	assert.Equal(t, int64(99_000), updated.Withholding)
	assert.Equal(t, int64(99_000), updated.TotalDeductions)
	assert.Equal(t, int64(2_901_000), updated.NetPay)
}

func TestPublishLifecycle(t *testing.T) {
	svc, _, recorder := newTestService(t, fakeProfiles{"e1": monthlyProfile("e1", 3_000_000)})
	ctx := context.Background()
	slip, err := svc.CreateSlip(ctx, "e1", "2026-03", "owner-1")
	require.NoError(t, err)

	published, err := svc.Publish(ctx, slip.ID, "owner-1")
	require.NoError(t, err)
	assert.True(t, published.Published)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, fixedNow, *published.PublishedAt)

	_, err = svc.Publish(ctx, slip.ID, "owner-1")
	assert.ErrorIs(t, err, ErrSlipPublished)

	base := int64(1)
	_, err = svc.UpdateSlip(ctx, slip.ID, SlipUpdate{BasePay: &base}, "owner-1")
	assert.ErrorIs(t, err, ErrSlipPublished)

	unpublished, err := svc.Unpublish(ctx, slip.ID, "owner-1")
	require.NoError(t, err)
	assert.False(t, unpublished.Published)
	assert.Nil(t, unpublished.PublishedAt)

	_, err = svc.Unpublish(ctx, slip.ID, "owner-1")
	assert.ErrorIs(t, err, ErrSlipNotPublished)

	_, err = svc.Publish(ctx, "slip-missing", "owner-1")
	assert.ErrorIs(t, err, ErrSlipNotFound)

	assert.Equal(t, []string{audit.ActionSlipCreate, audit.ActionSlipPublish, audit.ActionSlipUnpublish}, recorder.actions())
}

func TestPastRecordConversion(t *testing.T) {
	svc, _, _ := newTestService(t, fakeProfiles{"e2": withholdingProfile("e2", 2_000_000)})
	ctx := context.Background()

	_, err := svc.CreatePastRecord(ctx, PastRecord{
		EmployeeID: "e2", StartDate: date(2025, time.May, 1), EndDate: date(2025, time.April, 1),
		SalaryType: employee.SalaryMonthly, Amount: 1,
	}, "owner-1")
	assert.ErrorIs(t, err, ErrInvalidPastRecord)

	record, err := svc.CreatePastRecord(ctx, PastRecord{
		EmployeeID: "e2", StartDate: date(2025, time.December, 1), EndDate: date(2025, time.December, 31),
		SalaryType: employee.SalaryMonthly, Amount: 2_000_000, Notes: "paper ledger",
	}, "owner-1")
	require.NoError(t, err)

	records, err := svc.ListPastRecords(ctx, "e2")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	slip, err := svc.ConvertPastRecord(ctx, record.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-12", slip.PayrollMonth)
	assert.Equal(t, int64(2_000_000), slip.GrossPay)
	assert.Equal(t, int64(66_000), slip.Withholding)
	assert.Equal(t, date(2026, time.January, 10), slip.PayDate)

	_, err = svc.ConvertPastRecord(ctx, record.ID, "owner-1")
	assert.ErrorIs(t, err, ErrPastRecordConverted)

	overlapping, err := svc.CreatePastRecord(ctx, PastRecord{
		EmployeeID: "e2", StartDate: date(2025, time.December, 15), EndDate: date(2025, time.December, 20),
		SalaryType: employee.SalaryHourly, Amount: 300_000,
	}, "owner-1")
	require.NoError(t, err)
	_, err = svc.ConvertPastRecord(ctx, overlapping.ID, "owner-1")
	assert.ErrorIs(t, err, ErrSlipExists)

	_, err = svc.ConvertPastRecord(ctx, "past-missing", "owner-1")
	assert.ErrorIs(t, err, ErrPastRecordNotFound)
}
