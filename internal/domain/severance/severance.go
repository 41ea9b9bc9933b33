package severance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/payroll"
)

var ErrInvalidAsOf = errors.New("as-of date precedes hire date")

const (
	SourceSlips       = "slips"
	SourcePastRecords = "past_records"
	SourceNone        = "none"

	baseMonths = 3
)

var daysPerYear = decimal.RequireFromString("365.25")

type Result struct {
	EmployeeID       string          `json:"employeeId"`
	HireDate         time.Time       `json:"hireDate"`
	AsOf             time.Time       `json:"asOf"`
	Eligible         bool            `json:"eligible"`
	BaseStart        time.Time       `json:"baseStart"`
	BaseEnd          time.Time       `json:"baseEnd"`
	BaseDays         int             `json:"baseDays"`
	BaseGross        int64           `json:"baseGross"`
	AverageDailyWage decimal.Decimal `json:"averageDailyWage"`
	ServiceDays      int             `json:"serviceDays"`
	YearsOfService   decimal.Decimal `json:"yearsOfService"`
	Amount           int64           `json:"amount"`
	Source           string          `json:"source"`
}

// BasePeriod is the three completed calendar months before asOf's month.
func BasePeriod(asOf time.Time) (start, end time.Time, months []string) {
	first := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	start = first.AddDate(0, -baseMonths, 0)
	end = first.AddDate(0, 0, -1)
	for m := start; m.Before(first); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(payroll.MonthLayout))
	}
	return start, end, months
}

// Calculate applies the statutory formula: average daily wage over the base period x 30 days per year
// of service. Less than one year of service yields an ineligible zero result.
func Calculate(hireDate, asOf time.Time, baseGross int64) Result {
	hire := employee.DateOf(hireDate)
	asOf = employee.DateOf(asOf)
	start, end, _ := BasePeriod(asOf)
	days := int(end.Sub(start).Hours()/24) + 1
	serviceDays := int(asOf.Sub(hire).Hours() / 24)

	res := Result{
		HireDate:         hire,
		AsOf:             asOf,
		BaseStart:        start,
		BaseEnd:          end,
		BaseDays:         days,
		BaseGross:        baseGross,
		AverageDailyWage: decimal.Zero,
		ServiceDays:      serviceDays,
		YearsOfService:   decimal.NewFromInt(int64(serviceDays)).Div(daysPerYear).Round(4),
		Source:           SourceNone,
	}
	if asOf.Before(hire.AddDate(1, 0, 0)) {
		return res
	}
	res.Eligible = true

	avg := decimal.NewFromInt(baseGross).Div(decimal.NewFromInt(int64(days)))
	res.AverageDailyWage = avg.Round(2)
	res.Amount = avg.Mul(decimal.NewFromInt(30)).
		Mul(decimal.NewFromInt(int64(serviceDays))).
		Div(daysPerYear).
		Round(0).IntPart()
	return res
}

type Profiles interface {
	Get(ctx context.Context, employeeID string) (employee.Profile, error)
}

// History is satisfied by *payroll.Service.
type History interface {
	ListEmployeeSlips(ctx context.Context, employeeID string, months []string) ([]payroll.Slip, error)
	ListPastRecords(ctx context.Context, employeeID string) ([]payroll.PastRecord, error)
}

type Service struct {
	profiles Profiles
	history  History
}

func NewService(profiles Profiles, history History) *Service {
	return &Service{profiles: profiles, history: history}
}

// Compute estimates severance as of asOf, or as of the resignation date when that is earlier. Slip
// gross pay is used when any slip exists in the base period; otherwise past payroll records are
// prorated by their overlap with it.
func (s *Service) Compute(ctx context.Context, employeeID string, asOf time.Time) (Result, error) {
	profile, err := s.profiles.Get(ctx, employeeID)
	if err != nil {
		return Result{}, err
	}
	asOf = employee.DateOf(asOf)
	if profile.ResignationDate != nil && profile.ResignationDate.Before(asOf) {
		asOf = employee.DateOf(*profile.ResignationDate)
	}
	if asOf.Before(employee.DateOf(profile.HireDate)) {
		return Result{}, ErrInvalidAsOf
	}

	start, end, months := BasePeriod(asOf)
	gross, source, err := s.baseGross(ctx, employeeID, start, end, months)
	if err != nil {
		return Result{}, err
	}
	res := Calculate(profile.HireDate, asOf, gross)
	res.EmployeeID = employeeID
	res.Source = source
	return res, nil
}

func (s *Service) baseGross(ctx context.Context, employeeID string, start, end time.Time, months []string) (int64, string, error) {
	slips, err := s.history.ListEmployeeSlips(ctx, employeeID, months)
	if err != nil {
		return 0, "", fmt.Errorf("load slips: %w", err)
	}
	if len(slips) > 0 {
		var total int64
		for _, slip := range slips {
			total += slip.GrossPay
		}
		return total, SourceSlips, nil
	}

	records, err := s.history.ListPastRecords(ctx, employeeID)
	if err != nil {
		return 0, "", fmt.Errorf("load past payroll: %w", err)
	}
	total := decimal.Zero
	found := false
	for _, record := range records {
		overlap := overlapDays(record.StartDate, record.EndDate, start, end)
		if overlap == 0 {
			continue
		}
		found = true
		span := overlapDays(record.StartDate, record.EndDate, record.StartDate, record.EndDate)
		total = total.Add(decimal.NewFromInt(record.Amount).
			Mul(decimal.NewFromInt(int64(overlap))).
			Div(decimal.NewFromInt(int64(span))))
	}
	if !found {
		return 0, SourceNone, nil
	}
	return total.Round(0).IntPart(), SourcePastRecords, nil
}

// overlapDays counts calendar days shared by two inclusive ranges.
func overlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	from, to := employee.DateOf(aStart), employee.DateOf(aEnd)
	if b := employee.DateOf(bStart); b.After(from) {
		from = b
	}
	if b := employee.DateOf(bEnd); b.Before(to) {
		to = b
	}
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}
