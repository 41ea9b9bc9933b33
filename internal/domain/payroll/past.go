package payroll

import (
	"context"
	"fmt"
	"slices"

	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/employee"
)

func (r PastRecord) Validate() error {
	if r.EmployeeID == "" {
		return fmt.Errorf("%w: employee is required", ErrInvalidPastRecord)
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() || r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("%w: end date must not precede start date", ErrInvalidPastRecord)
	}
	if !slices.Contains(employee.SalaryTypes, r.SalaryType) {
		return fmt.Errorf("%w: salary type %q", ErrInvalidPastRecord, r.SalaryType)
	}
	if r.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidPastRecord)
	}
	return nil
}

func (s *Service) CreatePastRecord(ctx context.Context, record PastRecord, actorID string) (PastRecord, error) {
	record.StartDate = employee.DateOf(record.StartDate)
	record.EndDate = employee.DateOf(record.EndDate)
	if err := record.Validate(); err != nil {
		return PastRecord{}, err
	}
	profile, err := s.profiles.Get(ctx, record.EmployeeID)
	if err != nil {
		return PastRecord{}, err
	}
	created, err := s.store.CreatePastRecord(ctx, record)
	if err != nil {
		return PastRecord{}, err
	}
	s.record(ctx, profile.WorkplaceID, actorID, audit.ActionPastRecordCreate, created.ID, nil, created)
	return created, nil
}

func (s *Service) ListPastRecords(ctx context.Context, employeeID string) ([]PastRecord, error) {
	return s.store.ListPastRecords(ctx, employeeID)
}

// ConvertPastRecord turns a past record into a slip labelled by the month its period ends in. The
// amount becomes base pay and deductions follow the batch defaults.
func (s *Service) ConvertPastRecord(ctx context.Context, recordID, actorID string) (Slip, error) {
	record, err := s.store.GetPastRecord(ctx, recordID)
	if err != nil {
		return Slip{}, err
	}
	if record.ConvertedSlipID != "" {
		return Slip{}, ErrPastRecordConverted
	}
	profile, err := s.profiles.Get(ctx, record.EmployeeID)
	if err != nil {
		return Slip{}, err
	}

	month := record.EndDate.Format(MonthLayout)
	if _, found, err := s.store.FindSlip(ctx, profile.ID, month); err != nil {
		return Slip{}, err
	} else if found {
		return Slip{}, ErrSlipExists
	}

	period := Period{Start: record.StartDate, End: record.EndDate}
	gross := GrossPay{BaseSalaryAmount: record.Amount, TotalGrossPay: record.Amount}
	slip, err := AssembleSlip(profile, month, period, PayDate(profile, period.End), gross, DefaultDeductions(record.Amount, profile.TaxType))
	if err != nil {
		return Slip{}, err
	}
	created, err := s.store.ConvertPastRecord(ctx, recordID, slip)
	if err != nil {
		return Slip{}, err
	}
	s.record(ctx, profile.WorkplaceID, actorID, audit.ActionPastRecordConvert, record.ID, record, created)
	return created, nil
}

func (s *Service) GetPastRecord(ctx context.Context, recordID string) (PastRecord, error) {
	return s.store.GetPastRecord(ctx, recordID)
}
