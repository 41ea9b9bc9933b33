package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/worktime"
	"chancehr/internal/platform/logger"
	"chancehr/internal/platform/metrics"
)

// Profiles is satisfied by *employee.Service.
type Profiles interface {
	Get(ctx context.Context, employeeID string) (employee.Profile, error)
	ListActive(ctx context.Context, workplaceID string) ([]employee.Profile, error)
}

// Aggregator is satisfied by *worktime.Service.
type Aggregator interface {
	AggregateProfile(ctx context.Context, profile employee.Profile, start, end time.Time) (worktime.Summary, error)
}

type Service struct {
	store      StoreAPI
	profiles   Profiles
	aggregator Aggregator
	deductions *DeductionEngine
	archive    *Archive
	audit      audit.Recorder
	metrics    *metrics.Collector
	now        func() time.Time
}

type Option func(*Service)

func WithAudit(a audit.Recorder) Option {
	return func(s *Service) { s.audit = a }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// WithArchive stores an encrypted PDF copy of every slip when it is published.
func WithArchive(a *Archive) Option {
	return func(s *Service) { s.archive = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store StoreAPI, profiles Profiles, aggregator Aggregator, tables TaxTables, opts ...Option) *Service {
	s := &Service{
		store:      store,
		profiles:   profiles,
		aggregator: aggregator,
		deductions: NewDeductionEngine(tables),
		audit:      audit.Nop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeSlip previews the employee's slip for month with the full deduction engine. Nothing is stored.
func (s *Service) ComputeSlip(ctx context.Context, employeeID, month string) (Preview, error) {
	profile, err := s.profiles.Get(ctx, employeeID)
	if err != nil {
		return Preview{}, err
	}
	return s.compute(ctx, profile, month, func(p employee.Profile, gross GrossPay, year int) (DeductionResult, error) {
		return s.deductions.ComputeDeductions(ctx, gross.TotalGrossPay, p.TaxType, p.Dependents, year)
	})
}

type deductionFunc func(profile employee.Profile, gross GrossPay, year int) (DeductionResult, error)

func (s *Service) compute(ctx context.Context, profile employee.Profile, month string, deduct deductionFunc) (Preview, error) {
	monthStart, err := ParseMonth(month)
	if err != nil {
		return Preview{}, err
	}
	if err := profile.ReadyForPayroll(); err != nil {
		return Preview{}, err
	}

	period := PeriodFor(profile, monthStart)
	if days, _ := employedWithin(profile, period); days == 0 {
		return Preview{}, fmt.Errorf("%w: %s", ErrNotEmployed, month)
	}

	summary, err := s.aggregator.AggregateProfile(ctx, profile, period.Start, period.End)
	if err != nil {
		return Preview{}, fmt.Errorf("aggregate attendance: %w", err)
	}
	gross := ComputeGross(profile, summary, period)
	deductions, err := deduct(profile, gross, monthStart.Year())
	if err != nil {
		return Preview{}, err
	}
	slip, err := AssembleSlip(profile, monthStart.Format(MonthLayout), period, PayDate(profile, period.End), gross, deductions)
	if err != nil {
		return Preview{}, err
	}
	return Preview{Slip: slip, Gross: gross, Deductions: deductions}, nil
}

// CreateSlip stores a single slip computed with the full deduction engine.
func (s *Service) CreateSlip(ctx context.Context, employeeID, month, actorID string) (Slip, error) {
	preview, err := s.ComputeSlip(ctx, employeeID, month)
	if err != nil {
		return Slip{}, err
	}
	created, inserted, err := s.store.InsertSlip(ctx, preview.Slip)
	if err != nil {
		return Slip{}, err
	}
	if !inserted {
		return Slip{}, ErrSlipExists
	}
	s.record(ctx, created.WorkplaceID, actorID, audit.ActionSlipCreate, created.ID, nil, created)
	return created, nil
}

// GenerateForMonth creates missing slips for every active employee of the workplace. Existing slips
// are skipped and a failing employee does not stop the batch. Four-insurance lines are left at zero
// for the owner to fill; flat withholding is computed.
func (s *Service) GenerateForMonth(ctx context.Context, workplaceID, month, actorID string) (BatchResult, error) {
	monthStart, err := ParseMonth(month)
	if err != nil {
		return BatchResult{}, err
	}
	label := monthStart.Format(MonthLayout)
	profiles, err := s.profiles.ListActive(ctx, workplaceID)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{WorkplaceID: workplaceID, PayrollMonth: label}
	log := logger.FromContext(ctx)
	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		preview, err := s.compute(ctx, profile, label, func(p employee.Profile, gross GrossPay, _ int) (DeductionResult, error) {
			return DefaultDeductions(gross.TotalGrossPay, p.TaxType), nil
		})
		if errors.Is(err, ErrNotEmployed) {
			result.Skipped++
			continue
		}
		if err == nil {
			var inserted bool
			_, inserted, err = s.store.InsertSlip(ctx, preview.Slip)
			if err == nil && !inserted {
				result.Skipped++
				continue
			}
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", profile.Name, profile.ID, err))
			log.Warn("slip generation failed", zap.String("employee_id", profile.ID), zap.String("month", label), zap.Error(err))
			continue
		}
		result.Created++
	}

	s.metrics.SlipBatch(result.Created, result.Skipped, result.Failed)
	s.record(ctx, workplaceID, actorID, audit.ActionBatchGenerate, label, nil, result)
	log.Info("slip batch generated",
		zap.String("workplace_id", workplaceID),
		zap.String("month", label),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *Service) GetSlip(ctx context.Context, slipID string) (Slip, error) {
	return s.store.GetSlip(ctx, slipID)
}

func (s *Service) ListSlips(ctx context.Context, workplaceID, month string, publishedOnly bool) ([]Slip, error) {
	monthStart, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}
	return s.store.ListSlips(ctx, workplaceID, monthStart.Format(MonthLayout), publishedOnly)
}

// ListEmployeeSlips returns the employee's slips for the given YYYY-MM months, or all of them when
// months is empty.
func (s *Service) ListEmployeeSlips(ctx context.Context, employeeID string, months []string) ([]Slip, error) {
	return s.store.ListEmployeeSlips(ctx, employeeID, months)
}

// UpdateSlip applies an owner edit to an unpublished slip.
func (s *Service) UpdateSlip(ctx context.Context, slipID string, update SlipUpdate, actorID string) (Slip, error) {
	before, err := s.store.GetSlip(ctx, slipID)
	if err != nil {
		return Slip{}, err
	}
	if before.Published {
		return Slip{}, ErrSlipPublished
	}
	after := before
	if err := update.Apply(&after); err != nil {
		return Slip{}, err
	}
	if err := s.store.UpdateSlipAmounts(ctx, after); err != nil {
		return Slip{}, err
	}
	s.record(ctx, after.WorkplaceID, actorID, audit.ActionSlipUpdate, after.ID, before, after)
	return s.store.GetSlip(ctx, slipID)
}

func (s *Service) Publish(ctx context.Context, slipID, actorID string) (Slip, error) {
	if err := s.store.SetPublished(ctx, slipID, true, s.now().UTC()); err != nil {
		return Slip{}, s.publishError(ctx, slipID, err)
	}
	slip, err := s.store.GetSlip(ctx, slipID)
	if err != nil {
		return Slip{}, err
	}
	s.record(ctx, slip.WorkplaceID, actorID, audit.ActionSlipPublish, slip.ID, nil, slip)

	if s.archive != nil {
		if _, err := s.archive.Store(slip); err != nil {
			logger.FromContext(ctx).Warn("slip pdf not archived", zap.String("slip_id", slip.ID), zap.Error(err))
		}
	}
	return slip, nil
}

func (s *Service) Unpublish(ctx context.Context, slipID, actorID string) (Slip, error) {
	if err := s.store.SetPublished(ctx, slipID, false, time.Time{}); err != nil {
		return Slip{}, s.publishError(ctx, slipID, err)
	}
	slip, err := s.store.GetSlip(ctx, slipID)
	if err != nil {
		return Slip{}, err
	}
	s.record(ctx, slip.WorkplaceID, actorID, audit.ActionSlipUnpublish, slip.ID, nil, slip)
	return slip, nil
}

// publishError reports not-found rather than a state conflict when the slip does not exist.
func (s *Service) publishError(ctx context.Context, slipID string, err error) error {
	if !errors.Is(err, ErrSlipPublished) && !errors.Is(err, ErrSlipNotPublished) {
		return err
	}
	if _, getErr := s.store.GetSlip(ctx, slipID); getErr != nil {
		return getErr
	}
	return err
}

// RenderSlipPDF renders the slip as a PDF document.
func (s *Service) RenderSlipPDF(ctx context.Context, slipID string) ([]byte, Slip, error) {
	slip, err := s.store.GetSlip(ctx, slipID)
	if err != nil {
		return nil, Slip{}, err
	}
	pdf, err := RenderPDF(slip)
	return pdf, slip, err
}

func (s *Service) record(ctx context.Context, workplaceID, actorID, action, entityID string, before, after any) {
	entityType := "salary_slip"
	switch action {
	case audit.ActionBatchGenerate:
		entityType = "payroll_month"
	case audit.ActionPastRecordCreate, audit.ActionPastRecordConvert:
		entityType = "past_payroll_record"
	}
	if err := s.audit.Record(ctx, audit.Entry{
		WorkplaceID: workplaceID,
		ActorID:     actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Before:      before,
		After:       after,
	}); err != nil {
		logger.FromContext(ctx).Warn("payroll change not audited", zap.String("action", action), zap.String("entity_id", entityID), zap.Error(err))
	}
}
