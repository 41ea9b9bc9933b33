package employee

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	cryptoutil "chancehr/internal/platform/crypto"
)

type Service struct {
	store  StoreAPI
	crypto *cryptoutil.Service
}

func NewService(store StoreAPI, crypto *cryptoutil.Service) *Service {
	return &Service{store: store, crypto: crypto}
}

func (s *Service) CreateWorkplace(ctx context.Context, w Workplace) (Workplace, error) {
	if strings.TrimSpace(w.Name) == "" {
		return Workplace{}, fmt.Errorf("%w: workplace name is required", ErrInvalidProfile)
	}
	if w.Latitude < -90 || w.Latitude > 90 || w.Longitude < -180 || w.Longitude > 180 {
		return Workplace{}, fmt.Errorf("%w: coordinate out of range", ErrInvalidProfile)
	}
	if w.RadiusMeters <= 0 {
		w.RadiusMeters = DefaultRadiusMeters
	}
	if w.Timezone == "" {
		w.Timezone = "Asia/Seoul"
	}
	id, err := s.store.CreateWorkplace(ctx, w)
	if err != nil {
		return Workplace{}, err
	}
	w.ID = id
	return w, nil
}

func (s *Service) Workplace(ctx context.Context, workplaceID string) (Workplace, error) {
	return s.store.GetWorkplace(ctx, workplaceID)
}

func (s *Service) Create(ctx context.Context, p Profile) (Profile, error) {
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	ssnEnc, err := s.crypto.EncryptString(p.SSN)
	if err != nil {
		return Profile{}, err
	}
	id, err := s.store.Create(ctx, p, ssnEnc)
	if err != nil {
		return Profile{}, err
	}
	p.ID = id
	return p, nil
}

// Update replaces the profile. An empty SSN leaves the stored value untouched.
func (s *Service) Update(ctx context.Context, p Profile) (Profile, error) {
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	ssnEnc, err := s.crypto.EncryptString(p.SSN)
	if err != nil {
		return Profile{}, err
	}
	if err := s.store.Update(ctx, p, ssnEnc); err != nil {
		return Profile{}, err
	}
	return s.Get(ctx, p.ID)
}

func (s *Service) Get(ctx context.Context, employeeID string) (Profile, error) {
	p, ssnEnc, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return Profile{}, err
	}
	ssn, err := s.crypto.DecryptString(ssnEnc)
	if err != nil {
		return Profile{}, fmt.Errorf("decrypt ssn: %w", err)
	}
	p.SSN = ssn
	return p, nil
}

func (s *Service) ListActive(ctx context.Context, workplaceID string) ([]Profile, error) {
	return s.store.ListActive(ctx, workplaceID)
}

// MaskSSN keeps the birth date and gender digit.
func MaskSSN(ssn string) string {
	if len(ssn) < 8 {
		return ""
	}
	return ssn[:8] + "******"
}

func applyDefaults(p *Profile) {
	if p.Dependents == 0 {
		p.Dependents = 1
	}
	if p.PeriodStartDay == 0 {
		p.PeriodStartDay = 1
	}
	if p.PayScheduleType == "" {
		p.PayScheduleType = PayFixedDay
	}
	if p.WeeklyHolidayType == "" {
		p.WeeklyHolidayType = WeeklyHolidayNone
	}
	if p.OvertimeRate.IsZero() {
		p.OvertimeRate = decimal.RequireFromString(DefaultOvertimeRate)
	}
}
