package worktime

import (
	"context"
	"time"

	"chancehr/internal/domain/attendance"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/holiday"
)

type Profiles interface {
	Get(ctx context.Context, employeeID string) (employee.Profile, error)
}

type Records interface {
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error)
}

type Service struct {
	profiles Profiles
	records  Records
	calendar *holiday.Calendar
	now      func() time.Time
}

func NewService(profiles Profiles, records Records, calendar *holiday.Calendar) *Service {
	return &Service{profiles: profiles, records: records, calendar: calendar, now: time.Now}
}

func (s *Service) Aggregate(ctx context.Context, employeeID string, start, end time.Time) (Summary, error) {
	profile, err := s.profiles.Get(ctx, employeeID)
	if err != nil {
		return Summary{}, err
	}
	return s.AggregateProfile(ctx, profile, start, end)
}

func (s *Service) AggregateProfile(ctx context.Context, profile employee.Profile, start, end time.Time) (Summary, error) {
	records, err := s.records.ListRange(ctx, profile.ID, employee.DateOf(start), employee.DateOf(end))
	if err != nil {
		return Summary{}, err
	}
	return Aggregate(profile, records, s.calendar, start, end, s.now()), nil
}
