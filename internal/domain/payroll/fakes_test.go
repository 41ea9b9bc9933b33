package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/worktime"
)

type memoryStore struct {
	mu     sync.Mutex
	seq    int
	slips  map[string]Slip
	past   map[string]PastRecord
	failOn map[string]error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{slips: map[string]Slip{}, past: map[string]PastRecord{}, failOn: map[string]error{}}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryStore) InsertSlip(_ context.Context, slip Slip) (Slip, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[slip.EmployeeID]; err != nil {
		return Slip{}, false, err
	}
	return m.insertLocked(slip)
}

func (m *memoryStore) insertLocked(slip Slip) (Slip, bool, error) {
	for _, existing := range m.slips {
		if existing.EmployeeID == slip.EmployeeID && existing.PayrollMonth == slip.PayrollMonth {
			return Slip{}, false, nil
		}
	}
	slip.ID = m.nextID("slip")
	m.slips[slip.ID] = slip
	return slip, true, nil
}

func (m *memoryStore) GetSlip(_ context.Context, slipID string) (Slip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slip, ok := m.slips[slipID]
	if !ok {
		return Slip{}, ErrSlipNotFound
	}
	return slip, nil
}

func (m *memoryStore) FindSlip(_ context.Context, employeeID, month string) (Slip, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, slip := range m.slips {
		if slip.EmployeeID == employeeID && slip.PayrollMonth == month {
			return slip, true, nil
		}
	}
	return Slip{}, false, nil
}

func (m *memoryStore) ListSlips(_ context.Context, workplaceID, month string, publishedOnly bool) ([]Slip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slip
	for _, slip := range m.slips {
		if slip.WorkplaceID != workplaceID || slip.PayrollMonth != month {
			continue
		}
		if publishedOnly && !slip.Published {
			continue
		}
		out = append(out, slip)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeName < out[j].EmployeeName })
	return out, nil
}

func (m *memoryStore) ListEmployeeSlips(_ context.Context, employeeID string, months []string) ([]Slip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slip
	for _, slip := range m.slips {
		if slip.EmployeeID != employeeID {
			continue
		}
		if len(months) == 0 {
			out = append(out, slip)
			continue
		}
		for _, month := range months {
			if slip.PayrollMonth == month {
				out = append(out, slip)
			}
		}
	}
	return out, nil
}

func (m *memoryStore) UpdateSlipAmounts(_ context.Context, slip Slip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.slips[slip.ID]
	if !ok || current.Published {
		return ErrSlipPublished
	}
	slip.Published = current.Published
	m.slips[slip.ID] = slip
	return nil
}

func (m *memoryStore) SetPublished(_ context.Context, slipID string, published bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slip, ok := m.slips[slipID]
	if !ok || slip.Published == published {
		if published {
			return ErrSlipPublished
		}
		return ErrSlipNotPublished
	}
	slip.Published = published
	slip.PublishedAt = nil
	if published {
		slip.PublishedAt = &at
	}
	m.slips[slipID] = slip
	return nil
}

func (m *memoryStore) CreatePastRecord(_ context.Context, record PastRecord) (PastRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = m.nextID("past")
	m.past[record.ID] = record
	return record, nil
}

func (m *memoryStore) GetPastRecord(_ context.Context, recordID string) (PastRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.past[recordID]
	if !ok {
		return PastRecord{}, ErrPastRecordNotFound
	}
	return record, nil
}

func (m *memoryStore) ListPastRecords(_ context.Context, employeeID string) ([]PastRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PastRecord
	for _, record := range m.past {
		if record.EmployeeID == employeeID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *memoryStore) ConvertPastRecord(_ context.Context, recordID string, slip Slip) (Slip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.past[recordID]
	if !ok {
		return Slip{}, ErrPastRecordNotFound
	}
	if record.ConvertedSlipID != "" {
		return Slip{}, ErrPastRecordConverted
	}
	created, inserted, _ := m.insertLocked(slip)
	if !inserted {
		return Slip{}, ErrSlipExists
	}
	record.ConvertedSlipID = created.ID
	m.past[recordID] = record
	return created, nil
}

type fakeProfiles map[string]employee.Profile

func (f fakeProfiles) Get(_ context.Context, employeeID string) (employee.Profile, error) {
	p, ok := f[employeeID]
	if !ok {
		return employee.Profile{}, employee.ErrEmployeeNotFound
	}
	return p, nil
}

func (f fakeProfiles) ListActive(_ context.Context, workplaceID string) ([]employee.Profile, error) {
	var out []employee.Profile
	for _, p := range f {
		if p.WorkplaceID == workplaceID && p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fixedAggregator returns the same summary for every employee.
type fixedAggregator struct {
	summary worktime.Summary
}

func (f fixedAggregator) AggregateProfile(_ context.Context, profile employee.Profile, start, end time.Time) (worktime.Summary, error) {
	s := f.summary
	s.EmployeeID = profile.ID
	s.PeriodStart = start
	s.PeriodEnd = end
	return s, nil
}

type captureAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureAudit) Record(_ context.Context, entry audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureAudit) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Action)
	}
	return out
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func monthlyProfile(id string, amount int64) employee.Profile {
	return employee.Profile{
		ID:                id,
		WorkplaceID:       "wp-1",
		Name:              "Employee " + id,
		SalaryType:        employee.SalaryMonthly,
		BaseAmount:        amount,
		TaxType:           employee.TaxFourInsurance,
		Dependents:        1,
		PeriodStartDay:    1,
		PeriodEndDay:      0,
		PayScheduleType:   employee.PayFixedDay,
		PayDay:            10,
		WeeklyHolidayType: employee.WeeklyHolidayIncluded,
		WorkDays:          []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		ScheduledStart:    "09:00",
		ScheduledEnd:      "18:00",
		HireDate:          date(2024, time.January, 2),
		Active:            true,
	}
}
