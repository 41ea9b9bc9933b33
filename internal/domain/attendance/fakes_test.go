package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/employee"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	seq     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]Record{}}
}

func recordKey(employeeID string, date time.Time) string {
	return employeeID + "/" + date.Format("2006-01-02")
}

func (m *memoryStore) GetByDate(_ context.Context, employeeID string, date time.Time) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey(employeeID, date)]
	return rec, ok, nil
}

func (m *memoryStore) InsertCheckIn(_ context.Context, rec Record) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(rec.EmployeeID, rec.WorkDate)
	if _, exists := m.records[key]; exists {
		return Record{}, false, nil
	}
	m.seq++
	rec.ID = fmt.Sprintf("rec-%d", m.seq)
	m.records[key] = rec
	return rec, true, nil
}

func (m *memoryStore) SetCheckIn(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(rec.EmployeeID, rec.WorkDate)
	if m.records[key].CheckInAt != nil {
		return ErrAlreadyCheckedIn
	}
	m.records[key] = rec
	return nil
}

func (m *memoryStore) SetCheckOut(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(rec.EmployeeID, rec.WorkDate)
	if m.records[key].CheckOutAt != nil {
		return ErrAlreadyCheckedOut
	}
	m.records[key] = rec
	return nil
}

func (m *memoryStore) Upsert(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(rec.EmployeeID, rec.WorkDate)
	if existing, ok := m.records[key]; ok {
		rec.ID = existing.ID
	} else {
		m.seq++
		rec.ID = fmt.Sprintf("rec-%d", m.seq)
	}
	m.records[key] = rec
	return rec, nil
}

func (m *memoryStore) ListRange(_ context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if rec, ok := m.records[recordKey(employeeID, day)]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type fakeProfiles struct {
	profiles   map[string]employee.Profile
	workplaces map[string]employee.Workplace
}

func (f fakeProfiles) Get(_ context.Context, id string) (employee.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return employee.Profile{}, employee.ErrEmployeeNotFound
	}
	return p, nil
}

func (f fakeProfiles) Workplace(_ context.Context, id string) (employee.Workplace, error) {
	w, ok := f.workplaces[id]
	if !ok {
		return employee.Workplace{}, employee.ErrWorkplaceNotFound
	}
	return w, nil
}

type captureAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureAudit) Record(_ context.Context, entry audit.Entry) error {
	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.mu.Unlock()
	return nil
}

type busyLocker struct{}

func (busyLocker) TryLock(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, nil
}

func (busyLocker) Release(context.Context, string, string) error { return nil }
