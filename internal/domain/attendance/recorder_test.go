package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/holiday"
)

var kst = time.FixedZone("KST", 9*3600)

type harness struct {
	store    *memoryStore
	qr       *QRService
	audit    *captureAudit
	recorder *Recorder
	now      time.Time
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store: newMemoryStore(),
		qr:    NewQRService(NewMemoryTokenStore(), 5*time.Minute),
		audit: &captureAudit{},
		now:   time.Date(2026, 3, 2, 9, 5, 0, 0, kst),
	}
	profiles := fakeProfiles{
		profiles: map[string]employee.Profile{
			"emp-1": {
				ID:             "emp-1",
				WorkplaceID:    "wp-1",
				Active:         true,
				WorkDays:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
				ScheduledStart: "09:00",
				ScheduledEnd:   "18:00",
				HireDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			"emp-gone": {ID: "emp-gone", WorkplaceID: "wp-1"},
		},
		workplaces: map[string]employee.Workplace{
			"wp-1": {ID: "wp-1", Latitude: seoulCityHall.Latitude, Longitude: seoulCityHall.Longitude, RadiusMeters: 100, Timezone: "Asia/Seoul"},
		},
	}
	all := append([]Option{WithAudit(h.audit), WithClock(func() time.Time { return h.now })}, opts...)
	h.recorder = NewRecorder(h.store, profiles, h.qr, holiday.Default(), Config{LateGrace: 10 * time.Minute}, all...)
	return h
}

func geofenceRequest(employeeID string) CheckRequest {
	return CheckRequest{EmployeeID: employeeID, Method: MethodGeofence, Location: locationAt(seoulCityHall)}
}

func TestCheckInCreatesRecordOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec, err := h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), rec.WorkDate)
	assert.Equal(t, StatusCheckedIn, rec.Status())
	require.NotNil(t, rec.CheckInCoord)

	_, err = h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.Equal(t, 1, h.store.count())
}

func TestWorkDateFollowsWorkplaceTimezone(t *testing.T) {
	h := newHarness(t)
	// 23:30 UTC on March 1 is already March 2 in Seoul.
	h.now = time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

	rec, err := h.recorder.CheckIn(context.Background(), geofenceRequest("emp-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.WorkDate.Day())
}

func TestConcurrentCheckInsProduceOneRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, conflicts := 0, 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, ErrAlreadyCheckedIn) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, h.store.count())
}

func TestCheckInRejectsOutsideGeofence(t *testing.T) {
	h := newHarness(t)
	far := Coordinate{Latitude: seoulCityHall.Latitude + 0.01, Longitude: seoulCityHall.Longitude}
	_, err := h.recorder.CheckIn(context.Background(), CheckRequest{EmployeeID: "emp-1", Method: MethodGeofence, Location: locationAt(far)})
	assert.ErrorIs(t, err, ErrOutsideGeofence)
	assert.Zero(t, h.store.count())
}

func TestCheckInRejectsInactiveAndManual(t *testing.T) {
	h := newHarness(t)
	_, err := h.recorder.CheckIn(context.Background(), geofenceRequest("emp-gone"))
	assert.ErrorIs(t, err, ErrEmployeeInactive)

	_, err = h.recorder.CheckIn(context.Background(), CheckRequest{EmployeeID: "emp-1", Method: MethodManual})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestQRCheckInAfterRegeneration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	old, err := h.qr.Issue(ctx, "wp-1", DirectionIn)
	require.NoError(t, err)
	fresh, err := h.qr.Issue(ctx, "wp-1", DirectionIn)
	require.NoError(t, err)

	_, err = h.recorder.CheckIn(ctx, CheckRequest{EmployeeID: "emp-1", Method: MethodQR, QRPayload: old.Payload()})
	assert.ErrorIs(t, err, ErrInvalidQRToken)

	_, err = h.recorder.CheckIn(ctx, CheckRequest{EmployeeID: "emp-1", Method: MethodQR, QRPayload: "CHANCEHR|wp-other|" + fresh.Token})
	assert.ErrorIs(t, err, ErrInvalidQRToken)

	rec, err := h.recorder.CheckIn(ctx, CheckRequest{EmployeeID: "emp-1", Method: MethodQR, QRPayload: fresh.Payload()})
	require.NoError(t, err)
	assert.Equal(t, MethodQR, rec.CheckInMethod)
}

func TestCheckOutFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.recorder.CheckOut(ctx, geofenceRequest("emp-1"))
	assert.ErrorIs(t, err, ErrNotCheckedIn)

	_, err = h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)

	h.now = h.now.Add(8*time.Hour + 30*time.Minute)
	rec, err := h.recorder.CheckOut(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status())
	assert.InDelta(t, 8.5, rec.WorkHours(), 1e-9)

	_, err = h.recorder.CheckOut(ctx, geofenceRequest("emp-1"))
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestCheckOutAcrossMidnight(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.now = time.Date(2026, 3, 2, 22, 0, 0, 0, kst)

	_, err := h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)

	h.now = time.Date(2026, 3, 3, 6, 0, 0, 0, kst)
	rec, err := h.recorder.CheckOut(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.WorkDate.Day())
	assert.InDelta(t, 8.0, rec.WorkHours(), 1e-9)
}

func TestDistributedLockBusy(t *testing.T) {
	h := newHarness(t, WithLocker(busyLocker{}))
	_, err := h.recorder.CheckIn(context.Background(), geofenceRequest("emp-1"))
	assert.ErrorIs(t, err, ErrDayLocked)
}

func TestCorrectUpsertsAndAudits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)

	in := time.Date(2026, 3, 2, 9, 0, 0, 0, kst)
	out := time.Date(2026, 3, 2, 18, 0, 0, 0, kst)
	rec, err := h.recorder.Correct(ctx, Correction{
		EmployeeID: "emp-1",
		WorkDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		CheckInAt:  &in,
		CheckOutAt: &out,
		ActorID:    "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.store.count())
	assert.Equal(t, MethodManual, rec.CheckOutMethod)
	assert.Equal(t, "owner-1", rec.CorrectedBy)
	assert.InDelta(t, 9.0, rec.WorkHours(), 1e-9)

	require.Len(t, h.audit.entries, 1)
	assert.NotNil(t, h.audit.entries[0].Before)
}

func TestCorrectKeepsUntouchedFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	checkedIn, err := h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)
	require.NotNil(t, checkedIn.CheckInCoord)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	out := time.Date(2026, 3, 2, 18, 0, 0, 0, kst)
	rec, err := h.recorder.Correct(ctx, Correction{EmployeeID: "emp-1", WorkDate: day, CheckOutAt: &out, ActorID: "owner-1"})
	require.NoError(t, err)
	require.NotNil(t, rec.CheckInAt)
	assert.True(t, rec.CheckInAt.Equal(*checkedIn.CheckInAt))
	assert.Equal(t, checkedIn.CheckInCoord, rec.CheckInCoord)
	assert.Equal(t, MethodGeofence, rec.CheckInMethod)
	assert.Equal(t, MethodManual, rec.CheckOutMethod)
	assert.Nil(t, rec.CheckOutCoord)

	rec, err = h.recorder.Correct(ctx, Correction{EmployeeID: "emp-1", WorkDate: day, LeaveType: LeavePaid, ActorID: "owner-1"})
	require.NoError(t, err)
	assert.Equal(t, LeavePaid, rec.LeaveType)
	assert.Equal(t, checkedIn.CheckInCoord, rec.CheckInCoord)
	assert.Equal(t, MethodGeofence, rec.CheckInMethod)
	require.NotNil(t, rec.CheckOutAt)
	assert.True(t, rec.CheckOutAt.Equal(out))
	assert.Equal(t, 1, h.store.count())

	early := time.Date(2026, 3, 2, 8, 0, 0, 0, kst)
	_, err = h.recorder.Correct(ctx, Correction{EmployeeID: "emp-1", WorkDate: day, CheckOutAt: &early})
	assert.ErrorIs(t, err, ErrInvalidCorrection)
}

func TestCorrectValidation(t *testing.T) {
	h := newHarness(t)
	in := time.Date(2026, 3, 2, 18, 0, 0, 0, kst)
	out := in.Add(-time.Hour)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := h.recorder.Correct(context.Background(), Correction{EmployeeID: "emp-1", WorkDate: day, CheckInAt: &in, CheckOutAt: &out})
	assert.ErrorIs(t, err, ErrInvalidCorrection)

	_, err = h.recorder.Correct(context.Background(), Correction{EmployeeID: "emp-1", WorkDate: day, LeaveType: "sabbatical"})
	assert.ErrorIs(t, err, ErrInvalidCorrection)

	_, err = h.recorder.Correct(context.Background(), Correction{EmployeeID: "emp-1", WorkDate: day, CheckOutAt: &out})
	assert.ErrorIs(t, err, ErrInvalidCorrection)
}

func TestDaysDerivesAbsenceAndLateness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Monday 09:05 is within grace.
	_, err := h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)

	// Tuesday 09:20 is late.
	h.now = time.Date(2026, 3, 3, 9, 20, 0, 0, kst)
	_, err = h.recorder.CheckIn(ctx, geofenceRequest("emp-1"))
	require.NoError(t, err)

	h.now = time.Date(2026, 3, 5, 12, 0, 0, 0, kst)
	_, err = h.recorder.Correct(ctx, Correction{EmployeeID: "emp-1", WorkDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), LeaveType: LeaveAnnual})
	require.NoError(t, err)

	days, err := h.recorder.Days(ctx, "emp-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, days, 7)

	assert.Equal(t, StatusNotScheduled, days[0].Status, "sunday")
	assert.Equal(t, StatusCheckedIn, days[1].Status)
	assert.False(t, days[1].Late)
	assert.True(t, days[2].Late)
	assert.Equal(t, StatusAbsent, days[3].Status, "wednesday with no record")
	assert.Equal(t, StatusOnLeave, days[4].Status)
	assert.Equal(t, StatusNotScheduled, days[5].Status, "friday is in the future")
}

func TestWorkHoursNeverNegative(t *testing.T) {
	in := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	out := in.Add(-time.Hour)
	assert.Zero(t, Record{CheckInAt: &in, CheckOutAt: &out}.WorkHours())
	assert.Zero(t, Record{CheckInAt: &in}.WorkHours())
}
