package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/holiday"
	"chancehr/internal/platform/logger"
	"chancehr/internal/platform/metrics"
)

// Profiles resolves employees and their workplaces. *employee.Service satisfies it.
type Profiles interface {
	Get(ctx context.Context, employeeID string) (employee.Profile, error)
	Workplace(ctx context.Context, workplaceID string) (employee.Workplace, error)
}

type Config struct {
	LocationMaxAge time.Duration
	LateGrace      time.Duration
	DayLockTTL     time.Duration
}

type Recorder struct {
	store    StoreAPI
	profiles Profiles
	qr       *QRService
	calendar *holiday.Calendar
	audit    audit.Recorder
	metrics  *metrics.Collector
	locks    *keyedMutex
	distLock Locker
	cfg      Config
	now      func() time.Time
}

type Option func(*Recorder)

// WithLocker adds a cross-process lock around each employee-day update.
func WithLocker(l Locker) Option {
	return func(r *Recorder) { r.distLock = l }
}

func WithAudit(a audit.Recorder) Option {
	return func(r *Recorder) { r.audit = a }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(r *Recorder) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(store StoreAPI, profiles Profiles, qr *QRService, calendar *holiday.Calendar, cfg Config, opts ...Option) *Recorder {
	if cfg.LocationMaxAge <= 0 {
		cfg.LocationMaxAge = 2 * time.Minute
	}
	if cfg.DayLockTTL <= 0 {
		cfg.DayLockTTL = 10 * time.Second
	}
	r := &Recorder{
		store:    store,
		profiles: profiles,
		qr:       qr,
		calendar: calendar,
		audit:    audit.Nop{},
		locks:    newKeyedMutex(),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) CheckIn(ctx context.Context, req CheckRequest) (Record, error) {
	rec, err := r.checkIn(ctx, req)
	r.metrics.CheckEvent(DirectionIn, req.Method, outcome(err))
	return rec, err
}

func (r *Recorder) checkIn(ctx context.Context, req CheckRequest) (Record, error) {
	profile, workplace, err := r.resolve(ctx, req.EmployeeID)
	if err != nil {
		return Record{}, err
	}
	now := r.now()
	coord, err := r.verify(ctx, workplace, DirectionIn, req, now)
	if err != nil {
		return Record{}, err
	}

	workDate := employee.DateOf(now.In(workplace.Location()))
	unlock, err := r.lockDay(ctx, profile.ID, workDate)
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	checkedIn := now.UTC()
	existing, found, err := r.store.GetByDate(ctx, profile.ID, workDate)
	if err != nil {
		return Record{}, err
	}
	if found {
		if existing.CheckInAt != nil {
			return Record{}, ErrAlreadyCheckedIn
		}
		existing.CheckInAt = &checkedIn
		existing.CheckInCoord = coord
		existing.CheckInMethod = req.Method
		if err := r.store.SetCheckIn(ctx, existing); err != nil {
			return Record{}, err
		}
		return existing, nil
	}

	rec := Record{
		EmployeeID:    profile.ID,
		WorkplaceID:   workplace.ID,
		WorkDate:      workDate,
		CheckInAt:     &checkedIn,
		CheckInCoord:  coord,
		CheckInMethod: req.Method,
		LeaveType:     LeaveNone,
		IsHoliday:     r.calendar.IsHoliday(workDate),
	}
	created, inserted, err := r.store.InsertCheckIn(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	if !inserted {
		return Record{}, ErrAlreadyCheckedIn
	}
	return created, nil
}

func (r *Recorder) CheckOut(ctx context.Context, req CheckRequest) (Record, error) {
	rec, err := r.checkOut(ctx, req)
	r.metrics.CheckEvent(DirectionOut, req.Method, outcome(err))
	return rec, err
}

func (r *Recorder) checkOut(ctx context.Context, req CheckRequest) (Record, error) {
	profile, workplace, err := r.resolve(ctx, req.EmployeeID)
	if err != nil {
		return Record{}, err
	}
	now := r.now()
	coord, err := r.verify(ctx, workplace, DirectionOut, req, now)
	if err != nil {
		return Record{}, err
	}

	today := employee.DateOf(now.In(workplace.Location()))
	rec, err := r.openRecord(ctx, profile.ID, today)
	if err != nil {
		return Record{}, err
	}

	unlock, err := r.lockDay(ctx, profile.ID, rec.WorkDate)
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	// re-read under the lock
	rec, found, err := r.store.GetByDate(ctx, profile.ID, rec.WorkDate)
	if err != nil {
		return Record{}, err
	}
	if !found || rec.CheckInAt == nil {
		return Record{}, ErrNotCheckedIn
	}
	if rec.CheckOutAt != nil {
		return Record{}, ErrAlreadyCheckedOut
	}
	checkedOut := now.UTC()
	rec.CheckOutAt = &checkedOut
	rec.CheckOutCoord = coord
	rec.CheckOutMethod = req.Method
	if err := r.store.SetCheckOut(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// openRecord finds today's open record, or yesterday's when a shift crossed midnight.
func (r *Recorder) openRecord(ctx context.Context, employeeID string, today time.Time) (Record, error) {
	rec, found, err := r.store.GetByDate(ctx, employeeID, today)
	if err != nil {
		return Record{}, err
	}
	if found && rec.CheckInAt != nil {
		if rec.CheckOutAt != nil {
			return Record{}, ErrAlreadyCheckedOut
		}
		return rec, nil
	}

	prev, found, err := r.store.GetByDate(ctx, employeeID, today.AddDate(0, 0, -1))
	if err != nil {
		return Record{}, err
	}
	if found && prev.CheckInAt != nil && prev.CheckOutAt == nil && r.now().Sub(*prev.CheckInAt) < 24*time.Hour {
		return prev, nil
	}
	return Record{}, ErrNotCheckedIn
}

// Correct upserts the day's record on the owner's behalf. Both timestamps may be set directly.
// Fields the correction leaves empty keep their stored values; a changed timestamp becomes manual
// and loses the coordinate captured with the original event.
func (r *Recorder) Correct(ctx context.Context, c Correction) (Record, error) {
	if c.EmployeeID == "" || c.WorkDate.IsZero() {
		return Record{}, fmt.Errorf("%w: employee and date are required", ErrInvalidCorrection)
	}
	if c.LeaveType != "" && !validLeave(c.LeaveType) {
		return Record{}, fmt.Errorf("%w: leave type %q", ErrInvalidCorrection, c.LeaveType)
	}

	profile, err := r.profiles.Get(ctx, c.EmployeeID)
	if err != nil {
		return Record{}, err
	}
	workDate := employee.DateOf(c.WorkDate)
	unlock, err := r.lockDay(ctx, profile.ID, workDate)
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	before, found, err := r.store.GetByDate(ctx, profile.ID, workDate)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		EmployeeID:  profile.ID,
		WorkplaceID: profile.WorkplaceID,
		WorkDate:    workDate,
		LeaveType:   LeaveNone,
		IsHoliday:   r.calendar.IsHoliday(workDate),
	}
	if found {
		rec = before
	}
	if c.CheckInAt != nil && !sameInstant(rec.CheckInAt, c.CheckInAt) {
		rec.CheckInAt = utcPtr(c.CheckInAt)
		rec.CheckInCoord = nil
		rec.CheckInMethod = MethodManual
	}
	if c.CheckOutAt != nil && !sameInstant(rec.CheckOutAt, c.CheckOutAt) {
		rec.CheckOutAt = utcPtr(c.CheckOutAt)
		rec.CheckOutCoord = nil
		rec.CheckOutMethod = MethodManual
	}
	if c.LeaveType != "" {
		rec.LeaveType = c.LeaveType
	}
	rec.IsHoliday = rec.IsHoliday || c.IsHoliday
	rec.CorrectedBy = c.ActorID

	if rec.CheckOutAt != nil && rec.CheckInAt == nil {
		return Record{}, fmt.Errorf("%w: check-out without check-in", ErrInvalidCorrection)
	}
	if rec.CheckInAt != nil && rec.CheckOutAt != nil && rec.CheckOutAt.Before(*rec.CheckInAt) {
		return Record{}, fmt.Errorf("%w: check-out before check-in", ErrInvalidCorrection)
	}
	saved, err := r.store.Upsert(ctx, rec)
	if err != nil {
		return Record{}, err
	}

	var beforeValue any
	if found {
		beforeValue = before
	}
	if err := r.audit.Record(ctx, audit.Entry{
		WorkplaceID: profile.WorkplaceID,
		ActorID:     c.ActorID,
		Action:      audit.ActionAttendanceCorrect,
		EntityType:  "attendance_record",
		EntityID:    saved.ID,
		Before:      beforeValue,
		After:       saved,
	}); err != nil {
		logger.FromContext(ctx).Warn("attendance correction not audited", zap.String("record_id", saved.ID), zap.Error(err))
	}
	return saved, nil
}

func (r *Recorder) Records(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	return r.store.ListRange(ctx, employeeID, employee.DateOf(from), employee.DateOf(to))
}

// Days expands records into one view per calendar date, deriving absence on scheduled days.
func (r *Recorder) Days(ctx context.Context, employeeID string, from, to time.Time) ([]DayView, error) {
	profile, err := r.profiles.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	workplace, err := r.profiles.Workplace(ctx, profile.WorkplaceID)
	if err != nil {
		return nil, err
	}
	records, err := r.Records(ctx, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]Record, len(records))
	for _, rec := range records {
		byDate[rec.WorkDate.Format("2006-01-02")] = rec
	}

	loc := workplace.Location()
	today := employee.DateOf(r.now().In(loc))
	var out []DayView
	for day := employee.DateOf(from); !day.After(employee.DateOf(to)); day = day.AddDate(0, 0, 1) {
		view := DayView{Date: day}
		if rec, ok := byDate[day.Format("2006-01-02")]; ok {
			view.Record = &rec
			view.Hours = rec.WorkHours()
		}
		view.Status = DayStatus(view.Record, profile, r.calendar, day, today)
		if view.Record != nil {
			view.Late = IsLate(*view.Record, profile, loc, r.cfg.LateGrace)
		}
		out = append(out, view)
	}
	return out, nil
}

func (r *Recorder) resolve(ctx context.Context, employeeID string) (employee.Profile, employee.Workplace, error) {
	profile, err := r.profiles.Get(ctx, employeeID)
	if err != nil {
		return employee.Profile{}, employee.Workplace{}, err
	}
	if !profile.Active {
		return employee.Profile{}, employee.Workplace{}, ErrEmployeeInactive
	}
	workplace, err := r.profiles.Workplace(ctx, profile.WorkplaceID)
	if err != nil {
		return employee.Profile{}, employee.Workplace{}, err
	}
	return profile, workplace, nil
}

func (r *Recorder) verify(ctx context.Context, workplace employee.Workplace, direction string, req CheckRequest, now time.Time) (*Coordinate, error) {
	switch req.Method {
	case MethodGeofence:
		center := Coordinate{Latitude: workplace.Latitude, Longitude: workplace.Longitude}
		point, err := CheckGeofence(center, workplace.RadiusMeters, req.Location, now, r.cfg.LocationMaxAge)
		if err != nil {
			return nil, err
		}
		return &point, nil
	case MethodQR:
		payloadWorkplace, token, err := ParseQRPayload(req.QRPayload)
		if err != nil {
			return nil, err
		}
		if payloadWorkplace != "" && payloadWorkplace != workplace.ID {
			return nil, ErrInvalidQRToken
		}
		if err := r.qr.Validate(ctx, workplace.ID, direction, token, now); err != nil {
			return nil, err
		}
		if coord, ok := req.Location.Coordinate(); ok {
			return &coord, nil
		}
		return nil, nil
	default:
		return nil, ErrUnsupportedMethod
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOutsideGeofence), errors.Is(err, ErrLocationMissing), errors.Is(err, ErrLocationStale):
		return "location_rejected"
	case errors.Is(err, ErrInvalidQRToken), errors.Is(err, ErrQRTokenExpired):
		return "qr_rejected"
	case errors.Is(err, ErrAlreadyCheckedIn), errors.Is(err, ErrNotCheckedIn), errors.Is(err, ErrAlreadyCheckedOut):
		return "conflict"
	default:
		return "error"
	}
}

func validLeave(leave string) bool {
	for _, candidate := range LeaveTypes {
		if leave == candidate {
			return true
		}
	}
	return false
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
