package attendance

import (
	"math"
	"time"
)

const (
	MethodGeofence = "geofence"
	MethodQR       = "qr"
	MethodManual   = "manual"

	DirectionIn  = "in"
	DirectionOut = "out"

	LeaveNone   = "none"
	LeaveAnnual = "annual"
	LeavePaid   = "paid"
	LeaveUnpaid = "unpaid"

	StatusOnLeave      = "on_leave"
	StatusCheckedIn    = "checked_in"
	StatusCompleted    = "completed"
	StatusAbsent       = "absent"
	StatusNotScheduled = "not_scheduled"
)

var LeaveTypes = []string{LeaveNone, LeaveAnnual, LeavePaid, LeaveUnpaid}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is what the client reports for a geofence check. Nil coordinates mean the device sent none.
type Location struct {
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	AccuracyMeters float64    `json:"accuracyMeters"`
	CapturedAt     *time.Time `json:"capturedAt"`
}

func (l *Location) Coordinate() (Coordinate, bool) {
	if l == nil || l.Latitude == nil || l.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *l.Latitude, Longitude: *l.Longitude}, true
}

type CheckRequest struct {
	EmployeeID string    `json:"employeeId"`
	Method     string    `json:"method"`
	Location   *Location `json:"location,omitempty"`
	QRPayload  string    `json:"qrPayload,omitempty"`
}

// Record is one employee's attendance for one calendar date.
type Record struct {
	ID             string      `json:"id"`
	EmployeeID     string      `json:"employeeId"`
	WorkplaceID    string      `json:"workplaceId"`
	WorkDate       time.Time   `json:"workDate"`
	CheckInAt      *time.Time  `json:"checkInAt,omitempty"`
	CheckInCoord   *Coordinate `json:"checkInCoordinate,omitempty"`
	CheckInMethod  string      `json:"checkInMethod,omitempty"`
	CheckOutAt     *time.Time  `json:"checkOutAt,omitempty"`
	CheckOutCoord  *Coordinate `json:"checkOutCoordinate,omitempty"`
	CheckOutMethod string      `json:"checkOutMethod,omitempty"`
	LeaveType      string      `json:"leaveType"`
	IsHoliday      bool        `json:"isHoliday"`
	CorrectedBy    string      `json:"correctedBy,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func (r Record) OnLeave() bool {
	return r.LeaveType != "" && r.LeaveType != LeaveNone
}

// ExcusedLeave is leave that counts as attendance for weekly holiday eligibility.
func (r Record) ExcusedLeave() bool {
	return r.LeaveType == LeaveAnnual || r.LeaveType == LeavePaid
}

func (r Record) Completed() bool {
	return r.CheckInAt != nil && r.CheckOutAt != nil
}

// Status is derived from the record alone.
func (r Record) Status() string {
	switch {
	case r.OnLeave():
		return StatusOnLeave
	case r.CheckInAt != nil && r.CheckOutAt == nil:
		return StatusCheckedIn
	case r.Completed():
		return StatusCompleted
	default:
		return StatusAbsent
	}
}

// WorkHours is check-out minus check-in in fractional hours, never negative.
func (r Record) WorkHours() float64 {
	if !r.Completed() {
		return 0
	}
	hours := r.CheckOutAt.Sub(*r.CheckInAt).Hours()
	if hours < 0 || math.IsNaN(hours) {
		return 0
	}
	return hours
}

// Correction is an owner edit that bypasses location and QR checks.
type Correction struct {
	EmployeeID string     `json:"employeeId"`
	WorkDate   time.Time  `json:"workDate"`
	CheckInAt  *time.Time `json:"checkInAt,omitempty"`
	CheckOutAt *time.Time `json:"checkOutAt,omitempty"`
	LeaveType  string     `json:"leaveType"`
	IsHoliday  bool       `json:"isHoliday"`
	ActorID    string     `json:"-"`
}

type DayView struct {
	Date   time.Time `json:"date"`
	Record *Record   `json:"record,omitempty"`
	Status string    `json:"status"`
	Late   bool      `json:"late"`
	Hours  float64   `json:"hours"`
}
