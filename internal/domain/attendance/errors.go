package attendance

import "errors"

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNotCheckedIn      = errors.New("no open check-in for today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrLocationMissing   = errors.New("location is required for geofence check")
	ErrLocationStale     = errors.New("location is older than the freshness window")
	ErrOutsideGeofence   = errors.New("location is outside the workplace radius")
	ErrInvalidQRToken    = errors.New("qr token is not the active token")
	ErrQRTokenExpired    = errors.New("qr token has expired")
	ErrUnsupportedMethod = errors.New("unsupported check method")
	ErrInvalidDirection  = errors.New("direction must be in or out")
	ErrEmployeeInactive  = errors.New("employee is not active")
	ErrInvalidCorrection = errors.New("invalid attendance correction")
	ErrDayLocked         = errors.New("attendance for this day is being updated")
)
