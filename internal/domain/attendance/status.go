package attendance

import (
	"time"

	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/holiday"
)

// DayStatus extends Record.Status with the schedule: a date without a record is absent only when it
// is a scheduled, non-holiday work day that has already started.
func DayStatus(rec *Record, profile employee.Profile, calendar *holiday.Calendar, date, today time.Time) string {
	if rec != nil {
		status := rec.Status()
		if status != StatusAbsent {
			return status
		}
		if rec.IsHoliday {
			return StatusNotScheduled
		}
	}
	if !profile.WorksOn(date.Weekday()) || calendar.IsHoliday(date) || !profile.EmployedOn(date) {
		return StatusNotScheduled
	}
	if date.After(today) {
		return StatusNotScheduled
	}
	return StatusAbsent
}

// IsLate reports a check-in later than the scheduled start plus grace.
func IsLate(rec Record, profile employee.Profile, loc *time.Location, grace time.Duration) bool {
	if rec.CheckInAt == nil || rec.OnLeave() {
		return false
	}
	start, ok := profile.ScheduledStartOn(rec.WorkDate, loc)
	if !ok {
		return false
	}
	return rec.CheckInAt.After(start.Add(grace))
}
