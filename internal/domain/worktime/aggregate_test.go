package worktime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chancehr/internal/domain/attendance"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/holiday"
)

var kst = time.FixedZone("KST", 9*3600)

func weekdayProfile() employee.Profile {
	return employee.Profile{
		ID:             "emp-1",
		WorkDays:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		ScheduledStart: "09:00",
		ScheduledEnd:   "17:00",
		HireDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:         true,
	}
}

func day(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

func worked(m time.Month, d int, hours float64) attendance.Record {
	in := time.Date(2026, m, d, 9, 0, 0, 0, kst)
	out := in.Add(time.Duration(hours * float64(time.Hour)))
	return attendance.Record{EmployeeID: "emp-1", WorkDate: day(m, d), CheckInAt: &in, CheckOutAt: &out, LeaveType: attendance.LeaveNone}
}

func leave(m time.Month, d int, kind string) attendance.Record {
	return attendance.Record{EmployeeID: "emp-1", WorkDate: day(m, d), LeaveType: kind}
}

// Monday March 2 to Sunday March 8, 2026.
var fullWeekStart, fullWeekEnd = day(time.March, 2), day(time.March, 8)

func TestFullWeekCompleted(t *testing.T) {
	var records []attendance.Record
	for d := 2; d <= 6; d++ {
		records = append(records, worked(time.March, d, 8))
	}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 31))

	assert.Equal(t, 5, s.ScheduledDays)
	assert.Equal(t, 5, s.CompletedDays)
	assert.Equal(t, 40.0, s.WorkedHours)
	assert.Zero(t, s.OvertimeHours)
	assert.Zero(t, s.AbsentDays)
	require.Len(t, s.Weeks, 1)
	assert.False(t, s.Weeks[0].Partial)
	assert.Equal(t, 1.0, s.WeeklyHolidayWeeks)
}

func TestUnexcusedAbsenceVoidsFullWeek(t *testing.T) {
	records := []attendance.Record{
		worked(time.March, 2, 8), worked(time.March, 3, 8), worked(time.March, 4, 8), worked(time.March, 5, 8),
	}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 31))

	assert.Equal(t, 1, s.AbsentDays)
	assert.Zero(t, s.WeeklyHolidayWeeks)
}

func TestExcusedLeaveKeepsEligibility(t *testing.T) {
	records := []attendance.Record{
		worked(time.March, 2, 8), worked(time.March, 3, 8), worked(time.March, 4, 8), worked(time.March, 5, 8),
		leave(time.March, 6, attendance.LeaveAnnual),
	}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 31))

	assert.Equal(t, 1, s.LeaveDays[attendance.LeaveAnnual])
	assert.Zero(t, s.AbsentDays)
	assert.Equal(t, 1.0, s.WeeklyHolidayWeeks)
}

func TestUnpaidLeaveIsNotExcused(t *testing.T) {
	records := []attendance.Record{
		worked(time.March, 2, 8), worked(time.March, 3, 8), worked(time.March, 4, 8), worked(time.March, 5, 8),
		leave(time.March, 6, attendance.LeaveUnpaid),
	}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 31))

	assert.Zero(t, s.AbsentDays)
	assert.Equal(t, 1, s.LeaveDays[attendance.LeaveUnpaid])
	assert.Zero(t, s.WeeklyHolidayWeeks)
}

func TestPartialWeekIsProRated(t *testing.T) {
	records := []attendance.Record{worked(time.March, 4, 8), worked(time.March, 5, 8)}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), day(time.March, 4), fullWeekEnd, day(time.March, 31))

	require.Len(t, s.Weeks, 1)
	assert.True(t, s.Weeks[0].Partial)
	assert.Equal(t, 3, s.ScheduledDays)
	assert.InDelta(t, 2.0/3.0, s.WeeklyHolidayWeeks, 1e-4)
}

func TestHireMidWeekIsPartial(t *testing.T) {
	p := weekdayProfile()
	p.HireDate = day(time.March, 5)
	records := []attendance.Record{worked(time.March, 5, 8), worked(time.March, 6, 8)}
	s := Aggregate(p, records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 31))

	assert.Equal(t, 2, s.ScheduledDays)
	assert.Zero(t, s.AbsentDays)
	assert.Equal(t, 1.0, s.WeeklyHolidayWeeks)
}

func TestOvertimeBeyondScheduledSpan(t *testing.T) {
	records := []attendance.Record{worked(time.March, 2, 10), worked(time.March, 3, 7.5)}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 31))

	assert.Equal(t, 17.5, s.WorkedHours)
	assert.Equal(t, 2.0, s.OvertimeHours)
}

func TestPublicHolidaysAreNotScheduled(t *testing.T) {
	// Seollal falls on Monday to Wednesday, February 16 to 18, 2026.
	records := []attendance.Record{worked(time.February, 19, 8), worked(time.February, 20, 8)}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), day(time.February, 16), day(time.February, 22), day(time.March, 31))

	assert.Equal(t, 2, s.ScheduledDays)
	assert.Zero(t, s.AbsentDays)
	assert.Equal(t, 1.0, s.WeeklyHolidayWeeks)
}

func TestRecordMarkedHolidayIsNotScheduled(t *testing.T) {
	records := []attendance.Record{
		worked(time.March, 2, 8), worked(time.March, 3, 8), worked(time.March, 4, 8), worked(time.March, 5, 8),
		{EmployeeID: "emp-1", WorkDate: day(time.March, 6), IsHoliday: true},
	}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 31))

	assert.Equal(t, 4, s.ScheduledDays)
	assert.Equal(t, 1.0, s.WeeklyHolidayWeeks)
}

func TestFutureDaysAreNotAbsent(t *testing.T) {
	records := []attendance.Record{worked(time.March, 2, 8)}
	s := Aggregate(weekdayProfile(), records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 3))

	assert.Equal(t, 1, s.AbsentDays, "only tuesday has passed")
}

func TestShortScheduleEarnsNoWeeklyHolidayPay(t *testing.T) {
	p := weekdayProfile()
	p.WorkDays = []time.Weekday{time.Monday, time.Tuesday}
	p.ScheduledEnd = "15:00"
	records := []attendance.Record{worked(time.March, 2, 8), worked(time.March, 3, 8)}
	s := Aggregate(p, records, holiday.Default(), fullWeekStart, fullWeekEnd, day(time.March, 31))

	assert.Equal(t, 2, s.CompletedDays)
	assert.Zero(t, s.WeeklyHolidayWeeks)
}

func TestMondayOf(t *testing.T) {
	assert.Equal(t, day(time.March, 2), mondayOf(day(time.March, 8)))
	assert.Equal(t, day(time.March, 2), mondayOf(day(time.March, 2)))
}
