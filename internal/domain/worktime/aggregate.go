package worktime

import (
	"math"
	"time"

	"chancehr/internal/domain/attendance"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/holiday"
)

// MinWeeklyHoursForHolidayPay is the statutory floor of scheduled weekly hours for weekly holiday pay.
const MinWeeklyHoursForHolidayPay = 15.0

type Week struct {
	Start         time.Time `json:"start"`
	ScheduledDays int       `json:"scheduledDays"`
	CompletedDays int       `json:"completedDays"`
	ExcusedDays   int       `json:"excusedDays"`
	AbsentDays    int       `json:"absentDays"`
	Partial       bool      `json:"partial"`
	Eligibility   float64   `json:"eligibility"`
}

type Summary struct {
	EmployeeID         string         `json:"employeeId"`
	PeriodStart        time.Time      `json:"periodStart"`
	PeriodEnd          time.Time      `json:"periodEnd"`
	ScheduledDays      int            `json:"scheduledDays"`
	CompletedDays      int            `json:"completedDays"`
	WorkedHours        float64        `json:"workedHours"`
	OvertimeHours      float64        `json:"overtimeHours"`
	LeaveDays          map[string]int `json:"leaveDays"`
	AbsentDays         int            `json:"absentDays"`
	Weeks              []Week         `json:"weeks"`
	WeeklyHolidayWeeks float64        `json:"weeklyHolidayWeeks"`
}

// Aggregate folds attendance records into the period summary. Days after today are never absent.
// Weeks run Monday to Sunday; a week clipped by the period or by employment is partial and earns
// the fraction of its scheduled days that were worked or excused, while a full week earns 1 only when
// every scheduled day was worked or excused.
func Aggregate(profile employee.Profile, records []attendance.Record, calendar *holiday.Calendar, periodStart, periodEnd, today time.Time) Summary {
	start, end := employee.DateOf(periodStart), employee.DateOf(periodEnd)
	today = employee.DateOf(today)
	summary := Summary{
		EmployeeID:  profile.ID,
		PeriodStart: start,
		PeriodEnd:   end,
		LeaveDays:   map[string]int{},
	}

	byDate := make(map[time.Time]attendance.Record, len(records))
	for _, rec := range records {
		byDate[employee.DateOf(rec.WorkDate)] = rec
	}

	dailyHours := profile.ScheduledHours()
	weeklyHours := dailyHours * float64(len(profile.WorkDays))
	weeks := map[time.Time]*Week{}
	var order []time.Time

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		rec, hasRecord := byDate[day]
		weekStart := mondayOf(day)
		week, ok := weeks[weekStart]
		if !ok {
			week = &Week{Start: weekStart, Partial: clipped(weekStart, start, end, profile)}
			weeks[weekStart] = week
			order = append(order, weekStart)
		}

		if hasRecord {
			if rec.OnLeave() {
				summary.LeaveDays[rec.LeaveType]++
			}
			if rec.Completed() {
				hours := rec.WorkHours()
				summary.CompletedDays++
				summary.WorkedHours += hours
				if dailyHours > 0 && hours > dailyHours {
					summary.OvertimeHours += hours - dailyHours
				}
			}
		}

		if !scheduled(profile, calendar, day, rec, hasRecord) {
			continue
		}
		summary.ScheduledDays++
		week.ScheduledDays++
		switch {
		case hasRecord && rec.Completed():
			week.CompletedDays++
		case hasRecord && rec.ExcusedLeave():
			week.ExcusedDays++
		case hasRecord && rec.OnLeave():
			// unpaid leave is neither absence nor attendance
		case day.After(today):
		default:
			summary.AbsentDays++
			week.AbsentDays++
		}
	}

	for _, weekStart := range order {
		week := weeks[weekStart]
		if weeklyHours >= MinWeeklyHoursForHolidayPay {
			week.Eligibility = eligibility(*week)
		}
		summary.WeeklyHolidayWeeks += week.Eligibility
		summary.Weeks = append(summary.Weeks, *week)
	}
	summary.WorkedHours = round4(summary.WorkedHours)
	summary.OvertimeHours = round4(summary.OvertimeHours)
	summary.WeeklyHolidayWeeks = round4(summary.WeeklyHolidayWeeks)
	return summary
}

func eligibility(week Week) float64 {
	if week.ScheduledDays == 0 {
		return 0
	}
	attended := week.CompletedDays + week.ExcusedDays
	if !week.Partial {
		if attended >= week.ScheduledDays {
			return 1
		}
		return 0
	}
	return math.Min(1, float64(attended)/float64(week.ScheduledDays))
}

func scheduled(profile employee.Profile, calendar *holiday.Calendar, day time.Time, rec attendance.Record, hasRecord bool) bool {
	if !profile.WorksOn(day.Weekday()) || !profile.EmployedOn(day) {
		return false
	}
	if hasRecord && rec.IsHoliday {
		return false
	}
	return !calendar.IsHoliday(day)
}

// clipped reports whether part of the Monday-Sunday week lies outside the period or employment.
func clipped(weekStart, periodStart, periodEnd time.Time, profile employee.Profile) bool {
	weekEnd := weekStart.AddDate(0, 0, 6)
	if weekStart.Before(periodStart) || weekEnd.After(periodEnd) {
		return true
	}
	return !profile.EmployedOn(weekStart) || !profile.EmployedOn(weekEnd)
}

func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
