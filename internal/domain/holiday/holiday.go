package holiday

import (
	"time"
)

const (
	KindFixed = "fixed"
	KindLunar = "lunar"
)

type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
	Kind string    `json:"kind"`
}

// Calendar resolves public holidays from two tables. Exact dates (lunar-derived and substitute days)
// take precedence over the recurring month-day table.
type Calendar struct {
	exact    map[string]string
	monthDay map[string]string
}

func New(exact, monthDay map[string]string) *Calendar {
	c := &Calendar{exact: map[string]string{}, monthDay: map[string]string{}}
	for k, v := range exact {
		c.exact[k] = v
	}
	for k, v := range monthDay {
		c.monthDay[k] = v
	}
	return c
}

// Default is the Korean public holiday calendar.
func Default() *Calendar {
	return New(lunarDates, fixedDates)
}

func (c *Calendar) Lookup(date time.Time) (Holiday, bool) {
	if c == nil {
		return Holiday{}, false
	}
	day := truncate(date)
	if name, ok := c.exact[day.Format("2006-01-02")]; ok {
		return Holiday{Date: day, Name: name, Kind: KindLunar}, true
	}
	if name, ok := c.monthDay[day.Format("01-02")]; ok {
		return Holiday{Date: day, Name: name, Kind: KindFixed}, true
	}
	return Holiday{}, false
}

func (c *Calendar) IsHoliday(date time.Time) bool {
	_, ok := c.Lookup(date)
	return ok
}

// Between lists holidays in [start, end], both inclusive.
func (c *Calendar) Between(start, end time.Time) []Holiday {
	var out []Holiday
	for day := truncate(start); !day.After(truncate(end)); day = day.AddDate(0, 0, 1) {
		if h, ok := c.Lookup(day); ok {
			out = append(out, h)
		}
	}
	return out
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var fixedDates = map[string]string{
	"01-01": "New Year's Day",
	"03-01": "Independence Movement Day",
	"05-05": "Children's Day",
	"06-06": "Memorial Day",
	"08-15": "Liberation Day",
	"10-03": "National Foundation Day",
	"10-09": "Hangul Day",
	"12-25": "Christmas Day",
}

var lunarDates = map[string]string{
	"2024-02-09": "Seollal",
	"2024-02-10": "Seollal",
	"2024-02-11": "Seollal",
	"2024-02-12": "Substitute Holiday",
	"2024-05-15": "Buddha's Birthday",
	"2024-09-16": "Chuseok",
	"2024-09-17": "Chuseok",
	"2024-09-18": "Chuseok",

	"2025-01-28": "Seollal",
	"2025-01-29": "Seollal",
	"2025-01-30": "Seollal",
	"2025-05-05": "Buddha's Birthday",
	"2025-05-06": "Substitute Holiday",
	"2025-10-05": "Chuseok",
	"2025-10-06": "Chuseok",
	"2025-10-07": "Chuseok",
	"2025-10-08": "Substitute Holiday",

	"2026-02-16": "Seollal",
	"2026-02-17": "Seollal",
	"2026-02-18": "Seollal",
	"2026-05-24": "Buddha's Birthday",
	"2026-05-25": "Substitute Holiday",
	"2026-09-24": "Chuseok",
	"2026-09-25": "Chuseok",
	"2026-09-26": "Chuseok",

	"2027-02-06": "Seollal",
	"2027-02-07": "Seollal",
	"2027-02-08": "Seollal",
	"2027-02-09": "Substitute Holiday",
	"2027-05-13": "Buddha's Birthday",
	"2027-09-14": "Chuseok",
	"2027-09-15": "Chuseok",
	"2027-09-16": "Chuseok",
}
