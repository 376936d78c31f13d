package domain

import (
	"fmt"
	"time"
)

// PeriodKind represents the kind of report period
type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
)

// WeekNumbering selects how the weekly header numbers weeks
type WeekNumbering string

const (
	// WeekISO numbers weeks per ISO 8601, paired with the ISO week-based year
	WeekISO WeekNumbering = "iso"
	// WeekMondayFirst numbers weeks like strftime %W: zero padded, counted
	// from the first Monday of the calendar year, days before it in week 00
	WeekMondayFirst WeekNumbering = "monday"
)

// ParseWeekNumbering parses a week numbering name. Empty means WeekISO.
func ParseWeekNumbering(s string) (WeekNumbering, error) {
	switch WeekNumbering(s) {
	case "", WeekISO:
		return WeekISO, nil
	case WeekMondayFirst:
		return WeekMondayFirst, nil
	default:
		return "", fmt.Errorf("unknown week numbering %q, expected %q or %q", s, WeekISO, WeekMondayFirst)
	}
}

// DateLayout is the ISO calendar date format used for index names and keys.
const DateLayout = "2006-01-02"

var swedishMonths = [...]string{
	"januari", "februari", "mars", "april", "maj", "juni",
	"juli", "augusti", "september", "oktober", "november", "december",
}

// Period is one report period. Start and End are inclusive calendar dates.
type Period struct {
	Kind   PeriodKind
	Start  time.Time
	End    time.Time
	Header string
}

// Dates returns every calendar date of the period as ISO strings, oldest first.
func (p Period) Dates() []string {
	var dates []string
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// PeriodsFor returns the report periods that apply to today, ordered
// monthly, weekly, daily. The daily period is always present; the weekly
// one only on Mondays and the monthly one only on the first of the month.
// Weekly headers use ISO week numbers.
func PeriodsFor(today time.Time, title string) []Period {
	return PeriodsWithNumbering(today, title, WeekISO)
}

// PeriodsWithNumbering is PeriodsFor with a chosen week numbering.
//
// ISO and WeekMondayFirst agree in years starting Friday to Monday, apart
// from the days before the first Monday. In years starting Tuesday to
// Thursday the %W number is one lower than the ISO one. Around New Year ISO
// may report week 52 or 53 of the previous year where %W reports week 00.
func PeriodsWithNumbering(today time.Time, title string, numbering WeekNumbering) []Period {
	today = truncateDay(today)
	yesterday := today.AddDate(0, 0, -1)

	var periods []Period
	if today.Day() == 1 {
		start := today.AddDate(0, -1, 0)
		periods = append(periods, Period{
			Kind:   PeriodMonthly,
			Start:  start,
			End:    yesterday,
			Header: fmt.Sprintf("%s månadsrapport för %s %d", title, swedishMonths[start.Month()-1], start.Year()),
		})
	}

	if today.Weekday() == time.Monday {
		periods = append(periods, Period{
			Kind:   PeriodWeekly,
			Start:  today.AddDate(0, 0, -7),
			End:    yesterday,
			Header: fmt.Sprintf("%s veckorapport för vecka %s", title, weekLabel(yesterday, numbering)),
		})
	}

	periods = append(periods, Period{
		Kind:   PeriodDaily,
		Start:  yesterday,
		End:    yesterday,
		Header: fmt.Sprintf("%s dygnsrapport för %s", title, yesterday.Format(DateLayout)),
	})
	return periods
}

// weekLabel returns "<week> <year>" for day
func weekLabel(day time.Time, numbering WeekNumbering) string {
	if numbering == WeekMondayFirst {
		weekday := (int(day.Weekday()) + 6) % 7
		week := (day.YearDay() - 1 + 7 - weekday) / 7
		return fmt.Sprintf("%02d %d", week, day.Year())
	}
	year, week := day.ISOWeek()
	return fmt.Sprintf("%d %d", week, year)
}

// ParseDay parses an ISO calendar date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// truncateDay keeps the calendar date of t in its own location and moves it
// to UTC midnight so that day arithmetic is free of DST shifts.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
