package scheduler

import "time"

// Window is the rolling booking horizon of an organizer: the half-open range
// [Start, End) of whole local calendar days in Location, plus the same bounds
// as UTC instants for range queries.
type Window struct {
	Start    time.Time
	End      time.Time
	StartUTC time.Time
	EndUTC   time.Time
	Location *time.Location
}

// ComputeWindow derives the window of maxAdvanceDays calendar days starting at
// the local day containing now. The day count is authoritative: across a DST
// change the window is 23 or 25 hours longer or shorter than n*24h.
func ComputeWindow(now time.Time, loc *time.Location, maxAdvanceDays int) Window {
	if loc == nil {
		loc = time.UTC
	}

	start := StartOfDay(now, loc)
	end := StartOfDay(start.AddDate(0, 0, maxAdvanceDays), loc)

	return Window{
		Start:    start,
		End:      end,
		StartUTC: start.UTC(),
		EndUTC:   end.UTC(),
		Location: loc,
	}
}

// Days returns the local midnight of every calendar day in the window.
func (w Window) Days() []time.Time {
	var days []time.Time
	for day := w.Start; day.Before(w.End); day = StartOfDay(day.AddDate(0, 0, 1), w.Location) {
		days = append(days, day)
	}
	return days
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.StartUTC) && t.Before(w.EndUTC)
}

// StartOfDay floors t to midnight of its calendar day in loc. On the rare
// zones where midnight is skipped by a DST jump, the first instant of the day
// is returned.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameLocalDay reports whether a and b fall on the same calendar day in loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	return dayOf(a, loc) == dayOf(b, loc)
}
