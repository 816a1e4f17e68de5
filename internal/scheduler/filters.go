package scheduler

import "time"

// FilterBlackouts drops slots whose start falls on the same local calendar day
// as any blackout date. Blackout dates are compared by day identity in loc,
// never by instant.
func FilterBlackouts(slots []Slot, blackouts []time.Time, loc *time.Location) []Slot {
	if len(blackouts) == 0 {
		return slots
	}
	if loc == nil {
		loc = time.UTC
	}

	days := make(map[localDay]struct{}, len(blackouts))
	for _, b := range blackouts {
		days[dayOf(b, loc)] = struct{}{}
	}

	kept := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if _, blocked := days[dayOf(slot.Start, loc)]; !blocked {
			kept = append(kept, slot)
		}
	}
	return kept
}

type localDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time, loc *time.Location) localDay {
	y, m, d := t.In(loc).Date()
	return localDay{year: y, month: m, day: d}
}

// FilterBusinessRules drops slots that have already ended and slots starting
// before now+minNotice. A slot starting exactly at now+minNotice is kept.
func FilterBusinessRules(slots []Slot, now time.Time, minNotice time.Duration) []Slot {
	earliest := now.Add(minNotice)

	kept := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if !slot.End.After(now) {
			continue
		}
		if slot.Start.Before(earliest) {
			continue
		}
		kept = append(kept, slot)
	}
	return kept
}
