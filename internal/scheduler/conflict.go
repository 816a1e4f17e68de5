package scheduler

import (
	"sort"
	"time"
)

// Slot is a candidate meeting interval in UTC. Slots are computed on every
// request and never cached.
type Slot struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// NewSlot builds a slot from UTC bounds.
func NewSlot(start, end time.Time) Slot {
	return Slot{Start: start.UTC(), End: end.UTC(), Duration: end.Sub(start)}
}

// Interval is a busy period such as an existing booking.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Buffered pads the interval with pre before its start and post after its end.
func (i Interval) Buffered(pre, post time.Duration) Interval {
	return Interval{Start: i.Start.Add(-pre), End: i.End.Add(post)}
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FilterCollisions drops every slot overlapping any busy interval once the
// interval is padded by the pre and post buffers.
func FilterCollisions(slots []Slot, busy []Interval, pre, post time.Duration) []Slot {
	if len(busy) == 0 {
		return slots
	}

	buffered := make([]Interval, len(busy))
	for i, b := range busy {
		buffered[i] = b.Buffered(pre, post)
	}

	kept := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if !collides(slot, buffered) {
			kept = append(kept, slot)
		}
	}
	return kept
}

func collides(slot Slot, buffered []Interval) bool {
	for _, b := range buffered {
		if Overlaps(slot.Start, slot.End, b.Start, b.End) {
			return true
		}
	}
	return false
}

// SortSlots orders slots by start, then end, in place.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Start.Equal(slots[j].Start) {
			return slots[i].End.Before(slots[j].End)
		}
		return slots[i].Start.Before(slots[j].Start)
	})
}
