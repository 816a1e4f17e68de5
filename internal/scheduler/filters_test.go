package scheduler

import (
	"testing"
	"time"
)

func TestFilterBlackouts(t *testing.T) {
	t.Parallel()

	t.Run("drops every slot on the blackout day", func(t *testing.T) {
		t.Parallel()
		slots := append(hourlySlots(monday, 9, 12), hourlySlots(monday.AddDate(0, 0, 1), 9, 12)...)
		blackout := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

		kept := FilterBlackouts(slots, []time.Time{blackout}, time.UTC)
		if len(kept) != 3 {
			t.Fatalf("expected 3 slots, got %d", len(kept))
		}
		for _, slot := range kept {
			if slot.Start.Day() != 5 {
				t.Fatalf("unexpected slot %v", slot.Start)
			}
		}
	})

	t.Run("compares local calendar days", func(t *testing.T) {
		t.Parallel()
		tokyo := mustLoad(t, "Asia/Tokyo")

		// 2024-03-05 09:00 JST is 00:00 UTC; the slot belongs to March 5 locally.
		slot := NewSlot(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, time.March, 5, 1, 0, 0, 0, time.UTC))
		// Midnight March 5 in Tokyo is still March 4 in UTC.
		blackout := time.Date(2024, time.March, 5, 0, 0, 0, 0, tokyo).UTC()

		if kept := FilterBlackouts([]Slot{slot}, []time.Time{blackout}, tokyo); len(kept) != 0 {
			t.Fatalf("expected slot to be blacked out in Tokyo, got %d slots", len(kept))
		}
		if kept := FilterBlackouts([]Slot{slot}, []time.Time{blackout}, time.UTC); len(kept) != 1 {
			t.Fatalf("expected slot to survive when compared in UTC, got %d slots", len(kept))
		}
	})
}

func TestFilterBusinessRules(t *testing.T) {
	t.Parallel()

	now := at(monday, 10, 0)
	slots := []Slot{
		NewSlot(at(monday, 8, 0), at(monday, 9, 0)),   // past
		NewSlot(at(monday, 9, 0), at(monday, 10, 0)),  // ends exactly now
		NewSlot(at(monday, 9, 30), at(monday, 10, 30)), // in progress
		NewSlot(at(monday, 11, 0), at(monday, 12, 0)), // inside notice
		NewSlot(at(monday, 12, 0), at(monday, 13, 0)), // exactly at notice boundary
		NewSlot(at(monday, 13, 0), at(monday, 14, 0)),
	}

	kept := FilterBusinessRules(slots, now, 2*time.Hour)
	if len(kept) != 2 {
		t.Fatalf("expected 2 slots, got %d: %#v", len(kept), kept)
	}
	if !kept[0].Start.Equal(at(monday, 12, 0)) {
		t.Fatalf("expected slot at notice boundary to be kept, got %v", kept[0].Start)
	}

	withoutNotice := FilterBusinessRules(slots, now, 0)
	if len(withoutNotice) != 3 {
		t.Fatalf("expected in-progress slot to be dropped without notice, got %d", len(withoutNotice))
	}
}
