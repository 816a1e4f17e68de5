package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockNowFuncFollowsAdvance(t *testing.T) {
	clock := NewClock(time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	clock.Advance(90 * time.Minute)
	if got, want := nowFn(), time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	clock.Set(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	if got := nowFn(); got.Day() != 5 {
		t.Fatalf("expected Set to be visible through NowFunc, got %v", got)
	}
}

func TestClockAdvanceDaysKeepsWallTimeAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// DST starts on 2024-03-10 in New York.
	clock := NewClockAt(ny, 2024, time.March, 9, 9, 0)

	got := clock.AdvanceDays(ny, 2).In(ny)
	if got.Day() != 11 || got.Hour() != 9 || got.Minute() != 0 {
		t.Fatalf("expected 2024-03-11 09:00 local, got %v", got)
	}
	if elapsed := got.Sub(time.Date(2024, time.March, 9, 9, 0, 0, 0, ny)); elapsed != 47*time.Hour {
		t.Fatalf("expected 47h elapsed across the spring-forward day, got %v", elapsed)
	}
	if clock.In(time.UTC).Location() != time.UTC {
		t.Fatal("expected In to convert the location")
	}
}
