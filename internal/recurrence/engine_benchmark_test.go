package recurrence

import (
	"testing"
	"time"

	"github.com/example/meeting-scheduler/internal/scheduler"
)

func BenchmarkEngineGenerate(b *testing.B) {
	engine := NewEngine()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		b.Skipf("timezone data unavailable: %v", err)
	}

	window := scheduler.ComputeWindow(time.Date(2024, 5, 6, 9, 0, 0, 0, loc), loc, 365)
	blocks := append(weekdayTemplate("09:00", "12:00"), weekdayTemplate("13:00", "17:30")...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		slots, err := engine.Generate(window, blocks, 30*time.Minute)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if len(slots) == 0 {
			b.Fatal("expected slots to be generated")
		}
	}
}
