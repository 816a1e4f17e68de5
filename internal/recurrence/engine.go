package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/meeting-scheduler/internal/scheduler"
)

// Block is a recurring weekly working interval in the organizer's wall clock.
type Block struct {
	DayOfWeek time.Weekday
	StartTime string // HH:mm
	EndTime   string // HH:mm, "24:00" for end of day
	IsActive  bool
}

// ErrInvalidBlock indicates a working-hour block cannot be expanded.
var ErrInvalidBlock = errors.New("recurrence: invalid working-hour block")

// ErrInvalidDuration indicates the meeting duration is not positive.
var ErrInvalidDuration = errors.New("recurrence: meeting duration must be positive")

// Engine expands weekly working-hour templates into candidate slots.
type Engine struct{}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Generate walks every calendar day of the window and, for each active block
// matching that day's weekday, emits back-to-back slots of the given duration
// starting at the block start. A slot is only emitted if it ends at or before
// the block end; the remainder of a block shorter than duration is dropped.
//
// Blocks on the same day are expanded independently. Overlapping blocks would
// yield duplicate slots; templates are checked with FindOverlap when written.
//
// Generate fails with ErrInvalidBlock if any active block is malformed, so
// callers should screen blocks with ValidateBlock first.
func (e *Engine) Generate(window scheduler.Window, blocks []Block, duration time.Duration) ([]scheduler.Slot, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	loc := window.Location
	if loc == nil {
		loc = time.UTC
	}

	type span struct {
		start, end clock
	}
	byDay := make(map[time.Weekday][]span)
	for _, block := range blocks {
		if !block.IsActive {
			continue
		}
		start, end, err := parseBlock(block)
		if err != nil {
			return nil, err
		}
		byDay[block.DayOfWeek] = append(byDay[block.DayOfWeek], span{start: start, end: end})
	}

	var slots []scheduler.Slot
	for _, day := range window.Days() {
		for _, s := range byDay[day.Weekday()] {
			blockStart := s.start.on(day, loc)
			blockEnd := s.end.on(day, loc)

			for cursor := blockStart; !cursor.Add(duration).After(blockEnd); cursor = cursor.Add(duration) {
				slots = append(slots, scheduler.NewSlot(cursor, cursor.Add(duration)))
			}
		}
	}

	return slots, nil
}

// ValidateBlock reports whether a block can be expanded: both times must be
// HH:mm and the block must end after it starts on the same day.
func ValidateBlock(block Block) error {
	_, _, err := parseBlock(block)
	return err
}

// FindOverlap returns the indexes of the first pair of active blocks that share
// a weekday and overlap. Blocks that only touch (09:00-12:00, 12:00-17:00) do
// not overlap. Invalid and inactive blocks are ignored.
func FindOverlap(blocks []Block) (first, second int, found bool) {
	type span struct {
		index      int
		start, end int
	}
	byDay := make(map[time.Weekday][]span)
	for i, block := range blocks {
		if !block.IsActive {
			continue
		}
		start, end, err := parseBlock(block)
		if err != nil {
			continue
		}
		for _, other := range byDay[block.DayOfWeek] {
			if start.minutes() < other.end && other.start < end.minutes() {
				return other.index, i, true
			}
		}
		byDay[block.DayOfWeek] = append(byDay[block.DayOfWeek], span{index: i, start: start.minutes(), end: end.minutes()})
	}
	return 0, 0, false
}

type clock struct {
	hour, minute int
}

// on places the wall-clock time on the given local day. Times falling into a
// DST gap are normalized forward by time.Date.
func (c clock) on(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, c.hour, c.minute, 0, 0, loc)
}

func (c clock) minutes() int {
	return c.hour*60 + c.minute
}

func parseBlock(block Block) (clock, clock, error) {
	if block.DayOfWeek < time.Sunday || block.DayOfWeek > time.Saturday {
		return clock{}, clock{}, fmt.Errorf("%w: day of week %d out of range", ErrInvalidBlock, block.DayOfWeek)
	}
	start, err := parseClock(block.StartTime, false)
	if err != nil {
		return clock{}, clock{}, err
	}
	end, err := parseClock(block.EndTime, true)
	if err != nil {
		return clock{}, clock{}, err
	}
	if end.minutes() <= start.minutes() {
		return clock{}, clock{}, fmt.Errorf("%w: %s-%s does not end after it starts", ErrInvalidBlock, block.StartTime, block.EndTime)
	}
	return start, end, nil
}

func parseClock(value string, allowEndOfDay bool) (clock, error) {
	if allowEndOfDay && value == "24:00" {
		return clock{hour: 24}, nil
	}
	if len(value) != 5 {
		return clock{}, fmt.Errorf("%w: time %q is not HH:mm", ErrInvalidBlock, value)
	}
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return clock{}, fmt.Errorf("%w: time %q is not HH:mm", ErrInvalidBlock, value)
	}
	return clock{hour: parsed.Hour(), minute: parsed.Minute()}, nil
}
