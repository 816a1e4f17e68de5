package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/meeting-scheduler/internal/metrics"
	"github.com/example/meeting-scheduler/internal/recurrence"
	"github.com/example/meeting-scheduler/internal/scheduler"
)

// OrganizerDirectory resolves organizers.
type OrganizerDirectory interface {
	GetOrganizer(ctx context.Context, id string) (Organizer, error)
	GetOrganizerByUsername(ctx context.Context, username string) (Organizer, error)
}

// SettingsReader exposes the scheduling configuration read by the pipeline.
type SettingsReader interface {
	GetOrganizerSettings(ctx context.Context, organizerID string) (Settings, error)
	ListActiveWorkingHours(ctx context.Context, organizerID string) ([]WorkingHourBlock, error)
	ListBlackoutDates(ctx context.Context, organizerID string, rangeStart, rangeEnd time.Time) ([]BlackoutDate, error)
}

// BookingReader lists non-deleted bookings intersecting (rangeStart, rangeEnd).
type BookingReader interface {
	ListActiveBookings(ctx context.Context, organizerID string, rangeStart, rangeEnd time.Time) ([]Booking, error)
}

// AvailabilityService computes bookable slots. It is the only place that
// decides whether a slot is free; both listings and commit-time revalidation
// go through ComputeAvailability.
type AvailabilityService struct {
	organizers OrganizerDirectory
	settings   SettingsReader
	bookings   BookingReader
	engine     *recurrence.Engine
	now        func() time.Time
	logger     *slog.Logger
}

// NewAvailabilityService wires dependencies for availability computation.
func NewAvailabilityService(organizers OrganizerDirectory, settings SettingsReader, bookings BookingReader, now func() time.Time) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(organizers, settings, bookings, now, nil)
}

// NewAvailabilityServiceWithLogger wires dependencies with a specified logger.
func NewAvailabilityServiceWithLogger(organizers OrganizerDirectory, settings SettingsReader, bookings BookingReader, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		organizers: organizers,
		settings:   settings,
		bookings:   bookings,
		engine:     recurrence.NewEngine(),
		now:        now,
		logger:     defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// ListAvailability resolves the organizer by username and computes its slots.
func (s *AvailabilityService) ListAvailability(ctx context.Context, username string) (availability Availability, err error) {
	if s == nil {
		return Availability{}, fmt.Errorf("AvailabilityService is nil")
	}
	logger := s.loggerWith(ctx, "ListAvailability", "organizer_username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(availability.Slots)).InfoContext(ctx, "availability listed")
	}()

	organizer, err := s.organizers.GetOrganizerByUsername(ctx, username)
	if err != nil {
		return Availability{}, err
	}
	return s.ComputeAvailability(ctx, organizer.ID, AvailabilityOptions{})
}

// ComputeAvailability runs the pipeline for one organizer in a fixed order:
// window, generate, blackout filter, buffer filter, business rules, sort.
// It fails with ErrNotFound when the organizer has no settings.
func (s *AvailabilityService) ComputeAvailability(ctx context.Context, organizerID string, opts AvailabilityOptions) (Availability, error) {
	if s == nil {
		return Availability{}, fmt.Errorf("AvailabilityService is nil")
	}
	started := time.Now()
	logger := s.loggerWith(ctx, "ComputeAvailability", "organizer_id", organizerID)

	settings, err := s.settings.GetOrganizerSettings(ctx, organizerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Availability{}, fmt.Errorf("settings for organizer %s: %w", organizerID, ErrNotFound)
		}
		return Availability{}, err
	}
	loc, err := settings.Location()
	if err != nil {
		return Availability{}, err
	}

	now := s.now()
	window := scheduler.ComputeWindow(now, loc, settings.MaxBookingAdvance)

	var (
		blocks    []WorkingHourBlock
		blackouts []BlackoutDate
		bookings  []Booking
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blocks, err = s.settings.ListActiveWorkingHours(gctx, organizerID)
		if err != nil {
			return fmt.Errorf("list working hours: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Blackout instants are nominal days; widen by a day on each side so a
		// date stored at UTC midnight still reaches the local-day comparison.
		var err error
		blackouts, err = s.settings.ListBlackoutDates(gctx, organizerID, window.StartUTC.AddDate(0, 0, -1), window.EndUTC.AddDate(0, 0, 1))
		if err != nil {
			return fmt.Errorf("list blackout dates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// A booking blocks the window if its buffered interval reaches into it.
		var err error
		bookings, err = s.bookings.ListActiveBookings(gctx, organizerID, window.StartUTC.Add(-settings.PostBuffer()), window.EndUTC.Add(settings.PreBuffer()))
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Availability{}, err
	}

	templates := make([]recurrence.Block, 0, len(blocks))
	for _, block := range blocks {
		template := toRecurrenceBlock(block)
		if err := recurrence.ValidateBlock(template); err != nil {
			logger.WarnContext(ctx, "skipping invalid working-hour block", "block_id", block.ID, "error", err)
			continue
		}
		templates = append(templates, template)
	}

	candidates, err := s.engine.Generate(window, templates, settings.MeetingDuration())
	if err != nil {
		return Availability{}, fmt.Errorf("generate slots: %w", err)
	}

	blackoutDays := make([]time.Time, 0, len(blackouts))
	for _, b := range blackouts {
		blackoutDays = append(blackoutDays, b.Date)
	}

	busy := make([]scheduler.Interval, 0, len(bookings))
	for _, b := range bookings {
		if opts.ExcludeBookingID != "" && b.ID == opts.ExcludeBookingID {
			continue
		}
		busy = append(busy, scheduler.Interval{Start: b.Start, End: b.End})
	}

	slots := scheduler.FilterBlackouts(candidates, blackoutDays, loc)
	slots = scheduler.FilterCollisions(slots, busy, settings.PreBuffer(), settings.PostBuffer())
	slots = scheduler.FilterBusinessRules(slots, now, settings.MinNotice())
	scheduler.SortSlots(slots)

	result := Availability{Settings: settings, Slots: make([]Slot, 0, len(slots))}
	for _, slot := range slots {
		result.Slots = append(result.Slots, Slot{
			Start:           slot.Start,
			End:             slot.End,
			DurationMinutes: int(slot.Duration / time.Minute),
			Timezone:        settings.WorkingTimezone,
		})
	}

	metrics.PipelineDuration.Observe(time.Since(started).Seconds())
	metrics.SlotsReturned.Observe(float64(len(result.Slots)))
	logger.DebugContext(ctx, "availability computed",
		"candidates", len(candidates),
		"slots", len(result.Slots),
		"bookings", len(bookings),
		"blackouts", len(blackouts),
	)

	return result, nil
}

// IsSlotAvailable reruns the pipeline and reports whether [start, end) is one
// of the returned slots exactly.
func (s *AvailabilityService) IsSlotAvailable(ctx context.Context, organizerID string, start, end time.Time, opts AvailabilityOptions) (bool, error) {
	availability, err := s.ComputeAvailability(ctx, organizerID, opts)
	if err != nil {
		return false, err
	}
	for _, slot := range availability.Slots {
		if slot.Start.Equal(start) && slot.End.Equal(end) {
			return true, nil
		}
		if slot.Start.After(start) {
			break
		}
	}
	return false, nil
}
