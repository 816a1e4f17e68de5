package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meeting-scheduler/internal/lock"
	"github.com/example/meeting-scheduler/internal/metrics"
)

// BookingRepository captures the booking persistence used by the commit protocol.
type BookingRepository interface {
	BookingReader
	InsertBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBookingTimes(ctx context.Context, id string, start, end, updatedAt time.Time) (Booking, error)
	SoftDeleteBooking(ctx context.Context, id string, deletedAt time.Time) (bool, error)
}

// SettingsLookup fetches an organizer's scheduling settings.
type SettingsLookup interface {
	GetOrganizerSettings(ctx context.Context, organizerID string) (Settings, error)
}

// SlotChecker revalidates a single slot while its lock is held.
type SlotChecker interface {
	IsSlotAvailable(ctx context.Context, organizerID string, start, end time.Time, opts AvailabilityOptions) (bool, error)
}

// BookingService turns a client-selected slot into a persisted booking.
//
// Every commit runs Validate, AcquireLock, Revalidate, Persist and finally
// releases the lock on all exit paths. Losing the lock race or finding the
// slot gone during revalidation yields ErrConflict.
type BookingService struct {
	organizers     OrganizerDirectory
	settings       SettingsLookup
	bookings       BookingRepository
	availability   SlotChecker
	locker         lock.Locker
	idGenerator    func() string
	tokenGenerator func() (string, error)
	tokenParams    Argon2idParams
	now            func() time.Time
	logger         *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(organizers OrganizerDirectory, settings SettingsLookup, bookings BookingRepository, availability SlotChecker, locker lock.Locker, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(organizers, settings, bookings, availability, locker, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies with a specified logger.
func NewBookingServiceWithLogger(organizers OrganizerDirectory, settings SettingsLookup, bookings BookingRepository, availability SlotChecker, locker lock.Locker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		organizers:     organizers,
		settings:       settings,
		bookings:       bookings,
		availability:   availability,
		locker:         locker,
		idGenerator:    idGenerator,
		tokenGenerator: NewManageToken,
		tokenParams:    DefaultArgon2idParams,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CommitBooking books the slot [params.Start, params.End) with the organizer.
func (s *BookingService) CommitBooking(ctx context.Context, params CommitBookingParams) (result CommitBookingResult, err error) {
	if s == nil {
		return CommitBookingResult{}, fmt.Errorf("BookingService is nil")
	}
	logger := s.loggerWith(ctx, "CommitBooking",
		"organizer_username", params.OrganizerUsername,
		"slot_start", params.Start.UTC(),
	)
	defer func() {
		metrics.CommitOutcomes.WithLabelValues("commit", outcomeLabel(err)).Inc()
		if err != nil {
			logger.ErrorContext(ctx, "failed to commit booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", result.Booking.ID).InfoContext(ctx, "booking committed")
	}()

	// Validate
	params = normalizeCommitParams(params)
	if vErr := validateStruct(params); vErr.HasErrors() {
		return CommitBookingResult{}, vErr
	}

	organizer, err := s.organizers.GetOrganizerByUsername(ctx, params.OrganizerUsername)
	if err != nil {
		return CommitBookingResult{}, err
	}
	if err := s.requireSettings(ctx, organizer.ID); err != nil {
		return CommitBookingResult{}, err
	}

	token, err := s.tokenGenerator()
	if err != nil {
		return CommitBookingResult{}, fmt.Errorf("generate manage token: %w", err)
	}
	tokenHash, err := HashManageToken(token, s.tokenParams)
	if err != nil {
		return CommitBookingResult{}, fmt.Errorf("hash manage token: %w", err)
	}

	var persisted Booking
	err = s.withSlotLock(ctx, organizer.ID, params.Start, func(ctx context.Context) error {
		// Revalidate
		if err := s.ensureAvailable(ctx, organizer.ID, params.Start, params.End, AvailabilityOptions{}); err != nil {
			return err
		}

		// Persist
		createdAt := s.now()
		booking := Booking{
			ID:              s.idGenerator(),
			OrganizerID:     organizer.ID,
			AttendantName:   params.AttendantName,
			AttendantEmail:  params.AttendantEmail,
			Title:           params.Title,
			Description:     params.Description,
			Start:           params.Start,
			End:             params.End,
			Status:          BookingStatusConfirmed,
			Metadata:        params.Metadata,
			ManageTokenHash: tokenHash,
			CreatedAt:       createdAt,
			UpdatedAt:       createdAt,
		}

		var err error
		persisted, err = s.bookings.InsertBooking(ctx, booking)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return CommitBookingResult{}, err
	}

	return CommitBookingResult{Booking: persisted, ManageToken: token}, nil
}

// RescheduleBooking moves an active booking to another free slot. The lock is
// taken on the new slot, and the booking being moved is ignored during
// revalidation so that it does not collide with itself.
func (s *BookingService) RescheduleBooking(ctx context.Context, params RescheduleBookingParams) (booking Booking, err error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	logger := s.loggerWith(ctx, "RescheduleBooking",
		"booking_id", params.BookingID,
		"slot_start", params.Start.UTC(),
	)
	defer func() {
		metrics.CommitOutcomes.WithLabelValues("reschedule", outcomeLabel(err)).Inc()
		if err != nil {
			logger.ErrorContext(ctx, "failed to reschedule booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking rescheduled")
	}()

	params.Start = params.Start.UTC()
	params.End = params.End.UTC()
	if vErr := validateStruct(params); vErr.HasErrors() {
		return Booking{}, vErr
	}

	existing, err := s.activeBooking(ctx, params.BookingID)
	if err != nil {
		return Booking{}, err
	}
	if err := authorizeBookingAccess(existing, params.Principal); err != nil {
		return Booking{}, err
	}
	if err := s.requireSettings(ctx, existing.OrganizerID); err != nil {
		return Booking{}, err
	}

	err = s.withSlotLock(ctx, existing.OrganizerID, params.Start, func(ctx context.Context) error {
		opts := AvailabilityOptions{ExcludeBookingID: existing.ID}
		if err := s.ensureAvailable(ctx, existing.OrganizerID, params.Start, params.End, opts); err != nil {
			return err
		}

		var err error
		booking, err = s.bookings.UpdateBookingTimes(ctx, existing.ID, params.Start, params.End, s.now())
		if err != nil {
			return fmt.Errorf("update booking times: %w", err)
		}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}
	return booking, nil
}

// CancelBooking soft-deletes a booking after checking that the caller is the
// organizer, the attendant, or holds the booking's manage token.
func (s *BookingService) CancelBooking(ctx context.Context, params CancelBookingParams) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	logger := s.loggerWith(ctx, "CancelBooking", "booking_id", params.BookingID)
	defer func() {
		metrics.CommitOutcomes.WithLabelValues("cancel", outcomeLabel(err)).Inc()
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled")
	}()

	existing, err := s.activeBooking(ctx, params.BookingID)
	if err != nil {
		return err
	}
	if err := authorizeBookingAccess(existing, params.Principal); err != nil {
		return err
	}

	deleted, err := s.bookings.SoftDeleteBooking(ctx, existing.ID, s.now())
	if err != nil {
		return fmt.Errorf("soft delete booking: %w", err)
	}
	if !deleted {
		// Cancelled concurrently by someone else.
		return ErrNotFound
	}
	return nil
}

// GetBooking returns a booking visible to the principal. Cancelled bookings
// are still returned, with DeletedAt set and status cancelled.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, id string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	if err := authorizeBookingAccess(booking, principal); err != nil {
		return Booking{}, err
	}
	return booking, nil
}

// ListBookings returns the organizer's active bookings intersecting [From, To).
// Only the organizer may list.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (bookings []Booking, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	logger := s.loggerWith(ctx, "ListBookings", "organizer_username", params.OrganizerUsername)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).InfoContext(ctx, "bookings listed")
	}()

	vErr := &ValidationError{}
	if params.From.IsZero() {
		vErr.add("from", "this field is required")
	}
	if params.To.IsZero() {
		vErr.add("to", "this field is required")
	} else if !params.To.After(params.From) {
		vErr.add("to", "must be after from")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	organizer, err := s.organizers.GetOrganizerByUsername(ctx, params.OrganizerUsername)
	if err != nil {
		return nil, err
	}
	if params.Principal.UserID == "" || params.Principal.UserID != organizer.ID {
		return nil, ErrPermission
	}

	return s.bookings.ListActiveBookings(ctx, organizer.ID, params.From, params.To)
}

// withSlotLock maps lock contention to ErrConflict and records lock metrics.
func (s *BookingService) withSlotLock(ctx context.Context, organizerID string, start time.Time, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fmt.Errorf("booking locker not configured")
	}

	attempted := false
	err := lock.WithLock(ctx, s.locker, organizerID, start, func(ctx context.Context) error {
		attempted = true
		metrics.LockAttempts.WithLabelValues("acquired").Inc()
		return fn(ctx)
	})

	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		metrics.LockAttempts.WithLabelValues("contended").Inc()
		return fmt.Errorf("%w: slot is being booked by another request", ErrConflict)
	case err != nil && !attempted:
		metrics.LockAttempts.WithLabelValues("error").Inc()
	}
	return err
}

// requireSettings surfaces missing organizer settings before any lock is taken.
func (s *BookingService) requireSettings(ctx context.Context, organizerID string) error {
	if s.settings == nil {
		return fmt.Errorf("booking settings reader not configured")
	}
	if _, err := s.settings.GetOrganizerSettings(ctx, organizerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("settings for organizer %s: %w", organizerID, ErrNotFound)
		}
		return fmt.Errorf("load settings: %w", err)
	}
	return nil
}

func (s *BookingService) ensureAvailable(ctx context.Context, organizerID string, start, end time.Time, opts AvailabilityOptions) error {
	available, err := s.availability.IsSlotAvailable(ctx, organizerID, start, end, opts)
	if err != nil {
		return fmt.Errorf("revalidate slot: %w", err)
	}
	if !available {
		return ErrConflict
	}
	return nil
}

func (s *BookingService) activeBooking(ctx context.Context, id string) (Booking, error) {
	if strings.TrimSpace(id) == "" {
		return Booking{}, ErrNotFound
	}
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	if booking.DeletedAt != nil {
		return Booking{}, ErrNotFound
	}
	return booking, nil
}

// authorizeBookingAccess allows the organizer, the attendant (by email, case
// insensitive) and any holder of the manage token.
func authorizeBookingAccess(booking Booking, principal Principal) error {
	if principal.UserID != "" && principal.UserID == booking.OrganizerID {
		return nil
	}
	if principal.Email != "" && strings.EqualFold(strings.TrimSpace(principal.Email), booking.AttendantEmail) {
		return nil
	}
	if principal.ManageToken != "" && booking.ManageTokenHash != "" {
		if err := VerifyManageToken(booking.ManageTokenHash, principal.ManageToken); err == nil {
			return nil
		}
	}
	return ErrPermission
}

func normalizeCommitParams(params CommitBookingParams) CommitBookingParams {
	params.OrganizerUsername = strings.ToLower(strings.TrimSpace(params.OrganizerUsername))
	params.AttendantName = strings.TrimSpace(params.AttendantName)
	params.AttendantEmail = strings.ToLower(strings.TrimSpace(params.AttendantEmail))
	params.Title = strings.TrimSpace(params.Title)
	if params.Description != nil {
		trimmed := strings.TrimSpace(*params.Description)
		if trimmed == "" {
			params.Description = nil
		} else {
			params.Description = &trimmed
		}
	}
	params.Start = params.Start.UTC()
	params.End = params.End.UTC()
	return params
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorKind(err)
}
