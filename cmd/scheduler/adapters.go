package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
	"github.com/example/meeting-scheduler/internal/persistence"
)

// storageAdapter exposes a persistence backend through the interfaces the
// application services depend on.
type storageAdapter struct {
	organizers persistence.OrganizerRepository
	settings   persistence.SettingsRepository
	bookings   persistence.BookingRepository
	now        func() time.Time
}

type storageBackend interface {
	persistence.OrganizerRepository
	persistence.SettingsRepository
	persistence.BookingRepository
}

func newStorageAdapter(backend storageBackend, now func() time.Time) *storageAdapter {
	if now == nil {
		now = time.Now
	}
	return &storageAdapter{
		organizers: backend,
		settings:   backend,
		bookings:   backend,
		now:        now,
	}
}

var (
	_ application.OrganizerStore    = (*storageAdapter)(nil)
	_ application.SettingsReader    = (*storageAdapter)(nil)
	_ application.BookingRepository = (*storageAdapter)(nil)
)

func (a *storageAdapter) CreateOrganizer(ctx context.Context, organizer application.Organizer, settings application.Settings) error {
	model, settingsModel := toPersistenceOrganizer(organizer, settings)
	return translateError(a.organizers.CreateOrganizer(ctx, model, settingsModel))
}

func (a *storageAdapter) GetOrganizer(ctx context.Context, id string) (application.Organizer, error) {
	stored, err := a.organizers.GetOrganizer(ctx, id)
	if err != nil {
		return application.Organizer{}, translateError(err)
	}
	return toApplicationOrganizer(stored), nil
}

func (a *storageAdapter) GetOrganizerByUsername(ctx context.Context, username string) (application.Organizer, error) {
	stored, err := a.organizers.GetOrganizerByUsername(ctx, username)
	if err != nil {
		return application.Organizer{}, translateError(err)
	}
	return toApplicationOrganizer(stored), nil
}

func (a *storageAdapter) GetOrganizerSettings(ctx context.Context, organizerID string) (application.Settings, error) {
	stored, err := a.settings.GetOrganizerSettings(ctx, organizerID)
	if err != nil {
		return application.Settings{}, translateError(err)
	}
	return application.Settings{
		OrganizerID:            stored.OrganizerID,
		WorkingTimezone:        stored.WorkingTimezone,
		DefaultMeetingDuration: stored.DefaultMeetingDuration,
		PreBookingBuffer:       stored.PreBookingBuffer,
		PostBookingBuffer:      stored.PostBookingBuffer,
		MinBookingNotice:       stored.MinBookingNotice,
		MaxBookingAdvance:      stored.MaxBookingAdvance,
	}, nil
}

func (a *storageAdapter) ListActiveWorkingHours(ctx context.Context, organizerID string) ([]application.WorkingHourBlock, error) {
	models, err := a.settings.ListActiveWorkingHours(ctx, organizerID)
	if err != nil {
		return nil, translateError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	blocks := make([]application.WorkingHourBlock, 0, len(models))
	for _, model := range models {
		blocks = append(blocks, application.WorkingHourBlock{
			ID:        model.ID,
			DayOfWeek: model.DayOfWeek,
			StartTime: model.StartTime,
			EndTime:   model.EndTime,
			IsActive:  model.IsActive,
		})
	}
	return blocks, nil
}

func (a *storageAdapter) ReplaceWorkingHours(ctx context.Context, organizerID string, blocks []application.WorkingHourBlock) error {
	models := make([]persistence.WorkingHourBlock, 0, len(blocks))
	for _, block := range blocks {
		models = append(models, persistence.WorkingHourBlock{
			ID:          block.ID,
			OrganizerID: organizerID,
			DayOfWeek:   block.DayOfWeek,
			StartTime:   block.StartTime,
			EndTime:     block.EndTime,
			IsActive:    block.IsActive,
		})
	}
	return translateError(a.settings.ReplaceWorkingHours(ctx, organizerID, models))
}

func (a *storageAdapter) ListBlackoutDates(ctx context.Context, organizerID string, rangeStart, rangeEnd time.Time) ([]application.BlackoutDate, error) {
	models, err := a.settings.ListBlackoutDates(ctx, organizerID, rangeStart, rangeEnd)
	if err != nil {
		return nil, translateError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	dates := make([]application.BlackoutDate, 0, len(models))
	for _, model := range models {
		dates = append(dates, application.BlackoutDate{
			ID:     model.ID,
			Date:   model.Date,
			Reason: cloneString(model.Reason),
		})
	}
	return dates, nil
}

func (a *storageAdapter) AddBlackoutDate(ctx context.Context, organizerID string, blackout application.BlackoutDate) error {
	return translateError(a.settings.AddBlackoutDate(ctx, persistence.BlackoutDate{
		ID:          blackout.ID,
		OrganizerID: organizerID,
		Date:        blackout.Date,
		Reason:      cloneString(blackout.Reason),
		CreatedAt:   a.now().UTC(),
	}))
}

func (a *storageAdapter) ListActiveBookings(ctx context.Context, organizerID string, rangeStart, rangeEnd time.Time) ([]application.Booking, error) {
	models, err := a.bookings.ListBookings(ctx, persistence.BookingFilter{
		OrganizerID:  organizerID,
		StartsBefore: &rangeEnd,
		EndsAfter:    &rangeStart,
	})
	if err != nil {
		return nil, translateError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

func (a *storageAdapter) InsertBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.bookings.InsertBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, translateError(err)
	}
	return a.GetBooking(ctx, booking.ID)
}

func (a *storageAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.bookings.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, translateError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *storageAdapter) UpdateBookingTimes(ctx context.Context, id string, start, end, updatedAt time.Time) (application.Booking, error) {
	if err := a.bookings.UpdateBookingTimes(ctx, id, start, end, updatedAt); err != nil {
		return application.Booking{}, translateError(err)
	}
	return a.GetBooking(ctx, id)
}

func (a *storageAdapter) SoftDeleteBooking(ctx context.Context, id string, deletedAt time.Time) (bool, error) {
	deleted, err := a.bookings.SoftDeleteBooking(ctx, id, deletedAt)
	if err != nil {
		return false, translateError(err)
	}
	return deleted, nil
}

// translateError maps persistence sentinels onto their application
// counterparts. Other errors pass through unchanged.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", application.ErrAlreadyExists, err)
	default:
		return err
	}
}

func toApplicationOrganizer(model persistence.Organizer) application.Organizer {
	return application.Organizer{
		ID:          model.ID,
		Username:    model.Username,
		DisplayName: model.DisplayName,
		Email:       model.Email,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceOrganizer(organizer application.Organizer, settings application.Settings) (persistence.Organizer, persistence.OrganizerSettings) {
	model := persistence.Organizer{
		ID:          organizer.ID,
		Username:    organizer.Username,
		DisplayName: organizer.DisplayName,
		Email:       organizer.Email,
		CreatedAt:   organizer.CreatedAt,
		UpdatedAt:   organizer.UpdatedAt,
	}
	settingsModel := persistence.OrganizerSettings{
		OrganizerID:            organizer.ID,
		WorkingTimezone:        settings.WorkingTimezone,
		DefaultMeetingDuration: settings.DefaultMeetingDuration,
		PreBookingBuffer:       settings.PreBookingBuffer,
		PostBookingBuffer:      settings.PostBookingBuffer,
		MinBookingNotice:       settings.MinBookingNotice,
		MaxBookingAdvance:      settings.MaxBookingAdvance,
		UpdatedAt:              organizer.UpdatedAt,
	}
	return model, settingsModel
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:              model.ID,
		OrganizerID:     model.OrganizerID,
		AttendantName:   model.AttendantName,
		AttendantEmail:  model.AttendantEmail,
		Title:           model.Title,
		Description:     cloneString(model.Description),
		Start:           model.Start,
		End:             model.End,
		Status:          application.BookingStatus(model.Status),
		Metadata:        cloneMetadata(model.Metadata),
		ManageTokenHash: model.ManageTokenHash,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
		DeletedAt:       cloneTime(model.DeletedAt),
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:              booking.ID,
		OrganizerID:     booking.OrganizerID,
		AttendantName:   booking.AttendantName,
		AttendantEmail:  booking.AttendantEmail,
		Title:           booking.Title,
		Description:     cloneString(booking.Description),
		Start:           booking.Start,
		End:             booking.End,
		Status:          persistence.BookingStatus(booking.Status),
		Metadata:        cloneMetadata(booking.Metadata),
		ManageTokenHash: booking.ManageTokenHash,
		CreatedAt:       booking.CreatedAt,
		UpdatedAt:       booking.UpdatedAt,
		DeletedAt:       cloneTime(booking.DeletedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneMetadata(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
