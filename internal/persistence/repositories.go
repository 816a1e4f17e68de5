package persistence

import (
	"context"
	"time"
)

// OrganizerRepository exposes organizer lookups and provisioning.
type OrganizerRepository interface {
	// CreateOrganizer stores the organizer together with its settings in one transaction.
	CreateOrganizer(ctx context.Context, organizer Organizer, settings OrganizerSettings) error
	GetOrganizer(ctx context.Context, id string) (Organizer, error)
	GetOrganizerByUsername(ctx context.Context, username string) (Organizer, error)
}

// SettingsRepository exposes the scheduling configuration of organizers.
type SettingsRepository interface {
	GetOrganizerSettings(ctx context.Context, organizerID string) (OrganizerSettings, error)
	ListActiveWorkingHours(ctx context.Context, organizerID string) ([]WorkingHourBlock, error)
	ReplaceWorkingHours(ctx context.Context, organizerID string, blocks []WorkingHourBlock) error
	ListBlackoutDates(ctx context.Context, organizerID string, rangeStart, rangeEnd time.Time) ([]BlackoutDate, error)
	AddBlackoutDate(ctx context.Context, blackout BlackoutDate) error
}

// BookingFilter narrows booking queries to an organizer and an optional range.
type BookingFilter struct {
	OrganizerID    string
	StartsBefore   *time.Time
	EndsAfter      *time.Time
	IncludeDeleted bool
}

// BookingRepository stores bookings. Deletion is always soft.
type BookingRepository interface {
	InsertBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	UpdateBookingTimes(ctx context.Context, id string, start, end, updatedAt time.Time) error
	SoftDeleteBooking(ctx context.Context, id string, deletedAt time.Time) (bool, error)
	CompleteBookingsEndedBefore(ctx context.Context, reference time.Time) (int64, error)
}
