package application

import (
	"fmt"
	"time"
)

// Principal identifies the caller acting on a booking. UserID and Email are
// supplied by the external authentication layer; ManageToken is the secret
// handed to the attendant when the booking was created.
type Principal struct {
	UserID      string
	Email       string
	ManageToken string
}

// Organizer is the user whose calendar is booked against.
type Organizer struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settings holds the scheduling configuration of an organizer in the units it
// is edited in.
type Settings struct {
	OrganizerID            string
	WorkingTimezone        string
	DefaultMeetingDuration int // minutes
	PreBookingBuffer       int // minutes
	PostBookingBuffer      int // minutes
	MinBookingNotice       int // hours
	MaxBookingAdvance      int // days
}

// Location loads the organizer's working timezone.
func (s Settings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.WorkingTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", s.WorkingTimezone, err)
	}
	return loc, nil
}

// MeetingDuration returns the slot length.
func (s Settings) MeetingDuration() time.Duration {
	return time.Duration(s.DefaultMeetingDuration) * time.Minute
}

// PreBuffer returns the padding before existing bookings.
func (s Settings) PreBuffer() time.Duration {
	return time.Duration(s.PreBookingBuffer) * time.Minute
}

// PostBuffer returns the padding after existing bookings.
func (s Settings) PostBuffer() time.Duration {
	return time.Duration(s.PostBookingBuffer) * time.Minute
}

// MinNotice returns the shortest allowed lead time.
func (s Settings) MinNotice() time.Duration {
	return time.Duration(s.MinBookingNotice) * time.Hour
}

// WorkingHourBlock is a recurring weekly interval in the organizer's wall clock.
type WorkingHourBlock struct {
	ID        string
	DayOfWeek time.Weekday
	StartTime string
	EndTime   string
	IsActive  bool
}

// BlackoutDate marks a calendar day without availability.
type BlackoutDate struct {
	ID     string
	Date   time.Time
	Reason *string
}

// BookingStatus captures the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a committed meeting.
type Booking struct {
	ID              string
	OrganizerID     string
	AttendantName   string
	AttendantEmail  string
	Title           string
	Description     *string
	Start           time.Time
	End             time.Time
	Status          BookingStatus
	Metadata        map[string]string
	ManageTokenHash string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// Slot is an available meeting interval as presented to callers.
type Slot struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Timezone        string
}

// Availability is the result of one pipeline run.
type Availability struct {
	Settings Settings
	Slots    []Slot
}

// AvailabilityOptions tunes a pipeline run.
type AvailabilityOptions struct {
	// ExcludeBookingID ignores one booking when checking collisions so that a
	// booking being rescheduled does not block its own neighbourhood.
	ExcludeBookingID string
}

// CommitBookingParams carries a booking request for a specific slot.
type CommitBookingParams struct {
	OrganizerUsername string            `json:"organizer_username" validate:"required"`
	AttendantName     string            `json:"attendant_name" validate:"required,max=100"`
	AttendantEmail    string            `json:"attendant_email" validate:"required,email,max=254"`
	Title             string            `json:"title" validate:"required,max=200"`
	Description       *string           `json:"description" validate:"omitempty,max=2000"`
	Start             time.Time         `json:"start_time" validate:"required"`
	End               time.Time         `json:"end_time" validate:"required,gtfield=Start"`
	Metadata          map[string]string `json:"metadata" validate:"omitempty,max=20,dive,keys,required,max=64,endkeys,max=500"`
}

// CommitBookingResult is the persisted booking plus the one-time manage token.
type CommitBookingResult struct {
	Booking     Booking
	ManageToken string
}

// RescheduleBookingParams moves an existing booking to another slot.
type RescheduleBookingParams struct {
	Principal Principal `json:"-"`
	BookingID string    `json:"booking_id" validate:"required"`
	Start     time.Time `json:"start_time" validate:"required"`
	End       time.Time `json:"end_time" validate:"required,gtfield=Start"`
}

// CancelBookingParams identifies the booking to cancel and the caller.
type CancelBookingParams struct {
	Principal Principal
	BookingID string
}

// ListBookingsParams selects an organizer's bookings intersecting [From, To).
type ListBookingsParams struct {
	Principal         Principal
	OrganizerUsername string
	From              time.Time
	To                time.Time
}

// CreateOrganizerParams provisions an organizer with its settings.
type CreateOrganizerParams struct {
	Username               string `json:"username" validate:"required,username"`
	DisplayName            string `json:"display_name" validate:"required,max=100"`
	Email                  string `json:"email" validate:"required,email,max=254"`
	WorkingTimezone        string `json:"working_timezone" validate:"required,timezone"`
	DefaultMeetingDuration int    `json:"default_meeting_duration" validate:"min=15,max=240"`
	PreBookingBuffer       int    `json:"pre_booking_buffer" validate:"min=0,max=120"`
	PostBookingBuffer      int    `json:"post_booking_buffer" validate:"min=0,max=120"`
	MinBookingNotice       int    `json:"min_booking_notice" validate:"min=0,max=168"`
	MaxBookingAdvance      int    `json:"max_booking_advance" validate:"min=1,max=365"`
}
