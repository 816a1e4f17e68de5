package persistence

import "time"

// Organizer represents the user whose calendar is scheduled against.
type Organizer struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrganizerSettings holds the scheduling preferences of a single organizer.
// Durations are stored in the units the settings layer edits them in.
type OrganizerSettings struct {
	OrganizerID            string
	WorkingTimezone        string
	DefaultMeetingDuration int // minutes
	PreBookingBuffer       int // minutes
	PostBookingBuffer      int // minutes
	MinBookingNotice       int // hours
	MaxBookingAdvance      int // days
	UpdatedAt              time.Time
}

// WorkingHourBlock is a recurring weekly interval expressed in the organizer's
// local wall clock.
type WorkingHourBlock struct {
	ID          string
	OrganizerID string
	DayOfWeek   time.Weekday
	StartTime   string // HH:mm
	EndTime     string // HH:mm
	IsActive    bool
}

// BlackoutDate marks a calendar day on which no slots are offered.
type BlackoutDate struct {
	ID          string
	OrganizerID string
	Date        time.Time
	Reason      *string
	CreatedAt   time.Time
}

// BookingStatus captures the lifecycle state of a booking.
type BookingStatus string

const (
	// BookingStatusConfirmed is assigned when a booking is committed.
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusCompleted is assigned once the meeting end has passed.
	BookingStatusCompleted BookingStatus = "completed"
	// BookingStatusCancelled accompanies the soft-delete marker.
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents a committed meeting between an organizer and an attendant.
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
