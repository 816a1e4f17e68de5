package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
	"github.com/example/meeting-scheduler/internal/persistence"
)

var (
	organizerCounter uint64
	bookingCounter   uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Organizer fixtures ---------------------------

// OrganizerFixture represents an organizer together with its settings and
// weekly working hours.
type OrganizerFixture struct {
	ID                     string
	Username               string
	DisplayName            string
	Email                  string
	WorkingTimezone        string
	DefaultMeetingDuration int
	PreBookingBuffer       int
	PostBookingBuffer      int
	MinBookingNotice       int
	MaxBookingAdvance      int
	WorkingDays            []time.Weekday
	DayStart               string
	DayEnd                 string
	CreatedAt              time.Time
}

// OrganizerOption configures the generated organizer fixture.
type OrganizerOption func(*OrganizerFixture)

// NewOrganizerFixture returns an organizer working 09:00-17:00 UTC Monday to
// Friday with hour long meetings, no buffers and a two week horizon.
func NewOrganizerFixture(opts ...OrganizerOption) OrganizerFixture {
	idx := atomic.AddUint64(&organizerCounter, 1)
	fixture := OrganizerFixture{
		ID:                     fmt.Sprintf("org-%03d", idx),
		Username:               fmt.Sprintf("organizer%03d", idx),
		DisplayName:            fmt.Sprintf("Organizer %03d", idx),
		Email:                  fmt.Sprintf("organizer%03d@example.com", idx),
		WorkingTimezone:        "UTC",
		DefaultMeetingDuration: 60,
		MaxBookingAdvance:      14,
		WorkingDays:            []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		DayStart:               "09:00",
		DayEnd:                 "17:00",
		CreatedAt:              referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithOrganizerID overrides the identifier.
func WithOrganizerID(id string) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.ID = id
	}
}

// WithUsername overrides the username.
func WithUsername(username string) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.Username = username
	}
}

// WithTimezone overrides the working timezone.
func WithTimezone(tz string) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.WorkingTimezone = tz
	}
}

// WithMeetingDuration overrides the slot length in minutes.
func WithMeetingDuration(minutes int) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.DefaultMeetingDuration = minutes
	}
}

// WithBuffers sets the pre and post booking buffers in minutes.
func WithBuffers(pre, post int) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.PreBookingBuffer = pre
		f.PostBookingBuffer = post
	}
}

// WithMinNotice sets the minimum booking notice in hours.
func WithMinNotice(hours int) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.MinBookingNotice = hours
	}
}

// WithMaxAdvance sets the booking horizon in days.
func WithMaxAdvance(days int) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.MaxBookingAdvance = days
	}
}

// WithWorkingDays replaces the working weekdays.
func WithWorkingDays(days ...time.Weekday) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.WorkingDays = append([]time.Weekday(nil), days...)
	}
}

// WithWorkingHours replaces the daily start and end clock times.
func WithWorkingHours(start, end string) OrganizerOption {
	return func(f *OrganizerFixture) {
		f.DayStart = start
		f.DayEnd = end
	}
}

// Persistence returns the organizer and settings rows.
func (f OrganizerFixture) Persistence() (persistence.Organizer, persistence.OrganizerSettings) {
	organizer := persistence.Organizer{
		ID:          f.ID,
		Username:    f.Username,
		DisplayName: f.DisplayName,
		Email:       f.Email,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
	settings := persistence.OrganizerSettings{
		OrganizerID:            f.ID,
		WorkingTimezone:        f.WorkingTimezone,
		DefaultMeetingDuration: f.DefaultMeetingDuration,
		PreBookingBuffer:       f.PreBookingBuffer,
		PostBookingBuffer:      f.PostBookingBuffer,
		MinBookingNotice:       f.MinBookingNotice,
		MaxBookingAdvance:      f.MaxBookingAdvance,
		UpdatedAt:              f.CreatedAt,
	}
	return organizer, settings
}

// WorkingHours returns one active block per working day.
func (f OrganizerFixture) WorkingHours() []persistence.WorkingHourBlock {
	blocks := make([]persistence.WorkingHourBlock, 0, len(f.WorkingDays))
	for _, day := range f.WorkingDays {
		blocks = append(blocks, persistence.WorkingHourBlock{
			ID:          fmt.Sprintf("%s-wh-%d", f.ID, day),
			OrganizerID: f.ID,
			DayOfWeek:   day,
			StartTime:   f.DayStart,
			EndTime:     f.DayEnd,
			IsActive:    true,
		})
	}
	return blocks
}

// CreateParams returns the provisioning request for the fixture.
func (f OrganizerFixture) CreateParams() application.CreateOrganizerParams {
	return application.CreateOrganizerParams{
		Username:               f.Username,
		DisplayName:            f.DisplayName,
		Email:                  f.Email,
		WorkingTimezone:        f.WorkingTimezone,
		DefaultMeetingDuration: f.DefaultMeetingDuration,
		PreBookingBuffer:       f.PreBookingBuffer,
		PostBookingBuffer:      f.PostBookingBuffer,
		MinBookingNotice:       f.MinBookingNotice,
		MaxBookingAdvance:      f.MaxBookingAdvance,
	}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture represents a confirmed booking.
type BookingFixture struct {
	ID             string
	OrganizerID    string
	AttendantName  string
	AttendantEmail string
	Title          string
	Description    *string
	Start          time.Time
	End            time.Time
	Metadata       map[string]string
	CreatedAt      time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns an hour long booking starting one day after
// ReferenceTime, truncated to the hour.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Truncate(time.Hour).Add(24 * time.Hour)
	fixture := BookingFixture{
		ID:             fmt.Sprintf("booking-%03d", idx),
		OrganizerID:    "org-001",
		AttendantName:  fmt.Sprintf("Attendant %03d", idx),
		AttendantEmail: fmt.Sprintf("attendant%03d@example.com", idx),
		Title:          fmt.Sprintf("Meeting %03d", idx),
		Start:          start,
		End:            start.Add(time.Hour),
		CreatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the identifier.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingOrganizer sets the owning organizer.
func WithBookingOrganizer(id string) BookingOption {
	return func(f *BookingFixture) {
		f.OrganizerID = id
	}
}

// WithBookingTimes sets the booked interval.
func WithBookingTimes(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithAttendant sets the attendant name and email.
func WithAttendant(name, email string) BookingOption {
	return func(f *BookingFixture) {
		f.AttendantName = name
		f.AttendantEmail = email
	}
}

// WithBookingMetadata sets free-form metadata.
func WithBookingMetadata(metadata map[string]string) BookingOption {
	return func(f *BookingFixture) {
		f.Metadata = metadata
	}
}

// Persistence returns the booking row.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:             f.ID,
		OrganizerID:    f.OrganizerID,
		AttendantName:  f.AttendantName,
		AttendantEmail: f.AttendantEmail,
		Title:          f.Title,
		Description:    copyStringPtr(f.Description),
		Start:          f.Start,
		End:            f.End,
		Status:         persistence.BookingStatusConfirmed,
		Metadata:       f.Metadata,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.CreatedAt,
	}
}

// CommitParams returns the booking request for the fixture's slot.
func (f BookingFixture) CommitParams(organizerUsername string) application.CommitBookingParams {
	return application.CommitBookingParams{
		OrganizerUsername: organizerUsername,
		AttendantName:     f.AttendantName,
		AttendantEmail:    f.AttendantEmail,
		Title:             f.Title,
		Description:       copyStringPtr(f.Description),
		Start:             f.Start,
		End:               f.End,
		Metadata:          f.Metadata,
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
