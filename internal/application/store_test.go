package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// memoryStore satisfies every repository interface of the package and is safe
// for concurrent use.
type memoryStore struct {
	mu         sync.Mutex
	organizers map[string]Organizer
	settings   map[string]Settings
	hours      map[string][]WorkingHourBlock
	blackouts  map[string][]BlackoutDate
	bookings   map[string]Booking

	insertErr   error
	bookingsErr error
	inserted    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		organizers: map[string]Organizer{},
		settings:   map[string]Settings{},
		hours:      map[string][]WorkingHourBlock{},
		blackouts:  map[string][]BlackoutDate{},
		bookings:   map[string]Booking{},
	}
}

func (m *memoryStore) GetOrganizer(_ context.Context, id string) (Organizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.organizers[id]
	if !ok {
		return Organizer{}, ErrNotFound
	}
	return org, nil
}

func (m *memoryStore) GetOrganizerByUsername(_ context.Context, username string) (Organizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, org := range m.organizers {
		if org.Username == username {
			return org, nil
		}
	}
	return Organizer{}, ErrNotFound
}

func (m *memoryStore) CreateOrganizer(_ context.Context, organizer Organizer, settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, org := range m.organizers {
		if org.Username == organizer.Username {
			return ErrAlreadyExists
		}
	}
	m.organizers[organizer.ID] = organizer
	m.settings[organizer.ID] = settings
	return nil
}

func (m *memoryStore) GetOrganizerSettings(_ context.Context, organizerID string) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[organizerID]
	if !ok {
		return Settings{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) ListActiveWorkingHours(_ context.Context, organizerID string) ([]WorkingHourBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []WorkingHourBlock
	for _, b := range m.hours[organizerID] {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryStore) ReplaceWorkingHours(_ context.Context, organizerID string, blocks []WorkingHourBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hours[organizerID] = append([]WorkingHourBlock(nil), blocks...)
	return nil
}

func (m *memoryStore) ListBlackoutDates(_ context.Context, organizerID string, rangeStart, rangeEnd time.Time) ([]BlackoutDate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []BlackoutDate
	for _, b := range m.blackouts[organizerID] {
		if !b.Date.Before(rangeStart) && !b.Date.After(rangeEnd) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryStore) AddBlackoutDate(_ context.Context, organizerID string, blackout BlackoutDate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blackouts[organizerID] = append(m.blackouts[organizerID], blackout)
	return nil
}

func (m *memoryStore) ListActiveBookings(_ context.Context, organizerID string, rangeStart, rangeEnd time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bookingsErr != nil {
		return nil, m.bookingsErr
	}
	var out []Booking
	for _, b := range m.bookings {
		if b.OrganizerID != organizerID || b.DeletedAt != nil {
			continue
		}
		if b.Start.Before(rangeEnd) && b.End.After(rangeStart) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *memoryStore) InsertBooking(_ context.Context, booking Booking) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return Booking{}, m.insertErr
	}
	if _, exists := m.bookings[booking.ID]; exists {
		return Booking{}, errors.New("duplicate booking id")
	}
	m.bookings[booking.ID] = booking
	m.inserted++
	return booking, nil
}

func (m *memoryStore) GetBooking(_ context.Context, id string) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

func (m *memoryStore) UpdateBookingTimes(_ context.Context, id string, start, end, updatedAt time.Time) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.DeletedAt != nil {
		return Booking{}, ErrNotFound
	}
	b.Start, b.End, b.UpdatedAt = start, end, updatedAt
	m.bookings[id] = b
	return b, nil
}

func (m *memoryStore) SoftDeleteBooking(_ context.Context, id string, deletedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.DeletedAt != nil {
		return false, nil
	}
	b.DeletedAt = &deletedAt
	b.Status = BookingStatusCancelled
	b.UpdatedAt = deletedAt
	m.bookings[id] = b
	return true, nil
}

func (m *memoryStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserted
}

// seedOrganizer stores an organizer with a 09:00-17:00 template on the given
// weekdays and returns its id.
func (m *memoryStore) seedOrganizer(username string, settings Settings, days ...time.Weekday) Organizer {
	id := "org-" + username
	org := Organizer{ID: id, Username: username, DisplayName: username, Email: username + "@example.com"}
	settings.OrganizerID = id
	m.organizers[id] = org
	m.settings[id] = settings
	for i, day := range days {
		m.hours[id] = append(m.hours[id], WorkingHourBlock{
			ID:        id + "-block-" + string(rune('a'+i)),
			DayOfWeek: day,
			StartTime: "09:00",
			EndTime:   "17:00",
			IsActive:  true,
		})
	}
	return org
}

func (m *memoryStore) seedBooking(b Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Status == "" {
		b.Status = BookingStatusConfirmed
	}
	m.bookings[b.ID] = b
}

func baseSettings() Settings {
	return Settings{
		WorkingTimezone:        "UTC",
		DefaultMeetingDuration: 60,
		MinBookingNotice:       0,
		MaxBookingAdvance:      7,
	}
}

// monday0800 is a Monday morning before working hours start.
var monday0800 = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func slotsOn(slots []Slot, day time.Time) []Slot {
	var out []Slot
	y, m, d := day.Date()
	for _, s := range slots {
		sy, sm, sd := s.Start.In(day.Location()).Date()
		if sy == y && sm == m && sd == d {
			out = append(out, s)
		}
	}
	return out
}

func hasSlotAt(slots []Slot, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}
