package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
)

type capturingOrganizerStore struct {
	organizer application.Organizer
	settings  application.Settings
}

func (c *capturingOrganizerStore) GetOrganizer(ctx context.Context, id string) (application.Organizer, error) {
	return application.Organizer{}, application.ErrNotFound
}

func (c *capturingOrganizerStore) GetOrganizerByUsername(ctx context.Context, username string) (application.Organizer, error) {
	return application.Organizer{}, application.ErrNotFound
}

func (c *capturingOrganizerStore) CreateOrganizer(ctx context.Context, organizer application.Organizer, settings application.Settings) error {
	c.organizer = organizer
	c.settings = settings
	return nil
}

func (c *capturingOrganizerStore) GetOrganizerSettings(ctx context.Context, organizerID string) (application.Settings, error) {
	return application.Settings{}, application.ErrNotFound
}

func (c *capturingOrganizerStore) ReplaceWorkingHours(ctx context.Context, organizerID string, blocks []application.WorkingHourBlock) error {
	return nil
}

func (c *capturingOrganizerStore) AddBlackoutDate(ctx context.Context, organizerID string, blackout application.BlackoutDate) error {
	return nil
}

func TestServiceFactoryNewOrganizerService(t *testing.T) {
	factory := NewServiceFactory(WithClock(NewClock(ReferenceTime())))
	store := &capturingOrganizerStore{}

	svc := factory.NewOrganizerService(OrganizerServiceDeps{Store: store})
	fixture := NewOrganizerFixture(WithTimezone("Asia/Tokyo"))

	organizer, err := svc.CreateOrganizer(context.Background(), fixture.CreateParams())
	if err != nil {
		t.Fatalf("CreateOrganizer returned error: %v", err)
	}

	if organizer.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", organizer.ID)
	}
	if store.organizer.ID != organizer.ID {
		t.Fatalf("store received unexpected ID: %q", store.organizer.ID)
	}
	if store.settings.OrganizerID != organizer.ID {
		t.Fatalf("settings not linked to organizer: %q", store.settings.OrganizerID)
	}
	if store.settings.WorkingTimezone != "Asia/Tokyo" {
		t.Fatalf("expected timezone Asia/Tokyo, got %q", store.settings.WorkingTimezone)
	}
	if !organizer.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), organizer.CreatedAt)
	}
}

func TestServiceFactoryNewBookingServiceDefaultsLocker(t *testing.T) {
	factory := NewServiceFactory()
	if svc := factory.NewBookingService(BookingServiceDeps{}); svc == nil {
		t.Fatal("expected booking service")
	}
}

func TestOrganizerFixtureWorkingHours(t *testing.T) {
	fixture := NewOrganizerFixture(WithWorkingDays(time.Monday, time.Wednesday), WithWorkingHours("08:00", "12:00"))

	blocks := fixture.WorkingHours()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	for _, block := range blocks {
		if block.OrganizerID != fixture.ID {
			t.Fatalf("block not linked to organizer: %+v", block)
		}
		if block.StartTime != "08:00" || block.EndTime != "12:00" || !block.IsActive {
			t.Fatalf("unexpected block: %+v", block)
		}
	}
	if blocks[0].DayOfWeek != time.Monday || blocks[1].DayOfWeek != time.Wednesday {
		t.Fatalf("unexpected weekdays: %v, %v", blocks[0].DayOfWeek, blocks[1].DayOfWeek)
	}
}

func TestBookingFixtureDefaults(t *testing.T) {
	fixture := NewBookingFixture()

	if got := fixture.End.Sub(fixture.Start); got != time.Hour {
		t.Fatalf("expected one hour booking, got %v", got)
	}
	if !fixture.Start.After(ReferenceTime()) {
		t.Fatalf("expected booking after reference time, got %v", fixture.Start)
	}
	row := fixture.Persistence()
	if row.Status != "confirmed" {
		t.Fatalf("expected confirmed status, got %q", row.Status)
	}
}
