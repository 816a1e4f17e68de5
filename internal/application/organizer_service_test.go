package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validOrganizerParams() CreateOrganizerParams {
	return CreateOrganizerParams{
		Username:               "Alice",
		DisplayName:            "Alice Example",
		Email:                  "alice@example.com",
		WorkingTimezone:        "America/New_York",
		DefaultMeetingDuration: 30,
		PreBookingBuffer:       5,
		PostBookingBuffer:      10,
		MinBookingNotice:       24,
		MaxBookingAdvance:      30,
	}
}

func TestOrganizerService_CreateOrganizer(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := NewOrganizerService(store, func() string { return "org-1" }, fixedNow(monday0800))

	org, err := svc.CreateOrganizer(context.Background(), validOrganizerParams())
	if err != nil {
		t.Fatalf("CreateOrganizer returned error: %v", err)
	}
	if org.ID != "org-1" || org.Username != "alice" {
		t.Fatalf("unexpected organizer %+v", org)
	}
	if !org.CreatedAt.Equal(monday0800) {
		t.Fatalf("expected CreatedAt from clock, got %v", org.CreatedAt)
	}

	settings, err := store.GetOrganizerSettings(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("settings not stored: %v", err)
	}
	if settings.WorkingTimezone != "America/New_York" || settings.DefaultMeetingDuration != 30 || settings.MaxBookingAdvance != 30 {
		t.Fatalf("unexpected settings %+v", settings)
	}

	if _, err := svc.CreateOrganizer(context.Background(), validOrganizerParams()); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate username, got %v", err)
	}
}

func TestOrganizerService_CreateOrganizerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*CreateOrganizerParams)
		field  string
	}{
		{name: "username too short", mutate: func(p *CreateOrganizerParams) { p.Username = "ab" }, field: "username"},
		{name: "unknown timezone", mutate: func(p *CreateOrganizerParams) { p.WorkingTimezone = "Mars/Olympus" }, field: "working_timezone"},
		{name: "duration too short", mutate: func(p *CreateOrganizerParams) { p.DefaultMeetingDuration = 10 }, field: "default_meeting_duration"},
		{name: "advance out of range", mutate: func(p *CreateOrganizerParams) { p.MaxBookingAdvance = 0 }, field: "max_booking_advance"},
		{name: "notice out of range", mutate: func(p *CreateOrganizerParams) { p.MinBookingNotice = 200 }, field: "min_booking_notice"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewOrganizerService(newMemoryStore(), nil, nil)
			params := validOrganizerParams()
			tt.mutate(&params)

			_, err := svc.CreateOrganizer(context.Background(), params)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tt.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tt.field, vErr.FieldErrors)
			}
		})
	}
}

func TestOrganizerService_ReplaceWorkingHours(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	org := store.seedOrganizer("alice", baseSettings(), time.Monday)
	var n int
	svc := NewOrganizerService(store, func() string { n++; return "block-" + string(rune('0'+n)) }, nil)

	blocks := []WorkingHourBlock{
		{DayOfWeek: time.Wednesday, StartTime: "08:00", EndTime: "12:00", IsActive: true},
		{DayOfWeek: time.Wednesday, StartTime: "13:00", EndTime: "24:00", IsActive: true},
	}
	if err := svc.ReplaceWorkingHours(context.Background(), "alice", blocks); err != nil {
		t.Fatalf("ReplaceWorkingHours returned error: %v", err)
	}

	stored, _ := store.ListActiveWorkingHours(context.Background(), org.ID)
	if len(stored) != 2 || stored[0].DayOfWeek != time.Wednesday {
		t.Fatalf("expected Monday template to be replaced, got %+v", stored)
	}
	if stored[0].ID != "block-1" || stored[1].ID != "block-2" {
		t.Fatalf("expected generated block ids, got %q and %q", stored[0].ID, stored[1].ID)
	}

	err := svc.ReplaceWorkingHours(context.Background(), "alice", []WorkingHourBlock{
		{DayOfWeek: time.Friday, StartTime: "17:00", EndTime: "09:00", IsActive: true},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["working_hours[0]"]; !ok {
		t.Fatalf("expected indexed field error, got %v", vErr.FieldErrors)
	}
	if stored, _ := store.ListActiveWorkingHours(context.Background(), org.ID); len(stored) != 2 {
		t.Fatalf("invalid input must not modify stored hours")
	}

	err = svc.ReplaceWorkingHours(context.Background(), "alice", []WorkingHourBlock{
		{DayOfWeek: time.Friday, StartTime: "09:00", EndTime: "12:00", IsActive: true},
		{DayOfWeek: time.Friday, StartTime: "11:00", EndTime: "14:00", IsActive: true},
	})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for overlapping blocks, got %v", err)
	}
	if msg := vErr.FieldErrors["working_hours[1]"]; msg != "overlaps working_hours[0]" {
		t.Fatalf("expected overlap reported on second block, got %v", vErr.FieldErrors)
	}
	if stored, _ := store.ListActiveWorkingHours(context.Background(), org.ID); len(stored) != 2 {
		t.Fatalf("overlapping input must not modify stored hours")
	}

	if err := svc.ReplaceWorkingHours(context.Background(), "nobody", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrganizerService_AddBlackoutDate(t *testing.T) {
	t.Parallel()

	settings := baseSettings()
	settings.WorkingTimezone = "America/New_York"
	store := newMemoryStore()
	org := store.seedOrganizer("alice", settings, time.Monday)
	svc := NewOrganizerService(store, func() string { return "blackout-1" }, nil)

	reason := "  conference  "
	day := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	blackout, err := svc.AddBlackoutDate(context.Background(), "alice", day, &reason)
	if err != nil {
		t.Fatalf("AddBlackoutDate returned error: %v", err)
	}

	// New York midnight on March 11 2024 is 04:00 UTC (EDT began March 10).
	want := time.Date(2024, time.March, 11, 4, 0, 0, 0, time.UTC)
	if !blackout.Date.Equal(want) {
		t.Fatalf("blackout stored at %v, want %v", blackout.Date, want)
	}
	if blackout.Reason == nil || *blackout.Reason != "conference" {
		t.Fatalf("expected trimmed reason, got %v", blackout.Reason)
	}
	if got := store.blackouts[org.ID]; len(got) != 1 {
		t.Fatalf("expected one stored blackout, got %d", len(got))
	}

	if _, err := svc.AddBlackoutDate(context.Background(), "alice", time.Time{}, nil); err == nil {
		t.Fatalf("expected validation error for zero date")
	}
	if _, err := svc.AddBlackoutDate(context.Background(), "nobody", day, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
