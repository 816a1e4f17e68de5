package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
)

type stubAvailabilityService struct {
	availability application.Availability
	err          error
	username     string
}

func (s *stubAvailabilityService) ListAvailability(_ context.Context, username string) (application.Availability, error) {
	s.username = username
	return s.availability, s.err
}

type stubBookingService struct {
	commitResult application.CommitBookingResult
	booking      application.Booking
	bookings     []application.Booking
	err          error

	commitParams     application.CommitBookingParams
	rescheduleParams application.RescheduleBookingParams
	cancelParams     application.CancelBookingParams
	listParams       application.ListBookingsParams
	getPrincipal     application.Principal
}

func (s *stubBookingService) CommitBooking(_ context.Context, params application.CommitBookingParams) (application.CommitBookingResult, error) {
	s.commitParams = params
	return s.commitResult, s.err
}

func (s *stubBookingService) RescheduleBooking(_ context.Context, params application.RescheduleBookingParams) (application.Booking, error) {
	s.rescheduleParams = params
	return s.booking, s.err
}

func (s *stubBookingService) CancelBooking(_ context.Context, params application.CancelBookingParams) error {
	s.cancelParams = params
	return s.err
}

func (s *stubBookingService) GetBooking(_ context.Context, principal application.Principal, _ string) (application.Booking, error) {
	s.getPrincipal = principal
	return s.booking, s.err
}

func (s *stubBookingService) ListBookings(_ context.Context, params application.ListBookingsParams) ([]application.Booking, error) {
	s.listParams = params
	return s.bookings, s.err
}

var slotStart = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func sampleBooking() application.Booking {
	return application.Booking{
		ID:             "booking-1",
		OrganizerID:    "org-1",
		AttendantName:  "Bob",
		AttendantEmail: "bob@example.com",
		Title:          "Intro",
		Start:          slotStart,
		End:            slotStart.Add(time.Hour),
		Status:         application.BookingStatusConfirmed,
		CreatedAt:      slotStart.Add(-24 * time.Hour),
		UpdatedAt:      slotStart.Add(-24 * time.Hour),
	}
}

func newTestRouter(avail *stubAvailabilityService, bookings *stubBookingService) http.Handler {
	return NewRouter(RouterConfig{
		Availability: NewAvailabilityHandler(avail, nil),
		Bookings:     NewBookingHandler(bookings, nil),
		Middleware:   []func(http.Handler) http.Handler{Recover(nil), IdentifyPrincipal()},
	})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAvailabilityHandler(t *testing.T) {
	t.Parallel()

	t.Run("renders slots in UTC", func(t *testing.T) {
		t.Parallel()

		tokyo := time.FixedZone("JST", 9*3600)
		avail := &stubAvailabilityService{availability: application.Availability{
			Settings: application.Settings{WorkingTimezone: "Asia/Tokyo", DefaultMeetingDuration: 60, MaxBookingAdvance: 14},
			Slots: []application.Slot{{
				Start:           time.Date(2024, 3, 4, 9, 0, 0, 0, tokyo),
				End:             time.Date(2024, 3, 4, 10, 0, 0, 0, tokyo),
				DurationMinutes: 60,
				Timezone:        "Asia/Tokyo",
			}},
		}}
		router := newTestRouter(avail, &stubBookingService{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizers/Alice/availability", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if avail.username != "alice" {
			t.Fatalf("expected lowercased username, got %q", avail.username)
		}
		body := decode[availabilityResponse](t, rec)
		if len(body.Slots) != 1 {
			t.Fatalf("expected one slot, got %d", len(body.Slots))
		}
		slot := body.Slots[0]
		if slot.StartTime != "2024-03-04T00:00:00Z" || slot.EndTime != "2024-03-04T01:00:00Z" {
			t.Fatalf("unexpected slot times %+v", slot)
		}
		if slot.OrganizerTimezone != "Asia/Tokyo" || slot.DurationMinutes != 60 {
			t.Fatalf("unexpected slot metadata %+v", slot)
		}
		if body.Settings.MaxBookingAdvance != 14 {
			t.Fatalf("expected settings in response, got %+v", body.Settings)
		}
	})

	t.Run("empty slot list renders as array", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubAvailabilityService{}, &stubBookingService{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizers/alice/availability", nil))

		if !strings.Contains(rec.Body.String(), `"slots":[]`) {
			t.Fatalf("expected empty array, got %s", rec.Body.String())
		}
	})

	t.Run("unknown organizer is 404", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubAvailabilityService{err: application.ErrNotFound}, &stubBookingService{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organizers/nobody/availability", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBookingHandlers(t *testing.T) {
	t.Parallel()

	createBody := `{"attendant_name":"Bob","attendant_email":"bob@example.com","title":"Intro","start_time":"2024-03-04T10:00:00Z","end_time":"2024-03-04T11:00:00Z","metadata":{"source":"web"}}`

	t.Run("create returns booking and manage token", func(t *testing.T) {
		t.Parallel()

		svc := &stubBookingService{commitResult: application.CommitBookingResult{Booking: sampleBooking(), ManageToken: "secret"}}
		router := newTestRouter(&stubAvailabilityService{}, svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/organizers/alice/bookings", strings.NewReader(createBody)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[createBookingResponse](t, rec)
		if body.ManageToken != "secret" || body.Booking.ID != "booking-1" {
			t.Fatalf("unexpected response %+v", body)
		}
		if body.Booking.StartTime != "2024-03-04T10:00:00Z" {
			t.Fatalf("unexpected start time %q", body.Booking.StartTime)
		}
		if !svc.commitParams.Start.Equal(slotStart) || svc.commitParams.OrganizerUsername != "alice" {
			t.Fatalf("params not mapped: %+v", svc.commitParams)
		}
		if svc.commitParams.Metadata["source"] != "web" {
			t.Fatalf("metadata not mapped: %+v", svc.commitParams.Metadata)
		}
	})

	t.Run("service errors map to status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			err     error
			status  int
			message string
		}{
			{name: "conflict", err: fmt.Errorf("%w: locked", application.ErrConflict), status: http.StatusConflict, message: "this time is no longer available, please pick another"},
			{name: "validation", err: &application.ValidationError{FieldErrors: map[string]string{"title": "this field is required"}}, status: http.StatusUnprocessableEntity, message: "please correct this field"},
			{name: "not found", err: application.ErrNotFound, status: http.StatusNotFound},
			{name: "permission", err: application.ErrPermission, status: http.StatusForbidden},
			{name: "unexpected", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				router := newTestRouter(&stubAvailabilityService{}, &stubBookingService{err: tt.err})
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/organizers/alice/bookings", strings.NewReader(createBody)))

				if rec.Code != tt.status {
					t.Fatalf("expected %d, got %d", tt.status, rec.Code)
				}
				body := decode[errorResponse](t, rec)
				if tt.message != "" && body.Message != tt.message {
					t.Fatalf("unexpected message %q", body.Message)
				}
				if strings.Contains(rec.Body.String(), "disk on fire") {
					t.Fatalf("internal error text leaked to client")
				}
			})
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubAvailabilityService{}, &stubBookingService{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/organizers/alice/bookings", strings.NewReader("{")))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed timestamps are 422", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			method string
			target string
			body   string
			field  string
		}{
			{
				name:   "create",
				method: http.MethodPost,
				target: "/organizers/alice/bookings",
				body:   `{"attendant_name":"Bob","attendant_email":"bob@example.com","title":"Intro","start_time":"10am","end_time":"2024-03-04T11:00:00Z"}`,
				field:  "start_time",
			},
			{
				name:   "reschedule",
				method: http.MethodPut,
				target: "/bookings/booking-1/schedule",
				body:   `{"start_time":"2024-03-04T12:00:00Z","end_time":"tomorrow"}`,
				field:  "end_time",
			},
			{
				name:   "list",
				method: http.MethodGet,
				target: "/organizers/alice/bookings?from=2024-03-04&to=2024-03-05T00:00:00Z",
				field:  "from",
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				svc := &stubBookingService{booking: sampleBooking()}
				router := newTestRouter(&stubAvailabilityService{}, svc)

				req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
				req.Header.Set("X-User-ID", "org-1")
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)

				if rec.Code != http.StatusUnprocessableEntity {
					t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
				}
				body := decode[errorResponse](t, rec)
				if body.Errors[tt.field] != "must be an RFC3339 timestamp" {
					t.Fatalf("expected format error on %s, got %v", tt.field, body.Errors)
				}
				if svc.commitParams.OrganizerUsername != "" || svc.rescheduleParams.BookingID != "" || svc.listParams.OrganizerUsername != "" {
					t.Fatalf("service must not be called with malformed timestamps")
				}
			})
		}
	})

	t.Run("reschedule forwards principal and times", func(t *testing.T) {
		t.Parallel()

		svc := &stubBookingService{booking: sampleBooking()}
		router := newTestRouter(&stubAvailabilityService{}, svc)

		req := httptest.NewRequest(http.MethodPut, "/bookings/booking-1/schedule",
			strings.NewReader(`{"start_time":"2024-03-04T12:00:00Z","end_time":"2024-03-04T13:00:00Z"}`))
		req.Header.Set("X-Manage-Token", "secret")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		p := svc.rescheduleParams
		if p.BookingID != "booking-1" || p.Principal.ManageToken != "secret" {
			t.Fatalf("unexpected params %+v", p)
		}
		if !p.Start.Equal(slotStart.Add(2 * time.Hour)) {
			t.Fatalf("unexpected start %v", p.Start)
		}
	})

	t.Run("cancel returns 204", func(t *testing.T) {
		t.Parallel()

		svc := &stubBookingService{}
		router := newTestRouter(&stubAvailabilityService{}, svc)

		req := httptest.NewRequest(http.MethodDelete, "/bookings/booking-1", nil)
		req.Header.Set("X-User-Email", "bob@example.com")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if svc.cancelParams.Principal.Email != "bob@example.com" || svc.cancelParams.BookingID != "booking-1" {
			t.Fatalf("unexpected params %+v", svc.cancelParams)
		}
	})

	t.Run("cancel by stranger is 403", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubAvailabilityService{}, &stubBookingService{err: application.ErrPermission})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/bookings/booking-1", nil))

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("get and list", func(t *testing.T) {
		t.Parallel()

		svc := &stubBookingService{booking: sampleBooking(), bookings: []application.Booking{sampleBooking()}}
		router := newTestRouter(&stubAvailabilityService{}, svc)

		req := httptest.NewRequest(http.MethodGet, "/bookings/booking-1", nil)
		req.Header.Set("X-User-ID", "org-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if svc.getPrincipal.UserID != "org-1" {
			t.Fatalf("principal not forwarded: %+v", svc.getPrincipal)
		}

		req = httptest.NewRequest(http.MethodGet, "/organizers/alice/bookings?from=2024-03-04T00:00:00Z&to=2024-03-05T00:00:00Z", nil)
		req.Header.Set("X-User-ID", "org-1")
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decode[listBookingsResponse](t, rec)
		if len(body.Bookings) != 1 {
			t.Fatalf("expected one booking, got %d", len(body.Bookings))
		}
		if !svc.listParams.To.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("range not parsed: %+v", svc.listParams)
		}
	})

	t.Run("wrong method is 405", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubAvailabilityService{}, &stubBookingService{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/bookings/booking-1", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	healthy := NewRouter(RouterConfig{Health: map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}})
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	degraded := NewRouter(RouterConfig{Health: map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}})
	rec = httptest.NewRecorder()
	degraded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	body := decode[healthResponse](t, rec)
	if body.Checks["redis"] != "unavailable" || body.Checks["database"] != "ok" {
		t.Fatalf("unexpected checks %+v", body.Checks)
	}
}
