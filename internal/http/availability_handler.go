package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/meeting-scheduler/internal/application"
)

type availabilityService interface {
	ListAvailability(ctx context.Context, username string) (application.Availability, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, responder: newResponder(base), logger: base}
}

// List serves GET /organizers/{username}/availability.
func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	username := strings.TrimSpace(mux.Vars(r)["username"])
	if username == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUsername)
		return
	}

	availability, err := h.service.ListAvailability(r.Context(), strings.ToLower(username))
	if err != nil {
		handlerLogger(r.Context(), h.logger, "AvailabilityHandler", "List", "organizer_username", username).
			WarnContext(r.Context(), "availability lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityResponse(availability))
}

type availabilityResponse struct {
	Settings settingsDTO `json:"settings"`
	Slots    []slotDTO   `json:"slots"`
}

type settingsDTO struct {
	WorkingTimezone        string `json:"working_timezone"`
	DefaultMeetingDuration int    `json:"default_meeting_duration"`
	PreBookingBuffer       int    `json:"pre_booking_buffer"`
	PostBookingBuffer      int    `json:"post_booking_buffer"`
	MinBookingNotice       int    `json:"min_booking_notice"`
	MaxBookingAdvance      int    `json:"max_booking_advance"`
}

type slotDTO struct {
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	DurationMinutes   int    `json:"duration_minutes"`
	OrganizerTimezone string `json:"organizer_timezone"`
}

func toAvailabilityResponse(a application.Availability) availabilityResponse {
	slots := make([]slotDTO, 0, len(a.Slots))
	for _, slot := range a.Slots {
		slots = append(slots, slotDTO{
			StartTime:         formatTime(slot.Start),
			EndTime:           formatTime(slot.End),
			DurationMinutes:   slot.DurationMinutes,
			OrganizerTimezone: slot.Timezone,
		})
	}
	return availabilityResponse{
		Settings: settingsDTO{
			WorkingTimezone:        a.Settings.WorkingTimezone,
			DefaultMeetingDuration: a.Settings.DefaultMeetingDuration,
			PreBookingBuffer:       a.Settings.PreBookingBuffer,
			PostBookingBuffer:      a.Settings.PostBookingBuffer,
			MinBookingNotice:       a.Settings.MinBookingNotice,
			MaxBookingAdvance:      a.Settings.MaxBookingAdvance,
		},
		Slots: slots,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// timestampFields parses RFC3339 request fields and records the malformed ones
// as validation errors keyed by field name.
type timestampFields struct {
	invalid map[string]string
}

func (f *timestampFields) parse(field, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		if f.invalid == nil {
			f.invalid = make(map[string]string)
		}
		f.invalid[field] = "must be an RFC3339 timestamp"
		return time.Time{}
	}
	return ts
}

func (f *timestampFields) err() error {
	if len(f.invalid) == 0 {
		return nil
	}
	return &application.ValidationError{FieldErrors: f.invalid}
}
