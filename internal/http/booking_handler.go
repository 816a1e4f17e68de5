package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/meeting-scheduler/internal/application"
)

type bookingService interface {
	CommitBooking(ctx context.Context, params application.CommitBookingParams) (application.CommitBookingResult, error)
	RescheduleBooking(ctx context.Context, params application.RescheduleBookingParams) (application.Booking, error)
	CancelBooking(ctx context.Context, params application.CancelBookingParams) error
	GetBooking(ctx context.Context, principal application.Principal, id string) (application.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Create serves POST /organizers/{username}/bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	username := strings.TrimSpace(mux.Vars(r)["username"])
	if username == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUsername)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params, err := req.toParams(username)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result, err := h.service.CommitBooking(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createBookingResponse{
		Booking:     toBookingDTO(result.Booking),
		ManageToken: result.ManageToken,
	})
}

// List serves GET /organizers/{username}/bookings?from=&to=.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	var times timestampFields
	from := times.parse("from", query.Get("from"))
	to := times.parse("to", query.Get("to"))
	if err := times.err(); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	bookings, err := h.service.ListBookings(r.Context(), application.ListBookingsParams{
		Principal:         principal,
		OrganizerUsername: strings.ToLower(strings.TrimSpace(mux.Vars(r)["username"])),
		From:              from,
		To:                to,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		dtos = append(dtos, toBookingDTO(booking))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: dtos})
}

// Get serves GET /bookings/{id}.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := bookingID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.GetBooking(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// Reschedule serves PUT /bookings/{id}/schedule.
func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := bookingID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Reschedule", "booking_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reschedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var times timestampFields
	start := times.parse("start_time", req.StartTime)
	end := times.parse("end_time", req.EndTime)
	if err := times.err(); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.RescheduleBooking(r.Context(), application.RescheduleBookingParams{
		Principal: principal,
		BookingID: id,
		Start:     start,
		End:       end,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// Cancel serves DELETE /bookings/{id}.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := bookingID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.CancelBooking(r.Context(), application.CancelBookingParams{
		Principal: principal,
		BookingID: id,
	}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func bookingID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	return id, id != ""
}

type createBookingRequest struct {
	AttendantName  string            `json:"attendant_name"`
	AttendantEmail string            `json:"attendant_email"`
	Title          string            `json:"title"`
	Description    *string           `json:"description"`
	StartTime      string            `json:"start_time"`
	EndTime        string            `json:"end_time"`
	Metadata       map[string]string `json:"metadata"`
}

func (r createBookingRequest) toParams(username string) (application.CommitBookingParams, error) {
	var times timestampFields
	params := application.CommitBookingParams{
		OrganizerUsername: username,
		AttendantName:     r.AttendantName,
		AttendantEmail:    r.AttendantEmail,
		Title:             r.Title,
		Description:       r.Description,
		Start:             times.parse("start_time", r.StartTime),
		End:               times.parse("end_time", r.EndTime),
		Metadata:          r.Metadata,
	}
	return params, times.err()
}

type rescheduleRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type bookingDTO struct {
	ID             string            `json:"id"`
	OrganizerID    string            `json:"organizer_id"`
	AttendantName  string            `json:"attendant_name"`
	AttendantEmail string            `json:"attendant_email"`
	Title          string            `json:"title"`
	Description    *string           `json:"description,omitempty"`
	StartTime      string            `json:"start_time"`
	EndTime        string            `json:"end_time"`
	Status         string            `json:"status"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
}

func toBookingDTO(b application.Booking) bookingDTO {
	return bookingDTO{
		ID:             b.ID,
		OrganizerID:    b.OrganizerID,
		AttendantName:  b.AttendantName,
		AttendantEmail: b.AttendantEmail,
		Title:          b.Title,
		Description:    b.Description,
		StartTime:      formatTime(b.Start),
		EndTime:        formatTime(b.End),
		Status:         string(b.Status),
		Metadata:       b.Metadata,
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type createBookingResponse struct {
	Booking     bookingDTO `json:"booking"`
	ManageToken string     `json:"manage_token"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}
