// Package http provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints:
//   - GET /organizers/{username}/availability: bookable slots of the organizer.
//     Response: {"settings":{...},"slots":[{"start_time","end_time",
//     "duration_minutes","organizer_timezone"}]} with RFC 3339 UTC instants.
//   - POST /organizers/{username}/bookings: commits the selected slot. Body:
//     {"attendant_name","attendant_email","title","description","start_time",
//     "end_time","metadata"}. Responds 201 with the booking and a one-time
//     "manage_token", 409 when the slot was taken, 422 on validation errors.
//   - GET /organizers/{username}/bookings?from=&to=: the organizer's active
//     bookings intersecting the range. Only the organizer may list.
//   - GET /bookings/{id}, PUT /bookings/{id}/schedule, DELETE /bookings/{id}:
//     read, reschedule and cancel a booking. Allowed for the organizer, the
//     attendant, or a holder of the manage token.
//   - GET /healthz and GET /metrics (Prometheus exposition format).
//
// Authentication happens upstream. The caller identity is taken from the
// X-User-ID and X-User-Email headers set by the gateway, and the manage token
// from X-Manage-Token.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
