package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository. Deletion is soft:
// a cancelled booking keeps its row and gains a deleted_at marker.
type BookingRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool, retry: DefaultRetryConfig()}
}

const bookingColumns = `id, organizer_id, attendant_name, attendant_email, title, description,
	start_time, end_time, status, metadata, manage_token_hash, created_at, updated_at, deleted_at`

type bookingRow struct {
	ID              string         `db:"id"`
	OrganizerID     string         `db:"organizer_id"`
	AttendantName   string         `db:"attendant_name"`
	AttendantEmail  string         `db:"attendant_email"`
	Title           string         `db:"title"`
	Description     sql.NullString `db:"description"`
	StartTime       string         `db:"start_time"`
	EndTime         string         `db:"end_time"`
	Status          string         `db:"status"`
	Metadata        string         `db:"metadata"`
	ManageTokenHash string         `db:"manage_token_hash"`
	CreatedAt       string         `db:"created_at"`
	UpdatedAt       string         `db:"updated_at"`
	DeletedAt       sql.NullString `db:"deleted_at"`
}

func (row bookingRow) toModel() (persistence.Booking, error) {
	booking := persistence.Booking{
		ID:              row.ID,
		OrganizerID:     row.OrganizerID,
		AttendantName:   row.AttendantName,
		AttendantEmail:  row.AttendantEmail,
		Title:           row.Title,
		Status:          persistence.BookingStatus(row.Status),
		ManageTokenHash: row.ManageTokenHash,
	}

	var err error
	if booking.Start, err = parseTimestamp(row.StartTime); err != nil {
		return persistence.Booking{}, fmt.Errorf("invalid start_time for booking %s: %w", row.ID, err)
	}
	if booking.End, err = parseTimestamp(row.EndTime); err != nil {
		return persistence.Booking{}, fmt.Errorf("invalid end_time for booking %s: %w", row.ID, err)
	}
	if booking.CreatedAt, err = parseTimestamp(row.CreatedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("invalid created_at for booking %s: %w", row.ID, err)
	}
	if booking.UpdatedAt, err = parseTimestamp(row.UpdatedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("invalid updated_at for booking %s: %w", row.ID, err)
	}
	if row.DeletedAt.Valid {
		deletedAt, err := parseTimestamp(row.DeletedAt.String)
		if err != nil {
			return persistence.Booking{}, fmt.Errorf("invalid deleted_at for booking %s: %w", row.ID, err)
		}
		booking.DeletedAt = &deletedAt
	}
	if row.Description.Valid {
		description := row.Description.String
		booking.Description = &description
	}
	if row.Metadata != "" && row.Metadata != "{}" {
		if err := json.Unmarshal([]byte(row.Metadata), &booking.Metadata); err != nil {
			return persistence.Booking{}, fmt.Errorf("invalid metadata for booking %s: %w", row.ID, err)
		}
	}
	return booking, nil
}

func encodeMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode booking metadata: %w", err)
	}
	return string(encoded), nil
}

// InsertBooking stores a new booking.
func (r *BookingRepository) InsertBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" || !booking.Start.Before(booking.End) {
		return persistence.ErrConstraintViolation
	}
	if booking.Status == "" {
		booking.Status = persistence.BookingStatusConfirmed
	}

	metadata, err := encodeMetadata(booking.Metadata)
	if err != nil {
		return err
	}

	db := r.pool.DB()
	query := db.Rebind(`
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	err = withRetry(ctx, r.retry, func() error {
		_, err := db.ExecContext(ctx, query,
			booking.ID,
			booking.OrganizerID,
			booking.AttendantName,
			booking.AttendantEmail,
			booking.Title,
			nullableString(booking.Description),
			formatTimestamp(booking.Start),
			formatTimestamp(booking.End),
			string(booking.Status),
			metadata,
			booking.ManageTokenHash,
			formatTimestamp(booking.CreatedAt),
			formatTimestamp(booking.UpdatedAt),
			nullableTimestamp(booking.DeletedAt),
		)
		return err
	})
	return mapError(err)
}

// GetBooking retrieves a booking by id, including soft-deleted ones.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	db := r.pool.DB()
	var row bookingRow
	if err := db.GetContext(ctx, &row, db.Rebind(`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`), id); err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return row.toModel()
}

// ListBookings returns bookings matching the filter ordered by start time.
// StartsBefore and EndsAfter select bookings intersecting the open range
// (EndsAfter, StartsBefore).
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.OrganizerID != "" {
		conditions = append(conditions, "organizer_id = ?")
		args = append(args, filter.OrganizerID)
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTimestamp(*filter.StartsBefore))
	}
	if filter.EndsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatTimestamp(*filter.EndsAfter))
	}
	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time, id"

	db := r.pool.DB()
	var rows []bookingRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, mapError(err)
	}

	bookings := make([]persistence.Booking, 0, len(rows))
	for _, row := range rows {
		booking, err := row.toModel()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

// UpdateBookingTimes moves an active booking to a new interval.
func (r *BookingRepository) UpdateBookingTimes(ctx context.Context, id string, start, end, updatedAt time.Time) error {
	if !start.Before(end) {
		return persistence.ErrConstraintViolation
	}

	db := r.pool.DB()
	query := db.Rebind(`
		UPDATE bookings
		SET start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`)

	var rowsAffected int64
	err := withRetry(ctx, r.retry, func() error {
		result, err := db.ExecContext(ctx, query,
			formatTimestamp(start),
			formatTimestamp(end),
			formatTimestamp(updatedAt),
			id,
		)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return mapError(err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// SoftDeleteBooking marks a booking as cancelled. It reports false when the
// booking does not exist or was already deleted.
func (r *BookingRepository) SoftDeleteBooking(ctx context.Context, id string, deletedAt time.Time) (bool, error) {
	db := r.pool.DB()
	query := db.Rebind(`
		UPDATE bookings
		SET deleted_at = ?, status = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`)

	var rowsAffected int64
	err := withRetry(ctx, r.retry, func() error {
		result, err := db.ExecContext(ctx, query,
			formatTimestamp(deletedAt),
			string(persistence.BookingStatusCancelled),
			formatTimestamp(deletedAt),
			id,
		)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, mapError(err)
	}
	return rowsAffected > 0, nil
}

// CompleteBookingsEndedBefore marks confirmed bookings whose end time is at or
// before reference as completed and returns how many were updated.
func (r *BookingRepository) CompleteBookingsEndedBefore(ctx context.Context, reference time.Time) (int64, error) {
	db := r.pool.DB()
	query := db.Rebind(`
		UPDATE bookings
		SET status = ?, updated_at = ?
		WHERE status = ? AND deleted_at IS NULL AND end_time <= ?`)

	var rowsAffected int64
	err := withRetry(ctx, r.retry, func() error {
		result, err := db.ExecContext(ctx, query,
			string(persistence.BookingStatusCompleted),
			formatTimestamp(reference),
			string(persistence.BookingStatusConfirmed),
			formatTimestamp(reference),
		)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, mapError(err)
	}
	return rowsAffected, nil
}
