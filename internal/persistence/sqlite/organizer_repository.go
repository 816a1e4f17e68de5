package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// OrganizerRepository implements persistence.OrganizerRepository.
type OrganizerRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewOrganizerRepository creates a new organizer repository.
func NewOrganizerRepository(pool *ConnectionPool) *OrganizerRepository {
	return &OrganizerRepository{pool: pool, retry: DefaultRetryConfig()}
}

type organizerRow struct {
	ID          string `db:"id"`
	Username    string `db:"username"`
	DisplayName string `db:"display_name"`
	Email       string `db:"email"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (row organizerRow) toModel() (persistence.Organizer, error) {
	createdAt, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return persistence.Organizer{}, err
	}
	updatedAt, err := parseTimestamp(row.UpdatedAt)
	if err != nil {
		return persistence.Organizer{}, err
	}
	return persistence.Organizer{
		ID:          row.ID,
		Username:    row.Username,
		DisplayName: row.DisplayName,
		Email:       row.Email,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// CreateOrganizer inserts the organizer and its settings in one transaction so
// an organizer never exists without settings.
func (r *OrganizerRepository) CreateOrganizer(ctx context.Context, organizer persistence.Organizer, settings persistence.OrganizerSettings) error {
	if organizer.ID == "" || organizer.Username == "" {
		return persistence.ErrConstraintViolation
	}
	if organizer.CreatedAt.IsZero() {
		organizer.CreatedAt = time.Now().UTC()
	}
	if organizer.UpdatedAt.IsZero() {
		organizer.UpdatedAt = organizer.CreatedAt
	}
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = organizer.UpdatedAt
	}
	settings.OrganizerID = organizer.ID

	err := withRetry(ctx, r.retry, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO organizers (id, username, display_name, email, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`),
				organizer.ID,
				organizer.Username,
				organizer.DisplayName,
				organizer.Email,
				formatTimestamp(organizer.CreatedAt),
				formatTimestamp(organizer.UpdatedAt),
			)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO organizer_settings (
					organizer_id, working_timezone, default_meeting_duration,
					pre_booking_buffer, post_booking_buffer,
					min_booking_notice, max_booking_advance, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
				settings.OrganizerID,
				settings.WorkingTimezone,
				settings.DefaultMeetingDuration,
				settings.PreBookingBuffer,
				settings.PostBookingBuffer,
				settings.MinBookingNotice,
				settings.MaxBookingAdvance,
				formatTimestamp(settings.UpdatedAt),
			)
			return err
		})
	})
	return mapError(err)
}

// GetOrganizer retrieves an organizer by id.
func (r *OrganizerRepository) GetOrganizer(ctx context.Context, id string) (persistence.Organizer, error) {
	return r.getOne(ctx, `SELECT id, username, display_name, email, created_at, updated_at FROM organizers WHERE id = ?`, id)
}

// GetOrganizerByUsername retrieves an organizer by its unique username.
func (r *OrganizerRepository) GetOrganizerByUsername(ctx context.Context, username string) (persistence.Organizer, error) {
	return r.getOne(ctx, `SELECT id, username, display_name, email, created_at, updated_at FROM organizers WHERE username = ?`, username)
}

func (r *OrganizerRepository) getOne(ctx context.Context, query string, arg string) (persistence.Organizer, error) {
	if arg == "" {
		return persistence.Organizer{}, persistence.ErrNotFound
	}

	db := r.pool.DB()
	var row organizerRow
	if err := db.GetContext(ctx, &row, db.Rebind(query), arg); err != nil {
		return persistence.Organizer{}, mapError(err)
	}
	return row.toModel()
}
