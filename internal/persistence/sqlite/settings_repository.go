package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// SettingsRepository implements persistence.SettingsRepository.
type SettingsRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(pool *ConnectionPool) *SettingsRepository {
	return &SettingsRepository{pool: pool, retry: DefaultRetryConfig()}
}

type settingsRow struct {
	OrganizerID            string `db:"organizer_id"`
	WorkingTimezone        string `db:"working_timezone"`
	DefaultMeetingDuration int    `db:"default_meeting_duration"`
	PreBookingBuffer       int    `db:"pre_booking_buffer"`
	PostBookingBuffer      int    `db:"post_booking_buffer"`
	MinBookingNotice       int    `db:"min_booking_notice"`
	MaxBookingAdvance      int    `db:"max_booking_advance"`
	UpdatedAt              string `db:"updated_at"`
}

type workingHourRow struct {
	ID          string `db:"id"`
	OrganizerID string `db:"organizer_id"`
	DayOfWeek   int    `db:"day_of_week"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
	IsActive    int    `db:"is_active"`
}

type blackoutRow struct {
	ID          string         `db:"id"`
	OrganizerID string         `db:"organizer_id"`
	Date        string         `db:"blackout_date"`
	Reason      sql.NullString `db:"reason"`
	CreatedAt   string         `db:"created_at"`
}

// GetOrganizerSettings returns the settings record of an organizer.
func (r *SettingsRepository) GetOrganizerSettings(ctx context.Context, organizerID string) (persistence.OrganizerSettings, error) {
	db := r.pool.DB()
	var row settingsRow
	err := db.GetContext(ctx, &row, db.Rebind(`
		SELECT organizer_id, working_timezone, default_meeting_duration,
			pre_booking_buffer, post_booking_buffer,
			min_booking_notice, max_booking_advance, updated_at
		FROM organizer_settings
		WHERE organizer_id = ?`), organizerID)
	if err != nil {
		return persistence.OrganizerSettings{}, mapError(err)
	}

	updatedAt, err := parseTimestamp(row.UpdatedAt)
	if err != nil {
		return persistence.OrganizerSettings{}, err
	}

	return persistence.OrganizerSettings{
		OrganizerID:            row.OrganizerID,
		WorkingTimezone:        row.WorkingTimezone,
		DefaultMeetingDuration: row.DefaultMeetingDuration,
		PreBookingBuffer:       row.PreBookingBuffer,
		PostBookingBuffer:      row.PostBookingBuffer,
		MinBookingNotice:       row.MinBookingNotice,
		MaxBookingAdvance:      row.MaxBookingAdvance,
		UpdatedAt:              updatedAt,
	}, nil
}

// ListActiveWorkingHours returns the active blocks ordered by day and start time.
func (r *SettingsRepository) ListActiveWorkingHours(ctx context.Context, organizerID string) ([]persistence.WorkingHourBlock, error) {
	db := r.pool.DB()
	var rows []workingHourRow
	err := db.SelectContext(ctx, &rows, db.Rebind(`
		SELECT id, organizer_id, day_of_week, start_time, end_time, is_active
		FROM working_hours
		WHERE organizer_id = ? AND is_active = 1
		ORDER BY day_of_week, start_time, id`), organizerID)
	if err != nil {
		return nil, mapError(err)
	}

	blocks := make([]persistence.WorkingHourBlock, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, persistence.WorkingHourBlock{
			ID:          row.ID,
			OrganizerID: row.OrganizerID,
			DayOfWeek:   time.Weekday(row.DayOfWeek),
			StartTime:   row.StartTime,
			EndTime:     row.EndTime,
			IsActive:    row.IsActive != 0,
		})
	}
	return blocks, nil
}

// ReplaceWorkingHours swaps the full weekly template of an organizer atomically.
func (r *SettingsRepository) ReplaceWorkingHours(ctx context.Context, organizerID string, blocks []persistence.WorkingHourBlock) error {
	err := withRetry(ctx, r.retry, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM working_hours WHERE organizer_id = ?`), organizerID); err != nil {
				return err
			}

			insert := tx.Rebind(`
				INSERT INTO working_hours (id, organizer_id, day_of_week, start_time, end_time, is_active)
				VALUES (?, ?, ?, ?, ?, ?)`)
			for _, block := range blocks {
				if _, err := tx.ExecContext(ctx, insert,
					block.ID,
					organizerID,
					int(block.DayOfWeek),
					block.StartTime,
					block.EndTime,
					boolToInt(block.IsActive),
				); err != nil {
					return err
				}
			}
			return nil
		})
	})
	return mapError(err)
}

// ListBlackoutDates returns blackout dates within [rangeStart, rangeEnd].
func (r *SettingsRepository) ListBlackoutDates(ctx context.Context, organizerID string, rangeStart, rangeEnd time.Time) ([]persistence.BlackoutDate, error) {
	db := r.pool.DB()
	var rows []blackoutRow
	err := db.SelectContext(ctx, &rows, db.Rebind(`
		SELECT id, organizer_id, blackout_date, reason, created_at
		FROM blackout_dates
		WHERE organizer_id = ? AND blackout_date >= ? AND blackout_date <= ?
		ORDER BY blackout_date, id`),
		organizerID, formatTimestamp(rangeStart), formatTimestamp(rangeEnd))
	if err != nil {
		return nil, mapError(err)
	}

	blackouts := make([]persistence.BlackoutDate, 0, len(rows))
	for _, row := range rows {
		date, err := parseTimestamp(row.Date)
		if err != nil {
			return nil, err
		}
		createdAt, err := parseTimestamp(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		blackout := persistence.BlackoutDate{
			ID:          row.ID,
			OrganizerID: row.OrganizerID,
			Date:        date,
			CreatedAt:   createdAt,
		}
		if row.Reason.Valid {
			reason := row.Reason.String
			blackout.Reason = &reason
		}
		blackouts = append(blackouts, blackout)
	}
	return blackouts, nil
}

// AddBlackoutDate stores a new blackout date.
func (r *SettingsRepository) AddBlackoutDate(ctx context.Context, blackout persistence.BlackoutDate) error {
	if blackout.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if blackout.CreatedAt.IsZero() {
		blackout.CreatedAt = time.Now().UTC()
	}

	db := r.pool.DB()
	err := withRetry(ctx, r.retry, func() error {
		_, err := db.ExecContext(ctx, db.Rebind(`
			INSERT INTO blackout_dates (id, organizer_id, blackout_date, reason, created_at)
			VALUES (?, ?, ?, ?, ?)`),
			blackout.ID,
			blackout.OrganizerID,
			formatTimestamp(blackout.Date),
			nullableString(blackout.Reason),
			formatTimestamp(blackout.CreatedAt),
		)
		return err
	})
	return mapError(err)
}
