package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meeting-scheduler/internal/recurrence"
)

// OrganizerStore provisions organizers and edits their scheduling data.
type OrganizerStore interface {
	OrganizerDirectory
	CreateOrganizer(ctx context.Context, organizer Organizer, settings Settings) error
	GetOrganizerSettings(ctx context.Context, organizerID string) (Settings, error)
	ReplaceWorkingHours(ctx context.Context, organizerID string, blocks []WorkingHourBlock) error
	AddBlackoutDate(ctx context.Context, organizerID string, blackout BlackoutDate) error
}

// OrganizerService manages organizers, their working hours and blackout dates.
type OrganizerService struct {
	store       OrganizerStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewOrganizerService constructs an OrganizerService.
func NewOrganizerService(store OrganizerStore, idGenerator func() string, now func() time.Time) *OrganizerService {
	return NewOrganizerServiceWithLogger(store, idGenerator, now, nil)
}

// NewOrganizerServiceWithLogger constructs an OrganizerService with a specified logger.
func NewOrganizerServiceWithLogger(store OrganizerStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *OrganizerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &OrganizerService{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *OrganizerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "OrganizerService", operation, attrs...)
}

// CreateOrganizer validates params and stores the organizer with its settings.
func (s *OrganizerService) CreateOrganizer(ctx context.Context, params CreateOrganizerParams) (organizer Organizer, err error) {
	if s == nil {
		return Organizer{}, fmt.Errorf("OrganizerService is nil")
	}
	params.Username = strings.ToLower(strings.TrimSpace(params.Username))
	params.DisplayName = strings.TrimSpace(params.DisplayName)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.WorkingTimezone = strings.TrimSpace(params.WorkingTimezone)

	logger := s.loggerWith(ctx, "CreateOrganizer", "organizer_username", params.Username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create organizer", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("organizer_id", organizer.ID).InfoContext(ctx, "organizer created")
	}()

	if vErr := validateStruct(params); vErr.HasErrors() {
		return Organizer{}, vErr
	}

	now := s.now()
	organizer = Organizer{
		ID:          s.idGenerator(),
		Username:    params.Username,
		DisplayName: params.DisplayName,
		Email:       params.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	settings := Settings{
		OrganizerID:            organizer.ID,
		WorkingTimezone:        params.WorkingTimezone,
		DefaultMeetingDuration: params.DefaultMeetingDuration,
		PreBookingBuffer:       params.PreBookingBuffer,
		PostBookingBuffer:      params.PostBookingBuffer,
		MinBookingNotice:       params.MinBookingNotice,
		MaxBookingAdvance:      params.MaxBookingAdvance,
	}

	if err := s.store.CreateOrganizer(ctx, organizer, settings); err != nil {
		return Organizer{}, err
	}
	return organizer, nil
}

// ReplaceWorkingHours swaps the organizer's weekly template for blocks. Every
// block is checked before anything is written.
func (s *OrganizerService) ReplaceWorkingHours(ctx context.Context, username string, blocks []WorkingHourBlock) (err error) {
	if s == nil {
		return fmt.Errorf("OrganizerService is nil")
	}
	logger := s.loggerWith(ctx, "ReplaceWorkingHours", "organizer_username", username, "block_count", len(blocks))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to replace working hours", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "working hours replaced")
	}()

	vErr := &ValidationError{}
	prepared := make([]WorkingHourBlock, 0, len(blocks))
	for i, block := range blocks {
		if err := recurrence.ValidateBlock(toRecurrenceBlock(block)); err != nil {
			vErr.add(fmt.Sprintf("working_hours[%d]", i), err.Error())
			continue
		}
		if block.ID == "" {
			block.ID = s.idGenerator()
		}
		prepared = append(prepared, block)
	}
	if vErr.HasErrors() {
		return vErr
	}
	if first, second, found := recurrence.FindOverlap(toRecurrenceBlocks(blocks)); found {
		vErr.add(fmt.Sprintf("working_hours[%d]", second), fmt.Sprintf("overlaps working_hours[%d]", first))
		return vErr
	}

	organizer, err := s.store.GetOrganizerByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.store.ReplaceWorkingHours(ctx, organizer.ID, prepared)
}

// AddBlackoutDate removes a calendar day from the organizer's availability.
// Only the year, month and day of day are used; the stored instant is that
// day's midnight in the organizer's timezone, expressed in UTC.
func (s *OrganizerService) AddBlackoutDate(ctx context.Context, username string, day time.Time, reason *string) (blackout BlackoutDate, err error) {
	if s == nil {
		return BlackoutDate{}, fmt.Errorf("OrganizerService is nil")
	}
	logger := s.loggerWith(ctx, "AddBlackoutDate", "organizer_username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add blackout date", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("blackout_date", blackout.Date).InfoContext(ctx, "blackout date added")
	}()

	if day.IsZero() {
		return BlackoutDate{}, &ValidationError{FieldErrors: map[string]string{"date": "this field is required"}}
	}

	organizer, err := s.store.GetOrganizerByUsername(ctx, username)
	if err != nil {
		return BlackoutDate{}, err
	}
	settings, err := s.store.GetOrganizerSettings(ctx, organizer.ID)
	if err != nil {
		return BlackoutDate{}, err
	}
	loc, err := settings.Location()
	if err != nil {
		return BlackoutDate{}, err
	}

	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		reason = &trimmed
		if trimmed == "" {
			reason = nil
		}
	}

	blackout = BlackoutDate{
		ID:     s.idGenerator(),
		Date:   localMidnight(day, loc).UTC(),
		Reason: reason,
	}
	if err := s.store.AddBlackoutDate(ctx, organizer.ID, blackout); err != nil {
		return BlackoutDate{}, err
	}
	return blackout, nil
}

func toRecurrenceBlock(block WorkingHourBlock) recurrence.Block {
	return recurrence.Block{
		DayOfWeek: block.DayOfWeek,
		StartTime: block.StartTime,
		EndTime:   block.EndTime,
		IsActive:  block.IsActive,
	}
}

func toRecurrenceBlocks(blocks []WorkingHourBlock) []recurrence.Block {
	templates := make([]recurrence.Block, len(blocks))
	for i, block := range blocks {
		templates[i] = toRecurrenceBlock(block)
	}
	return templates
}

func localMidnight(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
