package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type scheduleRepository interface {
	ListLive(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Update(ctx context.Context, entry *models.ScheduleEntry) error
	UpdateTeachers(ctx context.Context, id string, teacherIDs []string) error
	Delete(ctx context.Context, id string) error
}

// ScheduleEntryRequest represents payload for creating or updating entries.
type ScheduleEntryRequest struct {
	TeacherIDs  []string         `json:"teacher_ids" validate:"required,min=1,dive,required"`
	StudentIDs  []string         `json:"student_ids"`
	StartTime   time.Time        `json:"start_time" validate:"required"`
	EndTime     time.Time        `json:"end_time" validate:"required"`
	ClassType   models.ClassType `json:"class_type" validate:"required"`
	IsRecurring bool             `json:"is_recurring"`
	Capacity    *int             `json:"capacity" validate:"omitempty,min=1"`
	Notes       *string          `json:"notes"`
}

// ScheduleService orchestrates live schedule grid operations.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

// List returns live entries matching the filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	entries, err := s.repo.ListLive(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	return entries, nil
}

// Get returns a live entry by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	return entry, nil
}

// Create adds a new planned entry to the live grid. The weekday is derived
// from the start instant so the two can never disagree.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	entry := &models.ScheduleEntry{
		TeacherIDs:  pq.StringArray(req.TeacherIDs),
		StudentIDs:  pq.StringArray(req.StudentIDs),
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		Day:         int(req.StartTime.UTC().Weekday()),
		ClassType:   req.ClassType,
		IsRecurring: req.IsRecurring,
		Capacity:    req.Capacity,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule entry")
	}
	return entry, nil
}

// Update rewrites a live entry.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}

	entry.TeacherIDs = pq.StringArray(req.TeacherIDs)
	entry.StudentIDs = pq.StringArray(req.StudentIDs)
	entry.StartTime = req.StartTime.UTC()
	entry.EndTime = req.EndTime.UTC()
	entry.Day = int(req.StartTime.UTC().Weekday())
	entry.ClassType = req.ClassType
	entry.IsRecurring = req.IsRecurring
	entry.Capacity = req.Capacity
	entry.Notes = req.Notes

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule entry")
	}
	return entry, nil
}

// Delete removes a live entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	return nil
}

func (s *ScheduleService) validateRequest(req ScheduleEntryRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule entry payload")
	}
	if !models.ValidClassType(req.ClassType) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown class type")
	}
	if !req.EndTime.After(req.StartTime) {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return nil
}
