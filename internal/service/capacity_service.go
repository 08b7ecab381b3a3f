package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type capacityRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.CapacityProfile, error)
	ListCurrent(ctx context.Context) ([]models.CapacityProfile, error)
	CurrentByTeacher(ctx context.Context, teacherID string) (*models.CapacityProfile, error)
	FindByID(ctx context.Context, id string) (*models.CapacityProfile, error)
	Create(ctx context.Context, profile *models.CapacityProfile) error
	SetCurrent(ctx context.Context, teacherID, profileID string) error
}

type capacityTeacherSource interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// AvailabilityWindowRequest declares one weekday window.
type AvailabilityWindowRequest struct {
	Day         int    `json:"day" validate:"min=0,max=6"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
	IsAvailable bool   `json:"isAvailable"`
}

// CreateCapacityProfileRequest represents payload for a new profile version.
type CreateCapacityProfileRequest struct {
	Name          string                      `json:"name" validate:"required,max=200"`
	Availability  []AvailabilityWindowRequest `json:"availability" validate:"dive"`
	Constraints   models.CapacityConstraints  `json:"constraints"`
	EffectiveDate time.Time                   `json:"effective_date" validate:"required"`
	MakeCurrent   bool                        `json:"make_current"`
}

// CapacityService manages versioned capacity profiles.
type CapacityService struct {
	repo      capacityRepository
	teachers  capacityTeacherSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCapacityService constructs a CapacityService.
func NewCapacityService(repo capacityRepository, teachers capacityTeacherSource, validate *validator.Validate, logger *zap.Logger) *CapacityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// ListForTeacher returns all profile versions for a teacher.
func (s *CapacityService) ListForTeacher(ctx context.Context, teacherID string) ([]models.CapacityProfile, error) {
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	profiles, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list capacity profiles")
	}
	return profiles, nil
}

// Current returns the teacher's current profile, or nil when none exists.
func (s *CapacityService) Current(ctx context.Context, teacherID string) (*models.CapacityProfile, error) {
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	profile, err := s.repo.CurrentByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current profile")
	}
	return profile, nil
}

// Create stores a new profile version, optionally promoting it to current.
func (s *CapacityService) Create(ctx context.Context, teacherID string, req CreateCapacityProfileRequest) (*models.CapacityProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capacity profile payload")
	}
	// A profile either declares no windows yet or covers the full week,
	// one window per weekday.
	if len(req.Availability) != 0 {
		if len(req.Availability) != 7 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "availability must cover all seven weekdays")
		}
		var seen [7]bool
		for _, window := range req.Availability {
			if seen[window.Day] {
				return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate availability window for weekday")
			}
			seen[window.Day] = true
		}
	}
	for _, window := range req.Availability {
		if err := validateClock(window.StartTime); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid window start time")
		}
		if err := validateClock(window.EndTime); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid window end time")
		}
	}
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	windows := make(models.AvailabilityWindows, 0, len(req.Availability))
	for _, window := range req.Availability {
		windows = append(windows, models.AvailabilityWindow{
			Day:         window.Day,
			StartTime:   window.StartTime,
			EndTime:     window.EndTime,
			IsAvailable: window.IsAvailable,
		})
	}

	profile := &models.CapacityProfile{
		TeacherID:     teacherID,
		Name:          strings.TrimSpace(req.Name),
		Availability:  windows,
		Constraints:   req.Constraints,
		EffectiveDate: req.EffectiveDate.UTC(),
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create capacity profile")
	}

	if req.MakeCurrent {
		if err := s.repo.SetCurrent(ctx, teacherID, profile.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote capacity profile")
		}
		profile.IsCurrent = true
	}
	return profile, nil
}

// SetCurrent promotes a profile version to current. The previous current
// profile, if any, is demoted in the same transaction.
func (s *CapacityService) SetCurrent(ctx context.Context, teacherID, profileID string) (*models.CapacityProfile, error) {
	profile, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "capacity profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load capacity profile")
	}
	if profile.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "profile belongs to another teacher")
	}

	if err := s.repo.SetCurrent(ctx, teacherID, profileID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "capacity profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote capacity profile")
	}
	profile.IsCurrent = true
	return profile, nil
}

func (s *CapacityService) ensureTeacher(ctx context.Context, teacherID string) error {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return nil
}

// validateClock checks "HH:mm" strings.
func validateClock(value string) error {
	_, err := time.Parse("15:04", value)
	return err
}
