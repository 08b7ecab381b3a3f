package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type rosterRepository interface {
	GetPriorityList(ctx context.Context) (*models.PriorityList, error)
	SavePriorityList(ctx context.Context, list *models.PriorityList) error
	GetShiftRoster(ctx context.Context) (*models.ShiftRoster, error)
	SaveShiftRoster(ctx context.Context, roster *models.ShiftRoster) error
}

// RosterService manages the priority list and shift roster singletons.
// Saved teacher ids are checked for existence so stale references never
// land in either document.
type RosterService struct {
	repo     rosterRepository
	teachers timeclockTeacherSource
	logger   *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(repo rosterRepository, teachers timeclockTeacherSource, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, teachers: teachers, logger: logger}
}

// PriorityList returns the seniority ordering document.
func (s *RosterService) PriorityList(ctx context.Context) (*models.PriorityList, error) {
	list, err := s.repo.GetPriorityList(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load priority list")
	}
	return list, nil
}

// SavePriorityList replaces the seniority ordering document.
func (s *RosterService) SavePriorityList(ctx context.Context, list models.PriorityList) (*models.PriorityList, error) {
	if err := s.ensureTeachers(ctx, append(append([]string{}, list.Titulares...), list.Auxiliares...)); err != nil {
		return nil, err
	}
	if list.Titulares == nil {
		list.Titulares = models.StringList{}
	}
	if list.Auxiliares == nil {
		list.Auxiliares = models.StringList{}
	}
	if err := s.repo.SavePriorityList(ctx, &list); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save priority list")
	}
	return &list, nil
}

// ShiftRoster returns the morning/afternoon staffing document.
func (s *RosterService) ShiftRoster(ctx context.Context) (*models.ShiftRoster, error) {
	roster, err := s.repo.GetShiftRoster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift roster")
	}
	return roster, nil
}

// SaveShiftRoster replaces the morning/afternoon staffing document.
func (s *RosterService) SaveShiftRoster(ctx context.Context, roster models.ShiftRoster) (*models.ShiftRoster, error) {
	if err := s.ensureTeachers(ctx, append(append([]string{}, roster.Morning...), roster.Afternoon...)); err != nil {
		return nil, err
	}
	if roster.Morning == nil {
		roster.Morning = models.StringList{}
	}
	if roster.Afternoon == nil {
		roster.Afternoon = models.StringList{}
	}
	if err := s.repo.SaveShiftRoster(ctx, &roster); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save shift roster")
	}
	return &roster, nil
}

func (s *RosterService) ensureTeachers(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.teachers.FindByID(ctx, id); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "teacher "+id+" not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
	}
	return nil
}
