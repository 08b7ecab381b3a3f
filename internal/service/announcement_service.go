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

type announcementRepository interface {
	List(ctx context.Context) ([]models.Announcement, error)
	Create(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementRequest represents payload for posting announcements.
type AnnouncementRequest struct {
	Message string     `json:"message" validate:"required,max=1000"`
	Date    *time.Time `json:"date"`
}

// AnnouncementService manages dashboard announcements.
type AnnouncementService struct {
	repo      announcementRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService.
func NewAnnouncementService(repo announcementRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, validator: validate, logger: logger}
}

// List returns announcements, newest first.
func (s *AnnouncementService) List(ctx context.Context) ([]models.Announcement, error) {
	announcements, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

// Create posts a new announcement. A missing date defaults to today.
func (s *AnnouncementService) Create(ctx context.Context, req AnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	date := time.Now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}
	announcement := &models.Announcement{
		Message: strings.TrimSpace(req.Message),
		Date:    date,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return announcement, nil
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	return nil
}
