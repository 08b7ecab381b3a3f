package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type suggestionScheduleSource interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	UpdateTeachers(ctx context.Context, id string, teacherIDs []string) error
}

type suggestionTeacherSource interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type suggestionProposalSink interface {
	Create(ctx context.Context, proposal *models.ScheduleProposal) error
}

// SuggestionService applies planning-assistant suggestions to the system.
// Every payload is validated in full before the first write, so a bad
// suggestion changes nothing.
type SuggestionService struct {
	schedule  suggestionScheduleSource
	teachers  suggestionTeacherSource
	proposals suggestionProposalSink
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSuggestionService constructs a SuggestionService.
func NewSuggestionService(schedule suggestionScheduleSource, teachers suggestionTeacherSource, proposals suggestionProposalSink, validate *validator.Validate, logger *zap.Logger) *SuggestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{
		schedule:  schedule,
		teachers:  teachers,
		proposals: proposals,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Apply dispatches a tagged suggestion to its handler.
func (s *SuggestionService) Apply(ctx context.Context, createdBy string, suggestion dto.Suggestion) (*dto.ApplySuggestionResult, error) {
	switch suggestion.Kind {
	case dto.SuggestionKindReassignment:
		return s.applyReassignment(ctx, suggestion.Payload)
	case dto.SuggestionKindGeneratedWeek:
		return s.applyGeneratedWeek(ctx, createdBy, suggestion.Payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidSuggestion, "unknown suggestion kind")
	}
}

func (s *SuggestionService) applyReassignment(ctx context.Context, payload json.RawMessage) (*dto.ApplySuggestionResult, error) {
	var req dto.ReassignmentSuggestion
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSuggestion.Code, appErrors.ErrInvalidSuggestion.Status, "malformed reassignment payload")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSuggestion.Code, appErrors.ErrInvalidSuggestion.Status, "invalid reassignment payload")
	}

	entry, err := s.schedule.FindByID(ctx, req.ScheduleEntryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}

	for _, teacherID := range req.NewTeacherIDs {
		if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher "+teacherID+" not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
	}

	if err := s.schedule.UpdateTeachers(ctx, entry.ID, req.NewTeacherIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign entry")
	}

	if req.Reasoning != "" {
		s.logger.Info("applied reassignment suggestion",
			zap.String("entry_id", entry.ID),
			zap.String("reasoning", req.Reasoning))
	}
	return &dto.ApplySuggestionResult{
		Kind:     dto.SuggestionKindReassignment,
		EntryIDs: []string{entry.ID},
	}, nil
}

// applyGeneratedWeek validates the whole batch, then materializes it into
// a fresh draft proposal anchored at Monday of the current week.
func (s *SuggestionService) applyGeneratedWeek(ctx context.Context, createdBy string, payload json.RawMessage) (*dto.ApplySuggestionResult, error) {
	var req dto.GeneratedWeekPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSuggestion.Code, appErrors.ErrInvalidSuggestion.Status, "malformed generated week payload")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSuggestion.Code, appErrors.ErrInvalidSuggestion.Status, "invalid generated week payload")
	}

	type span struct {
		start time.Duration
		end   time.Duration
	}
	spans := make([]span, len(req.GeneratedClasses))
	for i, class := range req.GeneratedClasses {
		if class.Day < 1 || class.Day > 5 {
			return nil, appErrors.Clone(appErrors.ErrInvalidSuggestion, fmt.Sprintf("class %d: day must be Monday through Friday", i))
		}
		if !models.ValidClassType(models.ClassType(class.ClassType)) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSuggestion, fmt.Sprintf("class %d: unknown class type %q", i, class.ClassType))
		}
		start, err := clockOffset(class.StartTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidSuggestion, fmt.Sprintf("class %d: bad start time", i))
		}
		end, err := clockOffset(class.EndTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidSuggestion, fmt.Sprintf("class %d: bad end time", i))
		}
		if end <= start {
			return nil, appErrors.Clone(appErrors.ErrInvalidSuggestion, fmt.Sprintf("class %d: end must be after start", i))
		}
		for _, teacherID := range class.TeacherIDs {
			if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
				if err == sql.ErrNoRows {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher "+teacherID+" not found")
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
			}
		}
		spans[i] = span{start: start, end: end}
	}

	monday := mondayOf(s.now())
	entries := make([]models.ScheduleEntry, 0, len(req.GeneratedClasses))
	for i, class := range req.GeneratedClasses {
		date := monday.AddDate(0, 0, class.Day-1)
		entries = append(entries, models.ScheduleEntry{
			TeacherIDs:  pq.StringArray(class.TeacherIDs),
			StudentIDs:  pq.StringArray{},
			StartTime:   date.Add(spans[i].start),
			EndTime:     date.Add(spans[i].end),
			Day:         class.Day,
			ClassType:   models.ClassType(class.ClassType),
			IsRecurring: true,
			Capacity:    class.Capacity,
			Notes:       class.Notes,
		})
	}

	name := strings.TrimSpace(req.Summary)
	if name == "" {
		name = "Generated week"
	}
	var warnings *string
	if len(req.Warnings) > 0 {
		joined := strings.Join(req.Warnings, "; ")
		warnings = &joined
	}

	proposal := &models.ScheduleProposal{
		Name:      name,
		CreatedBy: createdBy,
		Status:    models.ProposalStatusDraft,
		Notes:     warnings,
		ConflictReport: models.ConflictAnalysis{
			TeacherConflicts:  []models.TeacherConflict{},
			ResourceConflicts: []models.ResourceConflict{},
			WorkloadIssues:    []models.WorkloadIssue{},
		},
		ProposedEntries: entries,
	}
	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create proposal")
	}

	return &dto.ApplySuggestionResult{
		Kind:         dto.SuggestionKindGeneratedWeek,
		ProposalID:   &proposal.ID,
		EntriesAdded: len(entries),
	}, nil
}

// clockOffset parses "HH:mm" into an offset from midnight.
func clockOffset(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// mondayOf returns midnight UTC on the Monday of the instant's week.
func mondayOf(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
