package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type proposalRepository interface {
	List(ctx context.Context, status *models.ProposalStatus) ([]models.ScheduleProposal, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleProposal, error)
	Create(ctx context.Context, proposal *models.ScheduleProposal) error
	UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) (bool, error)
	UpdateAnalysis(ctx context.Context, id string, analysis models.ConflictAnalysis) error
	FindEntry(ctx context.Context, proposalID, entryID string) (*models.ScheduleEntry, error)
	AddEntry(ctx context.Context, proposalID string, entry *models.ScheduleEntry) error
	RemoveEntry(ctx context.Context, proposalID, entryID string) error
	UpdateEntryTeachers(ctx context.Context, proposalID, entryID string, teacherIDs []string) error
	Approve(ctx context.Context, id string) (bool, error)
}

type proposalAnalyzer interface {
	AnalyzeEntries(ctx context.Context, entries []models.ScheduleEntry) (*dto.PlanningAnalysis, error)
}

// ActivateProposalRequest names a new draft proposal.
type ActivateProposalRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Notes *string `json:"notes"`
}

// ProposalService manages the draft schedule lifecycle. Mutations on one
// proposal are serialized through a per-proposal mutex; the terminal-state
// guard in the repository backs that up across processes.
type ProposalService struct {
	repo      proposalRepository
	schedule  planningScheduleSource
	analyzer  proposalAnalyzer
	validator *validator.Validate
	logger    *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProposalService constructs a ProposalService.
func NewProposalService(repo proposalRepository, schedule planningScheduleSource, analyzer proposalAnalyzer, validate *validator.Validate, logger *zap.Logger) *ProposalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{
		repo:      repo,
		schedule:  schedule,
		analyzer:  analyzer,
		validator: validate,
		logger:    logger,
		locks:     map[string]*sync.Mutex{},
	}
}

func (s *ProposalService) lock(id string) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// List returns proposals, optionally filtered by status.
func (s *ProposalService) List(ctx context.Context, status *models.ProposalStatus) ([]models.ScheduleProposal, error) {
	proposals, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	return proposals, nil
}

// Get returns a proposal with its entries.
func (s *ProposalService) Get(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	return proposal, nil
}

// Activate returns the proposal planning mode should edit. When an editable
// proposal already exists it becomes the active one; only when none does is
// a fresh draft created, seeded with a copy of the current live schedule.
// Seeded entries keep their live ids so approval can merge them back by id.
func (s *ProposalService) Activate(ctx context.Context, createdBy string, req ActivateProposalRequest) (*models.ScheduleProposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}

	existing, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	for _, candidate := range existing {
		if candidate.Status.Mutable() {
			return s.Get(ctx, candidate.ID)
		}
	}

	live, err := s.schedule.ListLive(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load live schedule")
	}

	seeded := make([]models.ScheduleEntry, len(live))
	copy(seeded, live)

	proposal := &models.ScheduleProposal{
		Name:      strings.TrimSpace(req.Name),
		CreatedBy: createdBy,
		Status:    models.ProposalStatusDraft,
		Notes:     req.Notes,
		ConflictReport: models.ConflictAnalysis{
			TeacherConflicts:  []models.TeacherConflict{},
			ResourceConflicts: []models.ResourceConflict{},
			WorkloadIssues:    []models.WorkloadIssue{},
		},
		ProposedEntries: seeded,
	}
	if err := s.repo.Create(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create proposal")
	}
	return proposal, nil
}

// Transition moves a proposal to the target status. Approving merges the
// proposal into the live grid atomically; illegal moves, including any move
// out of a terminal status, are rejected.
func (s *ProposalService) Transition(ctx context.Context, id string, to models.ProposalStatus) (*models.ScheduleProposal, error) {
	switch to {
	case models.ProposalStatusReview, models.ProposalStatusApproved, models.ProposalStatusRejected:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown proposal status")
	}

	unlock := s.lock(id)
	defer unlock()

	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(proposal.Status, to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "proposal cannot move to "+string(to))
	}

	var moved bool
	if to == models.ProposalStatusApproved {
		moved, err = s.repo.Approve(ctx, id)
	} else {
		moved, err = s.repo.UpdateStatus(ctx, id, to)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update proposal status")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "proposal is already finalized")
	}

	proposal.Status = to
	return proposal, nil
}

// AddEntry appends a proposed entry to a mutable proposal.
func (s *ProposalService) AddEntry(ctx context.Context, proposalID string, req ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}
	if !models.ValidClassType(req.ClassType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown class type")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	unlock := s.lock(proposalID)
	defer unlock()

	if err := s.ensureMutable(ctx, proposalID); err != nil {
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
	if err := s.repo.AddEntry(ctx, proposalID, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add proposal entry")
	}
	return entry, nil
}

// RemoveEntry deletes a proposed entry from a mutable proposal.
func (s *ProposalService) RemoveEntry(ctx context.Context, proposalID, entryID string) error {
	unlock := s.lock(proposalID)
	defer unlock()

	if err := s.ensureMutable(ctx, proposalID); err != nil {
		return err
	}
	if err := s.repo.RemoveEntry(ctx, proposalID, entryID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "proposal entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove proposal entry")
	}
	return nil
}

// ReassignEntry replaces the teacher set on a proposed entry.
func (s *ProposalService) ReassignEntry(ctx context.Context, proposalID, entryID string, teacherIDs []string) error {
	if len(teacherIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one teacher required")
	}

	unlock := s.lock(proposalID)
	defer unlock()

	if err := s.ensureMutable(ctx, proposalID); err != nil {
		return err
	}
	if err := s.repo.UpdateEntryTeachers(ctx, proposalID, entryID, teacherIDs); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "proposal entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign proposal entry")
	}
	return nil
}

// RefreshAnalysis recomputes the proposal's conflict snapshot on demand
// and persists it.
func (s *ProposalService) RefreshAnalysis(ctx context.Context, id string) (*models.ConflictAnalysis, error) {
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.AnalyzeEntries(ctx, proposal.ProposedEntries)
	if err != nil {
		return nil, err
	}

	snapshot := Snapshot(analysis)
	if err := s.repo.UpdateAnalysis(ctx, id, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store proposal analysis")
	}
	return &snapshot, nil
}

func (s *ProposalService) ensureMutable(ctx context.Context, proposalID string) error {
	proposal, err := s.Get(ctx, proposalID)
	if err != nil {
		return err
	}
	if !proposal.Status.Mutable() {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "proposal is no longer editable")
	}
	return nil
}
