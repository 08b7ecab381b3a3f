package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type memProposalRepo struct {
	proposals map[string]*models.ScheduleProposal
	merged    []string
	seq       int
}

func newMemProposalRepo() *memProposalRepo {
	return &memProposalRepo{proposals: map[string]*models.ScheduleProposal{}}
}

func (m *memProposalRepo) List(ctx context.Context, status *models.ProposalStatus) ([]models.ScheduleProposal, error) {
	var out []models.ScheduleProposal
	for _, p := range m.proposals {
		if status == nil || p.Status == *status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProposalRepo) FindByID(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (m *memProposalRepo) Create(ctx context.Context, proposal *models.ScheduleProposal) error {
	if proposal.ID == "" {
		m.seq++
		proposal.ID = fmt.Sprintf("p%d", m.seq)
	}
	clone := *proposal
	m.proposals[proposal.ID] = &clone
	return nil
}

func (m *memProposalRepo) UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) (bool, error) {
	p, ok := m.proposals[id]
	if !ok || !p.Status.Mutable() {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (m *memProposalRepo) UpdateAnalysis(ctx context.Context, id string, analysis models.ConflictAnalysis) error {
	p, ok := m.proposals[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.ConflictReport = analysis
	return nil
}

func (m *memProposalRepo) FindEntry(ctx context.Context, proposalID, entryID string) (*models.ScheduleEntry, error) {
	p, ok := m.proposals[proposalID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	for i := range p.ProposedEntries {
		if p.ProposedEntries[i].ID == entryID {
			return &p.ProposedEntries[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memProposalRepo) AddEntry(ctx context.Context, proposalID string, entry *models.ScheduleEntry) error {
	p, ok := m.proposals[proposalID]
	if !ok {
		return sql.ErrNoRows
	}
	if entry.ID == "" {
		m.seq++
		entry.ID = fmt.Sprintf("e%d", m.seq)
	}
	p.ProposedEntries = append(p.ProposedEntries, *entry)
	return nil
}

func (m *memProposalRepo) RemoveEntry(ctx context.Context, proposalID, entryID string) error {
	p, ok := m.proposals[proposalID]
	if !ok {
		return sql.ErrNoRows
	}
	for i := range p.ProposedEntries {
		if p.ProposedEntries[i].ID == entryID {
			p.ProposedEntries = append(p.ProposedEntries[:i], p.ProposedEntries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memProposalRepo) UpdateEntryTeachers(ctx context.Context, proposalID, entryID string, teacherIDs []string) error {
	p, ok := m.proposals[proposalID]
	if !ok {
		return sql.ErrNoRows
	}
	for i := range p.ProposedEntries {
		if p.ProposedEntries[i].ID == entryID {
			p.ProposedEntries[i].TeacherIDs = pq.StringArray(teacherIDs)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memProposalRepo) Approve(ctx context.Context, id string) (bool, error) {
	p, ok := m.proposals[id]
	if !ok || !p.Status.Mutable() {
		return false, nil
	}
	p.Status = models.ProposalStatusApproved
	m.merged = append(m.merged, id)
	return true, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) AnalyzeEntries(ctx context.Context, entries []models.ScheduleEntry) (*dto.PlanningAnalysis, error) {
	return &dto.PlanningAnalysis{
		CapacityIssues:    []dto.CapacityIssue{},
		ResourceConflicts: []dto.ResourceConflictItem{},
	}, nil
}

func newProposalService(repo *memProposalRepo, live []models.ScheduleEntry) *ProposalService {
	return NewProposalService(repo, &stubSchedule{entries: live}, stubAnalyzer{}, nil, nil)
}

func TestProposalActivateSeedsLiveSchedule(t *testing.T) {
	monday := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	workLogID := "w1"
	live := []models.ScheduleEntry{
		{ID: "e1", TeacherIDs: pq.StringArray{"t1"}, StartTime: monday, EndTime: monday.Add(time.Hour), Day: 1, ClassType: models.ClassTypeCalistenia, IsRecurring: true},
		{ID: "e2", TeacherIDs: pq.StringArray{"t2"}, StartTime: monday, EndTime: monday.Add(time.Hour), Day: 1, ClassType: models.ClassTypePonto, IsUnplanned: true, WorkLogID: &workLogID},
	}
	repo := newMemProposalRepo()
	svc := newProposalService(repo, live)

	proposal, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 11"})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusDraft, proposal.Status)
	// the whole live grid is copied, unplanned entries included
	require.Len(t, proposal.ProposedEntries, 2)
	// seeded entries keep their live ids so approval can merge by id
	assert.Equal(t, "e1", proposal.ProposedEntries[0].ID)
	assert.Equal(t, "e2", proposal.ProposedEntries[1].ID)
}

func TestProposalActivateReusesEditableDraft(t *testing.T) {
	repo := newMemProposalRepo()
	svc := newProposalService(repo, nil)

	first, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 11"})
	require.NoError(t, err)

	second, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 11 again"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.proposals, 1)
}

func TestProposalActivateAfterFinalizedCreatesFreshDraft(t *testing.T) {
	repo := newMemProposalRepo()
	svc := newProposalService(repo, nil)

	first, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 11"})
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), first.ID, models.ProposalStatusRejected)
	require.NoError(t, err)

	second, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 12"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.ProposalStatusDraft, second.Status)
}

func TestProposalLifecycleDraftReviewApproved(t *testing.T) {
	repo := newMemProposalRepo()
	svc := newProposalService(repo, nil)

	proposal, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 12"})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), proposal.ID, models.ProposalStatusReview)
	require.NoError(t, err)

	approved, err := svc.Transition(context.Background(), proposal.ID, models.ProposalStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusApproved, approved.Status)
	assert.Equal(t, []string{proposal.ID}, repo.merged)
}

func TestProposalApproveTwiceFails(t *testing.T) {
	repo := newMemProposalRepo()
	svc := newProposalService(repo, nil)

	proposal, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 13"})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), proposal.ID, models.ProposalStatusApproved)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), proposal.ID, models.ProposalStatusApproved)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
	// the live merge ran exactly once
	assert.Equal(t, []string{proposal.ID}, repo.merged)
}

func TestProposalRejectedIsTerminal(t *testing.T) {
	repo := newMemProposalRepo()
	svc := newProposalService(repo, nil)

	proposal, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 14"})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), proposal.ID, models.ProposalStatusRejected)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), proposal.ID, models.ProposalStatusReview)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestProposalEntryEditsFrozenAfterApproval(t *testing.T) {
	repo := newMemProposalRepo()
	svc := newProposalService(repo, nil)

	proposal, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 15"})
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), proposal.ID, models.ProposalStatusApproved)
	require.NoError(t, err)

	start := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	_, err = svc.AddEntry(context.Background(), proposal.ID, ScheduleEntryRequest{
		TeacherIDs: []string{"t1"},
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		ClassType:  models.ClassTypeCalistenia,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))

	err = svc.ReassignEntry(context.Background(), proposal.ID, "e1", []string{"t2"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestProposalRefreshAnalysisStoresSnapshot(t *testing.T) {
	repo := newMemProposalRepo()
	svc := newProposalService(repo, nil)

	proposal, err := svc.Activate(context.Background(), "u1", ActivateProposalRequest{Name: "Week 16"})
	require.NoError(t, err)

	snapshot, err := svc.RefreshAnalysis(context.Background(), proposal.ID)
	require.NoError(t, err)
	assert.NotNil(t, snapshot)

	stored, err := svc.Get(context.Background(), proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, *snapshot, stored.ConflictReport)
}

func TestProposalUnknownTargetStatus(t *testing.T) {
	svc := newProposalService(newMemProposalRepo(), nil)
	_, err := svc.Transition(context.Background(), "p1", models.ProposalStatus("archived"))
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
