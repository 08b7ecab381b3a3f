package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type memScheduleSource struct {
	entries map[string]*models.ScheduleEntry
}

func (m *memScheduleSource) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *entry
	return &clone, nil
}

func (m *memScheduleSource) UpdateTeachers(ctx context.Context, id string, teacherIDs []string) error {
	entry, ok := m.entries[id]
	if !ok {
		return sql.ErrNoRows
	}
	entry.TeacherIDs = pq.StringArray(teacherIDs)
	return nil
}

func rawPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func newSuggestionFixture() (*memScheduleSource, *stubTeachers, *memProposalRepo, *SuggestionService) {
	schedule := &memScheduleSource{entries: map[string]*models.ScheduleEntry{
		"e1": {ID: "e1", TeacherIDs: pq.StringArray{"t1"}},
	}}
	teachers := &stubTeachers{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", Active: true},
		"t2": {ID: "t2", Active: true},
	}}
	proposals := newMemProposalRepo()
	svc := NewSuggestionService(schedule, teachers, proposals, nil, nil)
	return schedule, teachers, proposals, svc
}

func TestSuggestionReassignment(t *testing.T) {
	schedule, _, _, svc := newSuggestionFixture()

	result, err := svc.Apply(context.Background(), "u1", dto.Suggestion{
		Kind: dto.SuggestionKindReassignment,
		Payload: rawPayload(t, dto.ReassignmentSuggestion{
			ScheduleEntryID: "e1",
			NewTeacherIDs:   []string{"t2"},
			Reasoning:       "balance hours",
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, result.EntryIDs)
	assert.Equal(t, pq.StringArray{"t2"}, schedule.entries["e1"].TeacherIDs)
}

func TestSuggestionReassignmentUnknownTeacherChangesNothing(t *testing.T) {
	schedule, _, _, svc := newSuggestionFixture()

	_, err := svc.Apply(context.Background(), "u1", dto.Suggestion{
		Kind: dto.SuggestionKindReassignment,
		Payload: rawPayload(t, dto.ReassignmentSuggestion{
			ScheduleEntryID: "e1",
			NewTeacherIDs:   []string{"zz-404"},
		}),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, pq.StringArray{"t1"}, schedule.entries["e1"].TeacherIDs)
}

func TestSuggestionReassignmentUnknownEntry(t *testing.T) {
	_, _, _, svc := newSuggestionFixture()

	_, err := svc.Apply(context.Background(), "u1", dto.Suggestion{
		Kind: dto.SuggestionKindReassignment,
		Payload: rawPayload(t, dto.ReassignmentSuggestion{
			ScheduleEntryID: "missing",
			NewTeacherIDs:   []string{"t2"},
		}),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSuggestionMalformedPayload(t *testing.T) {
	_, _, _, svc := newSuggestionFixture()

	_, err := svc.Apply(context.Background(), "u1", dto.Suggestion{
		Kind:    dto.SuggestionKindReassignment,
		Payload: json.RawMessage(`{"scheduleEntryId": 42}`),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidSuggestion))
}

func TestSuggestionUnknownKind(t *testing.T) {
	_, _, _, svc := newSuggestionFixture()

	_, err := svc.Apply(context.Background(), "u1", dto.Suggestion{
		Kind:    dto.SuggestionKind("swap_rooms"),
		Payload: json.RawMessage(`{}`),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidSuggestion))
}

func TestGeneratedWeekMaterializesIntoDraftProposal(t *testing.T) {
	_, _, proposals, svc := newSuggestionFixture()
	// Thursday; the anchor must land on Monday 2026-03-02.
	svc.now = func() time.Time { return time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC) }

	result, err := svc.Apply(context.Background(), "u1", dto.Suggestion{
		Kind: dto.SuggestionKindGeneratedWeek,
		Payload: rawPayload(t, dto.GeneratedWeekPayload{
			Summary:  "Lighter Wednesdays",
			Warnings: []string{"t2 near limit"},
			GeneratedClasses: []dto.GeneratedClass{
				{Day: 1, StartTime: "08:00", EndTime: "09:30", ClassType: "Calistenia", TeacherIDs: []string{"t1"}},
				{Day: 5, StartTime: "18:00", EndTime: "19:00", ClassType: "Escalada", TeacherIDs: []string{"t2"}},
			},
		}),
	})
	require.NoError(t, err)
	require.NotNil(t, result.ProposalID)
	assert.Equal(t, 2, result.EntriesAdded)

	proposal := proposals.proposals[*result.ProposalID]
	require.NotNil(t, proposal)
	assert.Equal(t, models.ProposalStatusDraft, proposal.Status)
	assert.Equal(t, "Lighter Wednesdays", proposal.Name)
	require.Len(t, proposal.ProposedEntries, 2)

	first := proposal.ProposedEntries[0]
	assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), first.StartTime)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), first.EndTime)
	assert.Equal(t, 1, first.Day)
	assert.True(t, first.IsRecurring)

	second := proposal.ProposedEntries[1]
	assert.Equal(t, time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC), second.StartTime)
	assert.Equal(t, 5, second.Day)
}

func TestGeneratedWeekRejectsWeekendDay(t *testing.T) {
	_, _, proposals, svc := newSuggestionFixture()

	_, err := svc.Apply(context.Background(), "u1", dto.Suggestion{
		Kind: dto.SuggestionKindGeneratedWeek,
		Payload: rawPayload(t, dto.GeneratedWeekPayload{
			GeneratedClasses: []dto.GeneratedClass{
				{Day: 1, StartTime: "08:00", EndTime: "09:00", ClassType: "Calistenia", TeacherIDs: []string{"t1"}},
				{Day: 0, StartTime: "10:00", EndTime: "11:00", ClassType: "Escalada", TeacherIDs: []string{"t2"}},
			},
		}),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidSuggestion))
	// the whole batch aborts; not even the valid Monday class lands
	assert.Empty(t, proposals.proposals)
}

func TestGeneratedWeekRejectsInvertedTimes(t *testing.T) {
	_, _, proposals, svc := newSuggestionFixture()

	_, err := svc.Apply(context.Background(), "u1", dto.Suggestion{
		Kind: dto.SuggestionKindGeneratedWeek,
		Payload: rawPayload(t, dto.GeneratedWeekPayload{
			GeneratedClasses: []dto.GeneratedClass{
				{Day: 2, StartTime: "10:00", EndTime: "09:00", ClassType: "Calistenia", TeacherIDs: []string{"t1"}},
			},
		}),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidSuggestion))
	assert.Empty(t, proposals.proposals)
}
