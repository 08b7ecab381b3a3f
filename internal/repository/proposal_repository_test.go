package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafit/schedule-api/internal/models"
)

func TestProposalRepositoryUpdateStatusGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_proposals SET status = $2, updated_at = $3 WHERE id = $1 AND status IN ('draft', 'review')")).
		WithArgs("p1", models.ProposalStatusReview, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	moved, err := repo.UpdateStatus(context.Background(), "p1", models.ProposalStatusReview)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryApproveMergesEntries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedule_proposals SET status").
		WithArgs("p1", models.ProposalStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rows := sqlmock.NewRows([]string{"id", "teacher_ids", "student_ids", "start_time", "end_time", "day", "class_type", "work_log_id", "is_unplanned", "is_recurring", "capacity", "notes", "proposal_id", "created_at", "updated_at"}).
		AddRow("e1", pq.StringArray{"t1"}, pq.StringArray{}, now, now.Add(time.Hour), 1, "Calistenia", nil, false, true, nil, nil, "p1", now, now).
		AddRow("e2", pq.StringArray{"t2"}, pq.StringArray{}, now, now.Add(time.Hour), 2, "Escalada", nil, false, true, nil, nil, "p1", now, now)
	mock.ExpectQuery("SELECT (.+) FROM proposal_entries WHERE proposal_id = \\$1").
		WithArgs("p1").
		WillReturnRows(rows)
	// e1 replaces a live row, e2 is new and gets inserted.
	mock.ExpectExec("UPDATE schedule_entries SET teacher_ids").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE schedule_entries SET teacher_ids").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schedule_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	merged, err := repo.Approve(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, merged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryApproveTerminalLeavesGridUntouched(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedule_proposals SET status").
		WithArgs("p1", models.ProposalStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	merged, err := repo.Approve(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, merged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryCreateWithEntries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_proposals").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO proposal_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	now := time.Now().UTC()
	proposal := &models.ScheduleProposal{
		Name:      "Next week",
		CreatedBy: "u1",
		Status:    models.ProposalStatusDraft,
		ProposedEntries: []models.ScheduleEntry{
			{TeacherIDs: pq.StringArray{"t1"}, StartTime: now, EndTime: now.Add(time.Hour), Day: 1, ClassType: models.ClassTypeCalistenia},
		},
	}
	require.NoError(t, repo.Create(context.Background(), proposal))
	assert.NotEmpty(t, proposal.ID)
	require.NotNil(t, proposal.ProposedEntries[0].ProposalID)
	assert.Equal(t, proposal.ID, *proposal.ProposedEntries[0].ProposalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
