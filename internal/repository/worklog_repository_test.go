package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafit/schedule-api/internal/models"
)

func TestWorkLogRepositoryFindOpenByTeacherNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkLogRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM work_logs WHERE teacher_id = \\$1 AND check_out IS NULL").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	log, err := repo.FindOpenByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, log)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkLogRepositoryCloseAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkLogRepository(db)

	mock.ExpectExec("UPDATE work_logs SET check_out").
		WithArgs("w1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Close(context.Background(), "w1", time.Now().UTC())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkLogRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkLogRepository(db)

	mock.ExpectExec("INSERT INTO work_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.WorkLog{TeacherID: "t1", CheckIn: time.Now().UTC()}
	require.NoError(t, repo.Create(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
