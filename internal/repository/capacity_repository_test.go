package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafit/schedule-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCapacityRepositoryCurrentByTeacherMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCapacityRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM capacity_profiles WHERE teacher_id = \\$1 AND is_current = TRUE").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	profile, err := repo.CurrentByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, profile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityRepositorySetCurrentDemotesThenPromotes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCapacityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE capacity_profiles SET is_current = FALSE, updated_at = $2 WHERE teacher_id = $1 AND is_current = TRUE")).
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE capacity_profiles SET is_current = TRUE, updated_at = $3 WHERE id = $1 AND teacher_id = $2")).
		WithArgs("p2", "t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetCurrent(context.Background(), "t1", "p2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityRepositorySetCurrentUnknownProfileRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCapacityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE capacity_profiles SET is_current = FALSE").
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE capacity_profiles SET is_current = TRUE").
		WithArgs("missing", "t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetCurrent(context.Background(), "t1", "missing")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCapacityRepository(db)

	mock.ExpectExec("INSERT INTO capacity_profiles").
		WillReturnResult(sqlmock.NewResult(1, 1))

	profile := &models.CapacityProfile{
		TeacherID: "t1",
		Name:      "Semester plan",
		Availability: models.AvailabilityWindows{
			{Day: 1, StartTime: "08:00", EndTime: "17:00", IsAvailable: true},
		},
		EffectiveDate: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), profile))
	assert.NotEmpty(t, profile.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
