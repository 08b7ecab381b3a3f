package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type stubWorkLogs struct {
	logs []models.WorkLog
}

func (s *stubWorkLogs) ListAll(ctx context.Context) ([]models.WorkLog, error) {
	return s.logs, nil
}

func (s *stubWorkLogs) ListByTeacher(ctx context.Context, teacherID string) ([]models.WorkLog, error) {
	var out []models.WorkLog
	for _, log := range s.logs {
		if log.TeacherID == teacherID {
			out = append(out, log)
		}
	}
	return out, nil
}

type stubTeachers struct {
	teachers map[string]models.Teacher
}

func (s *stubTeachers) ListActive(ctx context.Context) ([]models.Teacher, error) {
	var out []models.Teacher
	for _, teacher := range s.teachers {
		if teacher.Active {
			out = append(out, teacher)
		}
	}
	return out, nil
}

func (s *stubTeachers) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := s.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &teacher, nil
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestWorkloadComputeForTeacherSumsClosedLogs(t *testing.T) {
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	logs := &stubWorkLogs{logs: []models.WorkLog{
		{ID: "w1", TeacherID: "t1", CheckIn: base, CheckOut: ptrTime(base.Add(4 * time.Hour))},
		{ID: "w2", TeacherID: "t1", CheckIn: base.AddDate(0, 0, 1), CheckOut: ptrTime(base.AddDate(0, 0, 1).Add(90 * time.Minute))},
		{ID: "w3", TeacherID: "t2", CheckIn: base, CheckOut: ptrTime(base.Add(8 * time.Hour))},
	}}
	teachers := &stubTeachers{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", Name: "Ana", ContractedHours: 10, Active: true},
	}}
	svc := NewWorkloadService(logs, teachers, nil, 0, nil, nil)

	workload, err := svc.ComputeForTeacher(context.Background(), "t1", nil)
	require.NoError(t, err)
	assert.InDelta(t, 5.5, workload.WorkedHours, 1e-9)
	assert.InDelta(t, 4.5, workload.Deficit, 1e-9)
	assert.Zero(t, workload.Overtime)
}

func TestWorkloadOpenLogClosedAgainstAsOf(t *testing.T) {
	checkIn := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	logs := &stubWorkLogs{logs: []models.WorkLog{
		{ID: "w1", TeacherID: "t1", CheckIn: checkIn},
	}}
	teachers := &stubTeachers{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", ContractedHours: 2, Active: true},
	}}
	svc := NewWorkloadService(logs, teachers, nil, 0, nil, nil)

	asOf := checkIn.Add(3 * time.Hour)
	workload, err := svc.ComputeForTeacher(context.Background(), "t1", &asOf)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, workload.WorkedHours, 1e-9)
	assert.InDelta(t, 1.0, workload.Overtime, 1e-9)
	assert.Zero(t, workload.Deficit)
}

func TestWorkloadAsOfBeforeCheckInCountsNothing(t *testing.T) {
	checkIn := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	logs := &stubWorkLogs{logs: []models.WorkLog{
		{ID: "w1", TeacherID: "t1", CheckIn: checkIn},
	}}
	teachers := &stubTeachers{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", ContractedHours: 2, Active: true},
	}}
	svc := NewWorkloadService(logs, teachers, nil, 0, nil, nil)

	asOf := checkIn.Add(-time.Hour)
	workload, err := svc.ComputeForTeacher(context.Background(), "t1", &asOf)
	require.NoError(t, err)
	assert.Zero(t, workload.WorkedHours)
	assert.InDelta(t, 2.0, workload.Deficit, 1e-9)
}

func TestWorkloadComputeAllOrderInsensitive(t *testing.T) {
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	forward := []models.WorkLog{
		{ID: "w1", TeacherID: "t1", CheckIn: base, CheckOut: ptrTime(base.Add(2 * time.Hour))},
		{ID: "w2", TeacherID: "t1", CheckIn: base.Add(4 * time.Hour), CheckOut: ptrTime(base.Add(7 * time.Hour))},
	}
	reversed := []models.WorkLog{forward[1], forward[0]}

	teachers := &stubTeachers{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", ContractedHours: 5, Active: true},
	}}

	first, err := NewWorkloadService(&stubWorkLogs{logs: forward}, teachers, nil, 0, nil, nil).ComputeAll(context.Background(), nil)
	require.NoError(t, err)
	second, err := NewWorkloadService(&stubWorkLogs{logs: reversed}, teachers, nil, 0, nil, nil).ComputeAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWorkloadUnknownTeacher(t *testing.T) {
	svc := NewWorkloadService(&stubWorkLogs{}, &stubTeachers{teachers: map[string]models.Teacher{}}, nil, 0, nil, nil)
	_, err := svc.ComputeForTeacher(context.Background(), "missing", nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
