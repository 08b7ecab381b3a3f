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

	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type memWorkLogRepo struct {
	logs map[string]*models.WorkLog
	seq  int
}

func newMemWorkLogRepo() *memWorkLogRepo {
	return &memWorkLogRepo{logs: map[string]*models.WorkLog{}}
}

func (m *memWorkLogRepo) ListAll(ctx context.Context) ([]models.WorkLog, error) {
	var out []models.WorkLog
	for _, log := range m.logs {
		out = append(out, *log)
	}
	return out, nil
}

func (m *memWorkLogRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.WorkLog, error) {
	var out []models.WorkLog
	for _, log := range m.logs {
		if log.TeacherID == teacherID {
			out = append(out, *log)
		}
	}
	return out, nil
}

func (m *memWorkLogRepo) FindOpenByTeacher(ctx context.Context, teacherID string) (*models.WorkLog, error) {
	for _, log := range m.logs {
		if log.TeacherID == teacherID && log.CheckOut == nil {
			clone := *log
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memWorkLogRepo) Create(ctx context.Context, log *models.WorkLog) error {
	if log.ID == "" {
		m.seq++
		log.ID = fmt.Sprintf("w%d", m.seq)
	}
	clone := *log
	m.logs[log.ID] = &clone
	return nil
}

func (m *memWorkLogRepo) Close(ctx context.Context, id string, checkOut time.Time) error {
	log, ok := m.logs[id]
	if !ok || log.CheckOut != nil {
		return sql.ErrNoRows
	}
	log.CheckOut = &checkOut
	return nil
}

type memTimeclockSchedule struct {
	entries  map[string]*models.ScheduleEntry
	covering *models.ScheduleEntry
	seq      int
}

func newMemTimeclockSchedule() *memTimeclockSchedule {
	return &memTimeclockSchedule{entries: map[string]*models.ScheduleEntry{}}
}

func (m *memTimeclockSchedule) FindCovering(ctx context.Context, teacherID string, at time.Time) (*models.ScheduleEntry, error) {
	if m.covering != nil && m.covering.Names(teacherID) && !at.Before(m.covering.StartTime) && at.Before(m.covering.EndTime) {
		clone := *m.covering
		return &clone, nil
	}
	return nil, nil
}

func (m *memTimeclockSchedule) FindByWorkLog(ctx context.Context, workLogID string) (*models.ScheduleEntry, error) {
	for _, entry := range m.entries {
		if entry.WorkLogID != nil && *entry.WorkLogID == workLogID {
			clone := *entry
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memTimeclockSchedule) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		m.seq++
		entry.ID = fmt.Sprintf("se%d", m.seq)
	}
	clone := *entry
	m.entries[entry.ID] = &clone
	return nil
}

func (m *memTimeclockSchedule) Update(ctx context.Context, entry *models.ScheduleEntry) error {
	if _, ok := m.entries[entry.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *entry
	m.entries[entry.ID] = &clone
	return nil
}

func newTimeclockFixture() (*memWorkLogRepo, *memTimeclockSchedule, *TimeclockService) {
	logs := newMemWorkLogRepo()
	schedule := newMemTimeclockSchedule()
	teachers := &stubTeachers{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", Active: true},
	}}
	svc := NewTimeclockService(logs, schedule, teachers, nil, nil)
	return logs, schedule, svc
}

func TestCheckInCreatesUnplannedEntry(t *testing.T) {
	_, schedule, svc := newTimeclockFixture()
	checkIn := time.Date(2026, 3, 3, 7, 45, 0, 0, time.UTC)
	svc.now = func() time.Time { return checkIn }

	result, err := svc.CheckIn(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, result.UnplannedEntry)
	assert.True(t, result.UnplannedEntry.IsUnplanned)
	assert.Equal(t, models.ClassTypePonto, result.UnplannedEntry.ClassType)
	assert.Equal(t, checkIn.Add(time.Hour), result.UnplannedEntry.EndTime)
	require.NotNil(t, result.UnplannedEntry.WorkLogID)
	assert.Equal(t, result.WorkLog.ID, *result.UnplannedEntry.WorkLogID)
	assert.Len(t, schedule.entries, 1)
}

func TestCheckInLinksCoveringPlannedEntry(t *testing.T) {
	_, schedule, svc := newTimeclockFixture()
	start := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	planned := &models.ScheduleEntry{
		ID:          "e1",
		TeacherIDs:  pq.StringArray{"t1"},
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		Day:         2,
		ClassType:   models.ClassTypeCalistenia,
		IsRecurring: true,
	}
	schedule.entries["e1"] = planned
	schedule.covering = planned
	svc.now = func() time.Time { return start.Add(10 * time.Minute) }

	result, err := svc.CheckIn(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, result.UnplannedEntry)

	// the planned entry is linked to the log, not replaced by a ponto entry
	require.NotNil(t, result.LinkedEntry)
	assert.Equal(t, "e1", result.LinkedEntry.ID)
	require.NotNil(t, result.LinkedEntry.WorkLogID)
	assert.Equal(t, result.WorkLog.ID, *result.LinkedEntry.WorkLogID)

	stored := schedule.entries["e1"]
	require.NotNil(t, stored.WorkLogID)
	assert.Equal(t, result.WorkLog.ID, *stored.WorkLogID)
	assert.Len(t, schedule.entries, 1)

	found, err := schedule.FindByWorkLog(context.Background(), result.WorkLog.ID)
	require.NoError(t, err)
	assert.Equal(t, "e1", found.ID)
}

func TestSecondCheckInRejected(t *testing.T) {
	_, _, svc := newTimeclockFixture()
	svc.now = func() time.Time { return time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC) }

	_, err := svc.CheckIn(context.Background(), "t1")
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), "t1")
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestCheckOutCorrectsUnplannedEntry(t *testing.T) {
	_, schedule, svc := newTimeclockFixture()
	checkIn := time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return checkIn }

	result, err := svc.CheckIn(context.Background(), "t1")
	require.NoError(t, err)

	checkOut := checkIn.Add(3 * time.Hour)
	svc.now = func() time.Time { return checkOut }

	closed, err := svc.CheckOut(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOut)
	assert.Equal(t, checkOut, *closed.CheckOut)

	entry := schedule.entries[result.UnplannedEntry.ID]
	assert.Equal(t, checkOut, entry.EndTime)
}

func TestCheckOutWithoutOpenLog(t *testing.T) {
	_, _, svc := newTimeclockFixture()
	_, err := svc.CheckOut(context.Background(), "t1")
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestRecordManualCreatesClosedLogAndEntry(t *testing.T) {
	logs, schedule, svc := newTimeclockFixture()
	checkIn := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	checkOut := checkIn.Add(4 * time.Hour)

	result, err := svc.RecordManual(context.Background(), "t1", ManualLogRequest{CheckIn: checkIn, CheckOut: checkOut})
	require.NoError(t, err)
	require.NotNil(t, result.WorkLog.CheckOut)
	assert.Equal(t, checkOut, *result.WorkLog.CheckOut)
	require.NotNil(t, result.UnplannedEntry)
	assert.Equal(t, checkOut, result.UnplannedEntry.EndTime)
	assert.True(t, result.UnplannedEntry.IsUnplanned)
	assert.Len(t, logs.logs, 1)
	assert.Len(t, schedule.entries, 1)
}

func TestRecordManualRejectsInvertedShift(t *testing.T) {
	_, _, svc := newTimeclockFixture()
	checkIn := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	_, err := svc.RecordManual(context.Background(), "t1", ManualLogRequest{CheckIn: checkIn, CheckOut: checkIn})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCheckInUnknownTeacher(t *testing.T) {
	_, _, svc := newTimeclockFixture()
	_, err := svc.CheckIn(context.Background(), "ghost")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
