package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type memCapacityRepo struct {
	profiles map[string]*models.CapacityProfile
	seq      int
}

func newMemCapacityRepo() *memCapacityRepo {
	return &memCapacityRepo{profiles: map[string]*models.CapacityProfile{}}
}

func (m *memCapacityRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.CapacityProfile, error) {
	var out []models.CapacityProfile
	for _, p := range m.profiles {
		if p.TeacherID == teacherID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memCapacityRepo) ListCurrent(ctx context.Context) ([]models.CapacityProfile, error) {
	var out []models.CapacityProfile
	for _, p := range m.profiles {
		if p.IsCurrent {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memCapacityRepo) CurrentByTeacher(ctx context.Context, teacherID string) (*models.CapacityProfile, error) {
	for _, p := range m.profiles {
		if p.TeacherID == teacherID && p.IsCurrent {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memCapacityRepo) FindByID(ctx context.Context, id string) (*models.CapacityProfile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (m *memCapacityRepo) Create(ctx context.Context, profile *models.CapacityProfile) error {
	if profile.ID == "" {
		m.seq++
		profile.ID = fmt.Sprintf("cp%d", m.seq)
	}
	clone := *profile
	m.profiles[profile.ID] = &clone
	return nil
}

func (m *memCapacityRepo) SetCurrent(ctx context.Context, teacherID, profileID string) error {
	target, ok := m.profiles[profileID]
	if !ok || target.TeacherID != teacherID {
		return sql.ErrNoRows
	}
	for _, p := range m.profiles {
		if p.TeacherID == teacherID {
			p.IsCurrent = false
		}
	}
	target.IsCurrent = true
	return nil
}

func newCapacityFixture() (*memCapacityRepo, *CapacityService) {
	repo := newMemCapacityRepo()
	teachers := &stubTeachers{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", Active: true},
		"t2": {ID: "t2", Active: true},
	}}
	return repo, NewCapacityService(repo, teachers, nil, nil)
}

func TestCapacitySetCurrentIsExclusive(t *testing.T) {
	repo, svc := newCapacityFixture()
	effective := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.Create(context.Background(), "t1", CreateCapacityProfileRequest{
		Name:          "Spring",
		EffectiveDate: effective,
		MakeCurrent:   true,
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), "t1", CreateCapacityProfileRequest{
		Name:          "Summer",
		EffectiveDate: effective.AddDate(0, 3, 0),
	})
	require.NoError(t, err)
	assert.False(t, second.IsCurrent)

	_, err = svc.SetCurrent(context.Background(), "t1", second.ID)
	require.NoError(t, err)

	current, err := repo.CurrentByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	assert.False(t, repo.profiles[first.ID].IsCurrent)
}

func TestCapacitySetCurrentWrongTeacher(t *testing.T) {
	_, svc := newCapacityFixture()
	effective := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	profile, err := svc.Create(context.Background(), "t1", CreateCapacityProfileRequest{
		Name:          "Spring",
		EffectiveDate: effective,
	})
	require.NoError(t, err)

	_, err = svc.SetCurrent(context.Background(), "t2", profile.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func fullWeekAvailability() []AvailabilityWindowRequest {
	windows := make([]AvailabilityWindowRequest, 0, 7)
	for day := 0; day < 7; day++ {
		windows = append(windows, AvailabilityWindowRequest{
			Day: day, StartTime: "08:00", EndTime: "17:00", IsAvailable: day >= 1 && day <= 5,
		})
	}
	return windows
}

func TestCapacityCreateRejectsBadClock(t *testing.T) {
	_, svc := newCapacityFixture()
	windows := fullWeekAvailability()
	windows[1].StartTime = "8am"
	_, err := svc.Create(context.Background(), "t1", CreateCapacityProfileRequest{
		Name:          "Broken",
		EffectiveDate: time.Now().UTC(),
		Availability:  windows,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCapacityCreateRejectsPartialWeek(t *testing.T) {
	_, svc := newCapacityFixture()
	_, err := svc.Create(context.Background(), "t1", CreateCapacityProfileRequest{
		Name:          "Partial",
		EffectiveDate: time.Now().UTC(),
		Availability: []AvailabilityWindowRequest{
			{Day: 1, StartTime: "08:00", EndTime: "17:00", IsAvailable: true},
		},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCapacityCreateAcceptsFullWeek(t *testing.T) {
	_, svc := newCapacityFixture()
	profile, err := svc.Create(context.Background(), "t1", CreateCapacityProfileRequest{
		Name:          "Standard week",
		EffectiveDate: time.Now().UTC(),
		Availability:  fullWeekAvailability(),
		MakeCurrent:   true,
	})
	require.NoError(t, err)
	assert.True(t, profile.IsCurrent)
	assert.Len(t, profile.Availability, 7)
}

func TestCapacityUnknownTeacher(t *testing.T) {
	_, svc := newCapacityFixture()
	_, err := svc.Current(context.Background(), "ghost")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
