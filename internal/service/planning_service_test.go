package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/models"
)

type stubSchedule struct {
	entries []models.ScheduleEntry
}

func (s *stubSchedule) ListLive(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}

type stubCapacity struct {
	profiles []models.CapacityProfile
}

func (s *stubCapacity) ListCurrent(ctx context.Context) ([]models.CapacityProfile, error) {
	return s.profiles, nil
}

func planningTeachers(contracted map[string]float64) *stubTeachers {
	teachers := map[string]models.Teacher{}
	for id, hours := range contracted {
		teachers[id] = models.Teacher{ID: id, Name: id, ContractedHours: hours, Active: true}
	}
	return &stubTeachers{teachers: teachers}
}

// Balance is classified from the hours scheduled in the analyzed entry set,
// not from clock-in history: a teacher with exactly their contracted hours
// on the grid is balanced even with zero worked hours.
func TestAnalyzeEntriesClassifiesFromCandidateSet(t *testing.T) {
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	var entries []models.ScheduleEntry
	for day := 0; day < 5; day++ {
		start := monday.AddDate(0, 0, day)
		entries = append(entries, models.ScheduleEntry{
			ID: "e" + string(rune('1'+day)), TeacherIDs: pq.StringArray{"tA"},
			StartTime: start, EndTime: start.Add(4 * time.Hour),
			Day: day + 1, ClassType: models.ClassTypeCalistenia,
		})
	}
	svc := NewPlanningService(&stubSchedule{}, &stubCapacity{}, planningTeachers(map[string]float64{"tA": 20}), nil)

	analysis, err := svc.AnalyzeEntries(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, []string{"tA"}, analysis.WorkloadBalance.Balanced)
	assert.Empty(t, analysis.WorkloadBalance.OverCapacity)
	assert.Empty(t, analysis.WorkloadBalance.UnderCapacity)

	require.Len(t, analysis.Workloads, 1)
	assert.InDelta(t, 20.0, analysis.Workloads[0].ScheduledHours, 1e-9)
	assert.InDelta(t, 0.0, analysis.Workloads[0].Variance, 1e-9)
}

// A 20h-contracted teacher scheduled for 2h on their unavailable Wednesday
// plus 18h elsewhere gets exactly one capacity issue and stays balanced.
func TestAnalyzeEntriesUnavailableDayStillBalanced(t *testing.T) {
	wednesday := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	entries := []models.ScheduleEntry{
		{ID: "e1", TeacherIDs: pq.StringArray{"t1"}, StartTime: wednesday, EndTime: wednesday.Add(2 * time.Hour), Day: 3, ClassType: models.ClassTypeCalistenia},
		{ID: "e2", TeacherIDs: pq.StringArray{"t1"}, StartTime: monday, EndTime: monday.Add(9 * time.Hour), Day: 1, ClassType: models.ClassTypeEscalada},
		{ID: "e3", TeacherIDs: pq.StringArray{"t1"}, StartTime: tuesday, EndTime: tuesday.Add(9 * time.Hour), Day: 2, ClassType: models.ClassTypeEscalada},
	}
	capacity := &stubCapacity{profiles: []models.CapacityProfile{
		{
			ID:        "p1",
			TeacherID: "t1",
			IsCurrent: true,
			Availability: models.AvailabilityWindows{
				{Day: 3, StartTime: "08:00", EndTime: "18:00", IsAvailable: false},
			},
		},
	}}
	svc := NewPlanningService(&stubSchedule{}, capacity, planningTeachers(map[string]float64{"t1": 20}), nil)

	analysis, err := svc.AnalyzeEntries(context.Background(), entries)
	require.NoError(t, err)

	require.Len(t, analysis.CapacityIssues, 1)
	assert.Equal(t, "t1", analysis.CapacityIssues[0].TeacherID)
	assert.Equal(t, 3, analysis.CapacityIssues[0].Day)

	assert.Equal(t, []string{"t1"}, analysis.WorkloadBalance.Balanced)
	assert.Empty(t, analysis.WorkloadBalance.OverCapacity)
	assert.Empty(t, analysis.WorkloadBalance.UnderCapacity)
}

// A weekday with no declared window raises nothing, and teachers without
// any profile are never flagged.
func TestPlanningAnalyzeAbsentWindowIsNotAViolation(t *testing.T) {
	monday := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	schedule := &stubSchedule{entries: []models.ScheduleEntry{
		{ID: "e1", TeacherIDs: pq.StringArray{"t1"}, StartTime: monday, EndTime: monday.Add(time.Hour), Day: 1, ClassType: models.ClassTypeEscalada},
		{ID: "e2", TeacherIDs: pq.StringArray{"t2"}, StartTime: monday, EndTime: monday.Add(time.Hour), Day: 1, ClassType: models.ClassTypeEscalada},
	}}
	capacity := &stubCapacity{profiles: []models.CapacityProfile{
		{ID: "p1", TeacherID: "t1", IsCurrent: true, Availability: models.AvailabilityWindows{
			{Day: 3, StartTime: "08:00", EndTime: "18:00", IsAvailable: false},
		}},
	}}
	svc := NewPlanningService(schedule, capacity, planningTeachers(map[string]float64{"t1": 10, "t2": 10}), nil)

	analysis, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.Empty(t, analysis.CapacityIssues)
}

func TestPlanningBalanceBuckets(t *testing.T) {
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	entries := []models.ScheduleEntry{
		// t1 and t2 co-teach 8h; the entry counts fully for both
		{ID: "e1", TeacherIDs: pq.StringArray{"t1", "t2"}, StartTime: monday, EndTime: monday.Add(8 * time.Hour), Day: 1, ClassType: models.ClassTypeCalistenia},
		{ID: "e2", TeacherIDs: pq.StringArray{"t3"}, StartTime: monday, EndTime: monday.Add(8 * time.Hour), Day: 1, ClassType: models.ClassTypeEscalada},
	}
	teachers := planningTeachers(map[string]float64{
		"t1": 4,  // 8h scheduled, +4 over
		"t2": 12, // 8h scheduled, -4 under
		"t3": 6,  // 8h scheduled, +2 sits on the band edge
		"t4": 1,  // nothing scheduled, -1 balanced
	})
	svc := NewPlanningService(&stubSchedule{}, &stubCapacity{}, teachers, nil)

	analysis, err := svc.AnalyzeEntries(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, analysis.WorkloadBalance.OverCapacity)
	assert.Equal(t, []string{"t2"}, analysis.WorkloadBalance.UnderCapacity)
	// exactly +2h is still balanced
	assert.Equal(t, []string{"t3", "t4"}, analysis.WorkloadBalance.Balanced)
}

type stubResourceChecker struct {
	conflicts []dto.ResourceConflictItem
}

func (s *stubResourceChecker) Check(ctx context.Context, entries []models.ScheduleEntry) ([]dto.ResourceConflictItem, error) {
	return s.conflicts, nil
}

func TestPlanningResourceCheckerPlugsIn(t *testing.T) {
	svc := NewPlanningService(&stubSchedule{}, &stubCapacity{}, planningTeachers(nil), nil)
	svc.RegisterResourceChecker(&stubResourceChecker{conflicts: []dto.ResourceConflictItem{
		{ResourceID: "room-a", Day: 2, Issue: "double booked"},
	}})

	analysis, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, analysis.ResourceConflicts, 1)
	assert.Equal(t, "room-a", analysis.ResourceConflicts[0].ResourceID)
}

func TestSnapshotCollectsWorkloadIssues(t *testing.T) {
	analysis := &dto.PlanningAnalysis{
		CapacityIssues: []dto.CapacityIssue{
			{TeacherID: "t1", Day: 3, Issue: "Calistenia scheduled on an unavailable day"},
		},
		ResourceConflicts: []dto.ResourceConflictItem{},
		Workloads: []dto.TeacherWorkloadItem{
			{TeacherID: "t1", ScheduledHours: 30, ContractedHours: 20, Variance: 10},
			{TeacherID: "t2", ScheduledHours: 20, ContractedHours: 20, Variance: 0},
		},
	}

	snapshot := Snapshot(analysis)
	require.Len(t, snapshot.TeacherConflicts, 1)
	assert.Equal(t, "t1", snapshot.TeacherConflicts[0].TeacherID)
	require.Len(t, snapshot.WorkloadIssues, 1)
	assert.Equal(t, "t1", snapshot.WorkloadIssues[0].TeacherID)
	assert.InDelta(t, 30.0, snapshot.WorkloadIssues[0].Hours, 1e-9)
}
