package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

// balanceTolerance is the band, in hours, around contracted hours within
// which a teacher counts as balanced.
const balanceTolerance = 2.0

type planningScheduleSource interface {
	ListLive(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
}

type planningCapacitySource interface {
	ListCurrent(ctx context.Context) ([]models.CapacityProfile, error)
}

type planningTeacherSource interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type workloadComputer interface {
	ComputeAll(ctx context.Context, asOf *time.Time) ([]models.Workload, error)
}

// ResourceConflictChecker detects double-booked shared resources. The
// default deployment registers none; gyms with bookable rooms plug one in.
type ResourceConflictChecker interface {
	Check(ctx context.Context, entries []models.ScheduleEntry) ([]dto.ResourceConflictItem, error)
}

// PlanningService analyzes an entry set against capacity profiles and
// contracted hours.
type PlanningService struct {
	schedule  planningScheduleSource
	capacity  planningCapacitySource
	teachers  planningTeacherSource
	resources []ResourceConflictChecker
	logger    *zap.Logger
}

// NewPlanningService constructs a PlanningService.
func NewPlanningService(schedule planningScheduleSource, capacity planningCapacitySource, teachers planningTeacherSource, logger *zap.Logger) *PlanningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningService{schedule: schedule, capacity: capacity, teachers: teachers, logger: logger}
}

// RegisterResourceChecker adds a conflict checker consulted on analysis.
func (s *PlanningService) RegisterResourceChecker(checker ResourceConflictChecker) {
	if checker != nil {
		s.resources = append(s.resources, checker)
	}
}

// Analyze produces the capacity and balance report for the live schedule.
func (s *PlanningService) Analyze(ctx context.Context) (*dto.PlanningAnalysis, error) {
	entries, err := s.schedule.ListLive(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	return s.analyzeEntries(ctx, entries)
}

// AnalyzeEntries produces the report for an arbitrary entry set, such as a
// proposal's proposed entries.
func (s *PlanningService) AnalyzeEntries(ctx context.Context, entries []models.ScheduleEntry) (*dto.PlanningAnalysis, error) {
	return s.analyzeEntries(ctx, entries)
}

func (s *PlanningService) analyzeEntries(ctx context.Context, entries []models.ScheduleEntry) (*dto.PlanningAnalysis, error) {
	profiles, err := s.capacity.ListCurrent(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list capacity profiles")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	workloads := scheduledWorkloads(entries, teachers)
	analysis := &dto.PlanningAnalysis{
		CapacityIssues:    capacityIssues(entries, profiles),
		ResourceConflicts: []dto.ResourceConflictItem{},
		WorkloadBalance:   balanceBuckets(workloads),
		Workloads:         workloads,
	}

	for _, checker := range s.resources {
		conflicts, err := checker.Check(ctx, entries)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resource conflict check failed")
		}
		analysis.ResourceConflicts = append(analysis.ResourceConflicts, conflicts...)
	}
	return analysis, nil
}

// Snapshot converts an analysis into the persisted proposal form.
func Snapshot(analysis *dto.PlanningAnalysis) models.ConflictAnalysis {
	snapshot := models.ConflictAnalysis{
		TeacherConflicts:  []models.TeacherConflict{},
		ResourceConflicts: []models.ResourceConflict{},
		WorkloadIssues:    []models.WorkloadIssue{},
	}

	byTeacher := map[string][]string{}
	for _, issue := range analysis.CapacityIssues {
		byTeacher[issue.TeacherID] = append(byTeacher[issue.TeacherID], issue.Issue)
	}
	teacherIDs := make([]string, 0, len(byTeacher))
	for id := range byTeacher {
		teacherIDs = append(teacherIDs, id)
	}
	sort.Strings(teacherIDs)
	for _, id := range teacherIDs {
		snapshot.TeacherConflicts = append(snapshot.TeacherConflicts, models.TeacherConflict{TeacherID: id, Conflicts: byTeacher[id]})
	}

	byResource := map[string][]string{}
	for _, conflict := range analysis.ResourceConflicts {
		byResource[conflict.ResourceID] = append(byResource[conflict.ResourceID], conflict.Issue)
	}
	resourceIDs := make([]string, 0, len(byResource))
	for id := range byResource {
		resourceIDs = append(resourceIDs, id)
	}
	sort.Strings(resourceIDs)
	for _, id := range resourceIDs {
		snapshot.ResourceConflicts = append(snapshot.ResourceConflicts, models.ResourceConflict{ResourceID: id, Conflicts: byResource[id]})
	}

	for _, w := range analysis.Workloads {
		if w.Variance > balanceTolerance || w.Variance < -balanceTolerance {
			snapshot.WorkloadIssues = append(snapshot.WorkloadIssues, models.WorkloadIssue{
				TeacherID:  w.TeacherID,
				Hours:      w.ScheduledHours,
				Contracted: w.ContractedHours,
			})
		}
	}
	return snapshot
}

// capacityIssues flags entries assigning a teacher on a weekday their
// current profile explicitly declares unavailable. Teachers without a
// profile, and weekdays without a window, raise nothing.
func capacityIssues(entries []models.ScheduleEntry, profiles []models.CapacityProfile) []dto.CapacityIssue {
	byTeacher := make(map[string]models.CapacityProfile, len(profiles))
	for _, profile := range profiles {
		byTeacher[profile.TeacherID] = profile
	}

	issues := []dto.CapacityIssue{}
	seen := map[string]struct{}{}
	for _, entry := range entries {
		for _, teacherID := range entry.TeacherIDs {
			profile, ok := byTeacher[teacherID]
			if !ok || !profile.ExplicitlyUnavailable(entry.Day) {
				continue
			}
			key := fmt.Sprintf("%s|%d|%s", teacherID, entry.Day, entry.ID)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			issues = append(issues, dto.CapacityIssue{
				TeacherID: teacherID,
				Day:       entry.Day,
				Issue:     fmt.Sprintf("%s scheduled on an unavailable day", entry.ClassType),
			})
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].TeacherID != issues[j].TeacherID {
			return issues[i].TeacherID < issues[j].TeacherID
		}
		return issues[i].Day < issues[j].Day
	})
	return issues
}

// scheduledWorkloads sums entry durations per teacher over the analyzed
// set and compares them against contracted hours. Co-taught entries count
// fully for every assigned teacher; every active teacher gets an item, at
// zero scheduled hours when the set never names them.
func scheduledWorkloads(entries []models.ScheduleEntry, teachers []models.Teacher) []dto.TeacherWorkloadItem {
	hours := map[string]float64{}
	for _, entry := range entries {
		length := entry.EndTime.Sub(entry.StartTime).Hours()
		if length <= 0 {
			continue
		}
		for _, teacherID := range entry.TeacherIDs {
			hours[teacherID] += length
		}
	}

	items := make([]dto.TeacherWorkloadItem, 0, len(teachers))
	for _, teacher := range teachers {
		scheduled := hours[teacher.ID]
		items = append(items, dto.TeacherWorkloadItem{
			TeacherID:       teacher.ID,
			ScheduledHours:  scheduled,
			ContractedHours: teacher.ContractedHours,
			Variance:        scheduled - teacher.ContractedHours,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].TeacherID < items[j].TeacherID })
	return items
}

// balanceBuckets splits teachers into over, under, and balanced relative
// to the tolerance band. Each bucket is sorted for stable output.
func balanceBuckets(workloads []dto.TeacherWorkloadItem) dto.WorkloadBalance {
	balance := dto.WorkloadBalance{
		OverCapacity:  []string{},
		UnderCapacity: []string{},
		Balanced:      []string{},
	}
	for _, w := range workloads {
		switch {
		case w.Variance > balanceTolerance:
			balance.OverCapacity = append(balance.OverCapacity, w.TeacherID)
		case w.Variance < -balanceTolerance:
			balance.UnderCapacity = append(balance.UnderCapacity, w.TeacherID)
		default:
			balance.Balanced = append(balance.Balanced, w.TeacherID)
		}
	}
	sort.Strings(balance.OverCapacity)
	sort.Strings(balance.UnderCapacity)
	sort.Strings(balance.Balanced)
	return balance
}
