package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

const workloadCacheKey = "workload:summary"

type workLogSource interface {
	ListAll(ctx context.Context) ([]models.WorkLog, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.WorkLog, error)
}

type workloadTeacherSource interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// WorkloadService derives worked-versus-contracted balances from work logs.
// Results are never persisted; the all-teachers summary for "now" is cached
// in Redis for a short TTL.
type WorkloadService struct {
	logs     workLogSource
	teachers workloadTeacherSource
	cache    *redis.Client
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewWorkloadService constructs a WorkloadService. The cache client and
// metrics service may be nil.
func NewWorkloadService(logs workLogSource, teachers workloadTeacherSource, cache *redis.Client, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *WorkloadService {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{
		logs:     logs,
		teachers: teachers,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ComputeAll returns the workload of every active teacher, ordered by
// teacher id. A nil asOf means "now" and makes the result cacheable; open
// work logs are closed against the effective instant.
func (s *WorkloadService) ComputeAll(ctx context.Context, asOf *time.Time) ([]models.Workload, error) {
	cacheable := asOf == nil
	if cacheable && s.cache != nil {
		start := time.Now()
		raw, err := s.cache.Get(ctx, workloadCacheKey).Bytes()
		hit := err == nil
		s.metrics.RecordCacheOperation(hit, time.Since(start))
		if hit {
			var cached []models.Workload
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			s.logger.Warn("discarding malformed workload cache entry")
		}
	}

	effective := s.now()
	if asOf != nil {
		effective = asOf.UTC()
	}

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	logs, err := s.logs.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list work logs")
	}

	byTeacher := make(map[string][]models.WorkLog, len(teachers))
	for _, log := range logs {
		byTeacher[log.TeacherID] = append(byTeacher[log.TeacherID], log)
	}

	workloads := make([]models.Workload, 0, len(teachers))
	for _, teacher := range teachers {
		workloads = append(workloads, buildWorkload(teacher, byTeacher[teacher.ID], effective))
	}
	sort.Slice(workloads, func(i, j int) bool { return workloads[i].TeacherID < workloads[j].TeacherID })

	if cacheable && s.cache != nil {
		if raw, err := json.Marshal(workloads); err == nil {
			start := time.Now()
			if err := s.cache.Set(ctx, workloadCacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache workload summary", zap.Error(err))
			}
			s.metrics.ObserveCacheWrite(time.Since(start))
		}
	}
	return workloads, nil
}

// ComputeForTeacher returns one teacher's workload.
func (s *WorkloadService) ComputeForTeacher(ctx context.Context, teacherID string, asOf *time.Time) (*models.Workload, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	logs, err := s.logs.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list work logs")
	}

	effective := s.now()
	if asOf != nil {
		effective = asOf.UTC()
	}
	workload := buildWorkload(*teacher, logs, effective)
	return &workload, nil
}

// Summary renders the all-teachers balance with display names attached.
func (s *WorkloadService) Summary(ctx context.Context, asOf *time.Time) ([]dto.WorkloadView, error) {
	workloads, err := s.ComputeAll(ctx, asOf)
	if err != nil {
		return nil, err
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	names := make(map[string]string, len(teachers))
	for _, teacher := range teachers {
		names[teacher.ID] = teacher.Name
	}
	views := make([]dto.WorkloadView, 0, len(workloads))
	for _, workload := range workloads {
		views = append(views, dto.NewWorkloadView(workload, names[workload.TeacherID]))
	}
	return views, nil
}

// SummaryForTeacher renders one teacher's balance.
func (s *WorkloadService) SummaryForTeacher(ctx context.Context, teacherID string, asOf *time.Time) (*dto.WorkloadView, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	workload, err := s.ComputeForTeacher(ctx, teacherID, asOf)
	if err != nil {
		return nil, err
	}
	view := dto.NewWorkloadView(*workload, teacher.Name)
	return &view, nil
}

// Invalidate drops the cached summary after work logs change.
func (s *WorkloadService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, workloadCacheKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate workload cache", zap.Error(err))
	}
}

// buildWorkload sums log durations at full precision. Overtime and deficit
// are floored at zero; at most one of them is positive.
func buildWorkload(teacher models.Teacher, logs []models.WorkLog, asOf time.Time) models.Workload {
	var worked float64
	for _, log := range logs {
		worked += log.HoursAsOf(asOf)
	}
	workload := models.Workload{
		TeacherID:       teacher.ID,
		WorkedHours:     worked,
		ContractedHours: teacher.ContractedHours,
	}
	if diff := worked - teacher.ContractedHours; diff > 0 {
		workload.Overtime = diff
	} else if diff < 0 {
		workload.Deficit = -diff
	}
	return workload
}
