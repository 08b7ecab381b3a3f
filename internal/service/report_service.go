package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/dto"
	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
	"github.com/arenafit/schedule-api/pkg/export"
	"github.com/arenafit/schedule-api/pkg/jobs"
	"github.com/arenafit/schedule-api/pkg/storage"
)

type reportRepository interface {
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	Create(ctx context.Context, job *models.ReportJob) error
	MarkProcessing(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, resultURL string) error
	MarkFailed(ctx context.Context, id, message string) error
}

// ReportServiceConfig bundles worker pool knobs.
type ReportServiceConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
}

// ReportService generates workload and schedule exports asynchronously.
// Requests are queued, rendered by a worker pool, written to local storage,
// and exposed through HMAC-signed download tokens.
type ReportService struct {
	repo      reportRepository
	workloads workloadComputer
	teachers  workloadTeacherSource
	schedule  planningScheduleSource
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	queue     *jobs.Queue
}

// NewReportService constructs a ReportService and its worker queue.
func NewReportService(repo reportRepository, workloads workloadComputer, teachers workloadTeacherSource, schedule planningScheduleSource, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ReportServiceConfig, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		repo:      repo,
		workloads: workloads,
		teachers:  teachers,
		schedule:  schedule,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		store:     store,
		signer:    signer,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the report workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Enqueue records a report job and hands it to the worker pool.
func (s *ReportService) Enqueue(ctx context.Context, userID string, req dto.ReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	job := &models.ReportJob{
		Type:      req.Type,
		Params:    models.ReportJobParams{Format: req.Format, AsOf: req.AsOf},
		Status:    models.ReportStatusQueued,
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.logger.Error("failed to enqueue report job", zap.String("job_id", job.ID), zap.Error(err))
		_ = s.repo.MarkFailed(ctx, job.ID, "queue unavailable")
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue unavailable")
	}
	return job, nil
}

// Status returns job progress for its owner.
func (s *ReportService) Status(ctx context.Context, userID, jobID string) (*dto.ReportStatusResponse, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.CreatedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another user")
	}
	return &dto.ReportStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}, nil
}

// ListForUser returns the caller's recent report jobs, newest first.
func (s *ReportService) ListForUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	jobsList, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return jobsList, nil
}

// Download resolves a signed token to the stored file.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	if _, err := s.repo.FindByID(ctx, jobID); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}
	return file, relPath, nil
}

func (s *ReportService) process(ctx context.Context, queued jobs.Job) error {
	started := time.Now()
	job, err := s.repo.FindByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load report job: %w", err)
	}
	if job.Status == models.ReportStatusFinished {
		return nil
	}
	if err := s.repo.MarkProcessing(ctx, job.ID); err != nil {
		return fmt.Errorf("mark report processing: %w", err)
	}

	table, err := s.buildTable(ctx, job)
	if err == nil {
		var rendered []byte
		switch job.Params.Format {
		case models.ReportFormatPDF:
			rendered, err = s.pdf.Render(table)
		default:
			rendered, err = s.csv.Render(table)
		}
		if err == nil {
			relPath := fmt.Sprintf("%s/%s.%s", job.CreatedBy, job.ID, job.Params.Format)
			if _, err = s.store.Save(relPath, rendered); err == nil {
				var token string
				token, _, err = s.signer.Generate(job.ID, relPath)
				if err == nil {
					url := "/reports/download/" + token
					if err = s.repo.MarkFinished(ctx, job.ID, url); err == nil {
						s.metrics.ObserveReport(string(job.Type), string(job.Params.Format), "success", time.Since(started))
						return nil
					}
				}
			}
		}
	}

	s.metrics.ObserveReport(string(job.Type), string(job.Params.Format), "failure", time.Since(started))
	s.logger.Error("report generation failed", zap.String("job_id", job.ID), zap.Error(err))
	if markErr := s.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
		s.logger.Error("failed to mark report failed", zap.String("job_id", job.ID), zap.Error(markErr))
	}
	return nil
}

func (s *ReportService) buildTable(ctx context.Context, job *models.ReportJob) (export.Table, error) {
	switch job.Type {
	case models.ReportTypeWorkload:
		return s.workloadTable(ctx, job.Params.AsOf)
	case models.ReportTypeSchedule:
		return s.scheduleTable(ctx)
	default:
		return export.Table{}, fmt.Errorf("unknown report type %q", job.Type)
	}
}

func (s *ReportService) workloadTable(ctx context.Context, asOf *time.Time) (export.Table, error) {
	workloads, err := s.workloads.ComputeAll(ctx, asOf)
	if err != nil {
		return export.Table{}, fmt.Errorf("compute workloads: %w", err)
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return export.Table{}, fmt.Errorf("list teachers: %w", err)
	}
	names := make(map[string]string, len(teachers))
	for _, teacher := range teachers {
		names[teacher.ID] = teacher.Name
	}

	table := export.Table{
		Title:   "Workload Report",
		Columns: []string{"Teacher", "Worked", "Contracted", "Overtime", "Deficit"},
	}
	for _, w := range workloads {
		view := dto.NewWorkloadView(w, names[w.TeacherID])
		table.Rows = append(table.Rows, []string{
			view.TeacherName,
			formatHours(view.WorkedHours),
			formatHours(view.ContractedHours),
			formatHours(view.Overtime),
			formatHours(view.Deficit),
		})
	}
	return table, nil
}

func (s *ReportService) scheduleTable(ctx context.Context) (export.Table, error) {
	entries, err := s.schedule.ListLive(ctx, models.ScheduleFilter{})
	if err != nil {
		return export.Table{}, fmt.Errorf("list schedule entries: %w", err)
	}
	table := export.Table{
		Title:   "Schedule Report",
		Columns: []string{"Day", "Start", "End", "Class", "Teachers"},
	}
	for _, entry := range entries {
		table.Rows = append(table.Rows, []string{
			entry.StartTime.Weekday().String(),
			entry.StartTime.Format("15:04"),
			entry.EndTime.Format("15:04"),
			string(entry.ClassType),
			strings.Join(entry.TeacherIDs, ", "),
		})
	}
	return table, nil
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
