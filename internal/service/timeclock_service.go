package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/arenafit/schedule-api/internal/models"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

// provisionalShiftLength is the placeholder length given to an unplanned
// entry at check-in, corrected once the teacher checks out.
const provisionalShiftLength = time.Hour

type workLogRepository interface {
	ListAll(ctx context.Context) ([]models.WorkLog, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.WorkLog, error)
	FindOpenByTeacher(ctx context.Context, teacherID string) (*models.WorkLog, error)
	Create(ctx context.Context, log *models.WorkLog) error
	Close(ctx context.Context, id string, checkOut time.Time) error
}

type timeclockScheduleSource interface {
	FindCovering(ctx context.Context, teacherID string, at time.Time) (*models.ScheduleEntry, error)
	FindByWorkLog(ctx context.Context, workLogID string) (*models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Update(ctx context.Context, entry *models.ScheduleEntry) error
}

type timeclockTeacherSource interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type workloadInvalidator interface {
	Invalidate(ctx context.Context)
}

// CheckInResult reports the created log and the grid entry it was tied to:
// either the planned entry covering the instant or a synthesized unplanned
// one.
type CheckInResult struct {
	WorkLog        *models.WorkLog       `json:"work_log"`
	LinkedEntry    *models.ScheduleEntry `json:"linked_entry,omitempty"`
	UnplannedEntry *models.ScheduleEntry `json:"unplanned_entry,omitempty"`
}

// TimeclockService handles teacher check-in and check-out.
type TimeclockService struct {
	logs      workLogRepository
	schedule  timeclockScheduleSource
	teachers  timeclockTeacherSource
	workloads workloadInvalidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewTimeclockService constructs a TimeclockService. The workload
// invalidator may be nil.
func NewTimeclockService(logs workLogRepository, schedule timeclockScheduleSource, teachers timeclockTeacherSource, workloads workloadInvalidator, logger *zap.Logger) *TimeclockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeclockService{
		logs:      logs,
		schedule:  schedule,
		teachers:  teachers,
		workloads: workloads,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn opens a work log for the teacher. A second check-in while one is
// open is rejected. A planned entry covering the instant is linked to the
// log; otherwise an unplanned entry is created and linked, with a
// provisional end time.
func (s *TimeclockService) CheckIn(ctx context.Context, teacherID string) (*CheckInResult, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	open, err := s.logs.FindOpenByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open work logs")
	}
	if open != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already checked in")
	}

	checkIn := s.now()
	log := &models.WorkLog{TeacherID: teacherID, CheckIn: checkIn}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create work log")
	}

	result := &CheckInResult{WorkLog: log}

	covering, err := s.schedule.FindCovering(ctx, teacherID, checkIn)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to match schedule entry")
	}
	if covering != nil {
		covering.WorkLogID = &log.ID
		if err := s.schedule.Update(ctx, covering); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link planned entry")
		}
		result.LinkedEntry = covering
	} else {
		entry := &models.ScheduleEntry{
			TeacherIDs:  pq.StringArray{teacherID},
			StudentIDs:  pq.StringArray{},
			StartTime:   checkIn,
			EndTime:     checkIn.Add(provisionalShiftLength),
			Day:         int(checkIn.Weekday()),
			ClassType:   models.ClassTypePonto,
			WorkLogID:   &log.ID,
			IsUnplanned: true,
		}
		if err := s.schedule.Create(ctx, entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create unplanned entry")
		}
		result.UnplannedEntry = entry
	}

	if s.workloads != nil {
		s.workloads.Invalidate(ctx)
	}
	return result, nil
}

// CheckOut closes the teacher's open work log. When the log backs an
// unplanned entry, the entry's end time is corrected to the actual
// check-out instant.
func (s *TimeclockService) CheckOut(ctx context.Context, teacherID string) (*models.WorkLog, error) {
	open, err := s.logs.FindOpenByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open work logs")
	}
	if open == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher has no open work log")
	}

	checkOut := s.now()
	if !checkOut.After(open.CheckIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "check-out must come after check-in")
	}

	if err := s.logs.Close(ctx, open.ID, checkOut); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "work log already closed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close work log")
	}
	open.CheckOut = &checkOut

	entry, err := s.schedule.FindByWorkLog(ctx, open.ID)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked entry")
		}
	} else if entry.IsUnplanned {
		entry.EndTime = checkOut
		if err := s.schedule.Update(ctx, entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to correct unplanned entry")
		}
	}

	if s.workloads != nil {
		s.workloads.Invalidate(ctx)
	}
	return open, nil
}

// ManualLogRequest records a past shift after the fact.
type ManualLogRequest struct {
	CheckIn  time.Time `json:"check_in" validate:"required"`
	CheckOut time.Time `json:"check_out" validate:"required"`
}

// RecordManual stores a closed work log for a past shift and mirrors it as
// an unplanned entry so the grid shows the worked time.
func (s *TimeclockService) RecordManual(ctx context.Context, teacherID string, req ManualLogRequest) (*CheckInResult, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !req.CheckOut.After(req.CheckIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "check-out must come after check-in")
	}

	checkIn := req.CheckIn.UTC()
	checkOut := req.CheckOut.UTC()
	log := &models.WorkLog{TeacherID: teacherID, CheckIn: checkIn, CheckOut: &checkOut}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create work log")
	}

	entry := &models.ScheduleEntry{
		TeacherIDs:  pq.StringArray{teacherID},
		StudentIDs:  pq.StringArray{},
		StartTime:   checkIn,
		EndTime:     checkOut,
		Day:         int(checkIn.Weekday()),
		ClassType:   models.ClassTypePonto,
		WorkLogID:   &log.ID,
		IsUnplanned: true,
	}
	if err := s.schedule.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create unplanned entry")
	}

	if s.workloads != nil {
		s.workloads.Invalidate(ctx)
	}
	return &CheckInResult{WorkLog: log, UnplannedEntry: entry}, nil
}

// History returns a teacher's work logs.
func (s *TimeclockService) History(ctx context.Context, teacherID string) ([]models.WorkLog, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	logs, err := s.logs.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list work logs")
	}
	return logs, nil
}
