package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arenafit/schedule-api/internal/models"
)

// WorkLogRepository manages persistence for clock-in/clock-out records.
type WorkLogRepository struct {
	db *sqlx.DB
}

// NewWorkLogRepository constructs a WorkLogRepository.
func NewWorkLogRepository(db *sqlx.DB) *WorkLogRepository {
	return &WorkLogRepository{db: db}
}

const workLogColumns = "id, teacher_id, check_in, check_out, created_at, updated_at"

// ListAll fetches every work log ordered by check-in time.
func (r *WorkLogRepository) ListAll(ctx context.Context) ([]models.WorkLog, error) {
	query := fmt.Sprintf("SELECT %s FROM work_logs ORDER BY check_in ASC", workLogColumns)
	var logs []models.WorkLog
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, fmt.Errorf("list work logs: %w", err)
	}
	return logs, nil
}

// ListByTeacher fetches a teacher's work logs ordered by check-in time.
func (r *WorkLogRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.WorkLog, error) {
	query := fmt.Sprintf("SELECT %s FROM work_logs WHERE teacher_id = $1 ORDER BY check_in ASC", workLogColumns)
	var logs []models.WorkLog
	if err := r.db.SelectContext(ctx, &logs, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher work logs: %w", err)
	}
	return logs, nil
}

// FindByID fetches a work log by ID.
func (r *WorkLogRepository) FindByID(ctx context.Context, id string) (*models.WorkLog, error) {
	query := fmt.Sprintf("SELECT %s FROM work_logs WHERE id = $1", workLogColumns)
	var log models.WorkLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		return nil, err
	}
	return &log, nil
}

// FindOpenByTeacher fetches the teacher's open log, or nil when none exists.
func (r *WorkLogRepository) FindOpenByTeacher(ctx context.Context, teacherID string) (*models.WorkLog, error) {
	query := fmt.Sprintf("SELECT %s FROM work_logs WHERE teacher_id = $1 AND check_out IS NULL LIMIT 1", workLogColumns)
	var log models.WorkLog
	if err := r.db.GetContext(ctx, &log, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find open work log: %w", err)
	}
	return &log, nil
}

// Create inserts a new work log record.
func (r *WorkLogRepository) Create(ctx context.Context, log *models.WorkLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	const query = `INSERT INTO work_logs (id, teacher_id, check_in, check_out, created_at, updated_at)
		VALUES (:id, :teacher_id, :check_in, :check_out, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create work log: %w", err)
	}
	return nil
}

// Close stamps the check-out time on an open log.
func (r *WorkLogRepository) Close(ctx context.Context, id string, checkOut time.Time) error {
	const query = `UPDATE work_logs SET check_out = $2, updated_at = $3 WHERE id = $1 AND check_out IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, checkOut, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("close work log: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close work log rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
