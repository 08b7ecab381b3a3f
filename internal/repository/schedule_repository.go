package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arenafit/schedule-api/internal/models"
)

// ScheduleRepository manages persistence for live schedule entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = "id, teacher_ids, student_ids, start_time, end_time, day, class_type, work_log_id, is_unplanned, is_recurring, capacity, notes, proposal_id, created_at, updated_at"

// ListLive returns live entries matching the filter, ordered by start time.
func (r *ScheduleRepository) ListLive(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	base := "FROM schedule_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(teacher_ids)", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Day != nil {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, *filter.Day)
	}
	if filter.ClassType != nil {
		conditions = append(conditions, fmt.Sprintf("class_type = $%d", len(args)+1))
		args = append(args, *filter.ClassType)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_time ASC, id ASC", scheduleColumns, base)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// FindByID fetches a live entry by ID.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE id = $1", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByWorkLog fetches the unplanned entry linked to a work log, if any.
func (r *ScheduleRepository) FindByWorkLog(ctx context.Context, workLogID string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE work_log_id = $1", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, workLogID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindCovering fetches the planned entry assigning the teacher whose time
// span contains the given instant, or nil when none does.
func (r *ScheduleRepository) FindCovering(ctx context.Context, teacherID string, at time.Time) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE $1 = ANY(teacher_ids) AND is_unplanned = FALSE AND start_time <= $2 AND end_time > $2 ORDER BY start_time ASC LIMIT 1", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, teacherID, at); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find covering entry: %w", err)
	}
	return &entry, nil
}

// Create inserts a new live entry.
func (r *ScheduleRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.TeacherIDs == nil {
		entry.TeacherIDs = pq.StringArray{}
	}
	if entry.StudentIDs == nil {
		entry.StudentIDs = pq.StringArray{}
	}

	const query = `INSERT INTO schedule_entries (id, teacher_ids, student_ids, start_time, end_time, day, class_type, work_log_id, is_unplanned, is_recurring, capacity, notes, proposal_id, created_at, updated_at)
		VALUES (:id, :teacher_ids, :student_ids, :start_time, :end_time, :day, :class_type, :work_log_id, :is_unplanned, :is_recurring, :capacity, :notes, :proposal_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// Update modifies an existing live entry.
func (r *ScheduleRepository) Update(ctx context.Context, entry *models.ScheduleEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_entries SET teacher_ids = :teacher_ids, student_ids = :student_ids, start_time = :start_time, end_time = :end_time, day = :day, class_type = :class_type, work_log_id = :work_log_id, is_unplanned = :is_unplanned, is_recurring = :is_recurring, capacity = :capacity, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update schedule entry: %w", err)
	}
	return nil
}

// UpdateTeachers replaces the teacher assignment on an entry.
func (r *ScheduleRepository) UpdateTeachers(ctx context.Context, id string, teacherIDs []string) error {
	const query = `UPDATE schedule_entries SET teacher_ids = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pq.StringArray(teacherIDs), time.Now().UTC()); err != nil {
		return fmt.Errorf("update schedule entry teachers: %w", err)
	}
	return nil
}

// Delete removes a live entry.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM schedule_entries WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return nil
}
