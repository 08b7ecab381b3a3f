package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arenafit/schedule-api/internal/models"
)

// ProposalRepository manages persistence for schedule proposals and their
// proposed entries. Proposed entries live in proposal_entries, keyed by
// (proposal_id, id), so a seeded copy of a live entry keeps the live id.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs a ProposalRepository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

const proposalColumns = "id, name, created_by, status, base_schedule_id, conflict_report, notes, created_at, updated_at"

const proposalEntryColumns = "id, teacher_ids, student_ids, start_time, end_time, day, class_type, work_log_id, is_unplanned, is_recurring, capacity, notes, proposal_id, created_at, updated_at"

// List fetches proposals without their entries, newest first.
func (r *ProposalRepository) List(ctx context.Context, status *models.ProposalStatus) ([]models.ScheduleProposal, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_proposals", proposalColumns)
	var args []interface{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	var proposals []models.ScheduleProposal
	if err := r.db.SelectContext(ctx, &proposals, query, args...); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

// FindByID fetches a proposal with its entries loaded.
func (r *ProposalRepository) FindByID(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_proposals WHERE id = $1", proposalColumns)
	var proposal models.ScheduleProposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}

	entriesQuery := fmt.Sprintf("SELECT %s FROM proposal_entries WHERE proposal_id = $1 ORDER BY start_time ASC, id ASC", proposalEntryColumns)
	if err := r.db.SelectContext(ctx, &proposal.ProposedEntries, entriesQuery, id); err != nil {
		return nil, fmt.Errorf("load proposal entries: %w", err)
	}
	return &proposal, nil
}

// Create inserts a proposal and its seeded entries in one transaction.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.ScheduleProposal) error {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = now
	}
	proposal.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create proposal: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO schedule_proposals (id, name, created_by, status, base_schedule_id, conflict_report, notes, created_at, updated_at)
		VALUES (:id, :name, :created_by, :status, :base_schedule_id, :conflict_report, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, proposal); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}

	for i := range proposal.ProposedEntries {
		if err := insertProposalEntry(ctx, tx, proposal.ID, &proposal.ProposedEntries[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create proposal: %w", err)
	}
	return nil
}

// UpdateStatus moves a proposal into the target status. The guard keeps
// terminal proposals frozen; zero affected rows means the transition lost.
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) (bool, error) {
	const query = `UPDATE schedule_proposals SET status = $2, updated_at = $3 WHERE id = $1 AND status IN ('draft', 'review')`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update proposal status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update proposal status rows: %w", err)
	}
	return affected > 0, nil
}

// UpdateAnalysis stores a refreshed conflict snapshot on the proposal.
func (r *ProposalRepository) UpdateAnalysis(ctx context.Context, id string, analysis models.ConflictAnalysis) error {
	const query = `UPDATE schedule_proposals SET conflict_report = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, analysis, time.Now().UTC()); err != nil {
		return fmt.Errorf("update proposal analysis: %w", err)
	}
	return nil
}

// FindEntry fetches one proposed entry.
func (r *ProposalRepository) FindEntry(ctx context.Context, proposalID, entryID string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM proposal_entries WHERE proposal_id = $1 AND id = $2", proposalEntryColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, proposalID, entryID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// AddEntry inserts one proposed entry.
func (r *ProposalRepository) AddEntry(ctx context.Context, proposalID string, entry *models.ScheduleEntry) error {
	if err := insertProposalEntry(ctx, r.db, proposalID, entry); err != nil {
		return err
	}
	return r.touch(ctx, proposalID)
}

// RemoveEntry deletes one proposed entry.
func (r *ProposalRepository) RemoveEntry(ctx context.Context, proposalID, entryID string) error {
	const query = `DELETE FROM proposal_entries WHERE proposal_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, proposalID, entryID)
	if err != nil {
		return fmt.Errorf("remove proposal entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove proposal entry rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return r.touch(ctx, proposalID)
}

// UpdateEntryTeachers replaces the teacher assignment on a proposed entry.
func (r *ProposalRepository) UpdateEntryTeachers(ctx context.Context, proposalID, entryID string, teacherIDs []string) error {
	const query = `UPDATE proposal_entries SET teacher_ids = $3, updated_at = $4 WHERE proposal_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, proposalID, entryID, pq.StringArray(teacherIDs), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update proposal entry teachers: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update proposal entry teachers rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return r.touch(ctx, proposalID)
}

// Approve merges a proposal into the live grid and marks it approved, all
// in one transaction. Entries sharing an id with a live row replace that
// row; the rest are inserted. Returns false when the status guard lost,
// leaving the live grid untouched.
func (r *ProposalRepository) Approve(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin approve proposal: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `UPDATE schedule_proposals SET status = $2, updated_at = $3 WHERE id = $1 AND status IN ('draft', 'review')`, id, models.ProposalStatusApproved, now)
	if err != nil {
		return false, fmt.Errorf("approve proposal status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("approve proposal status rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	entriesQuery := fmt.Sprintf("SELECT %s FROM proposal_entries WHERE proposal_id = $1", proposalEntryColumns)
	var entries []models.ScheduleEntry
	if err := tx.SelectContext(ctx, &entries, entriesQuery, id); err != nil {
		return false, fmt.Errorf("load proposal entries: %w", err)
	}

	for i := range entries {
		entry := entries[i]
		entry.ProposalID = nil
		entry.UpdatedAt = now
		res, err := tx.ExecContext(ctx, `UPDATE schedule_entries SET teacher_ids = $2, student_ids = $3, start_time = $4, end_time = $5, day = $6, class_type = $7, is_unplanned = $8, is_recurring = $9, capacity = $10, notes = $11, updated_at = $12 WHERE id = $1`,
			entry.ID, entry.TeacherIDs, entry.StudentIDs, entry.StartTime, entry.EndTime, entry.Day, entry.ClassType, entry.IsUnplanned, entry.IsRecurring, entry.Capacity, entry.Notes, now)
		if err != nil {
			return false, fmt.Errorf("merge proposal entry: %w", err)
		}
		updated, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("merge proposal entry rows: %w", err)
		}
		if updated == 0 {
			if _, err := tx.ExecContext(ctx, `INSERT INTO schedule_entries (id, teacher_ids, student_ids, start_time, end_time, day, class_type, work_log_id, is_unplanned, is_recurring, capacity, notes, proposal_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
				entry.ID, entry.TeacherIDs, entry.StudentIDs, entry.StartTime, entry.EndTime, entry.Day, entry.ClassType, entry.WorkLogID, entry.IsUnplanned, entry.IsRecurring, entry.Capacity, entry.Notes, nil, now, now); err != nil {
				return false, fmt.Errorf("insert merged entry: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit approve proposal: %w", err)
	}
	return true, nil
}

func (r *ProposalRepository) touch(ctx context.Context, proposalID string) error {
	const query = `UPDATE schedule_proposals SET updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, proposalID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch proposal: %w", err)
	}
	return nil
}

func insertProposalEntry(ctx context.Context, execer sqlx.ExtContext, proposalID string, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	entry.ProposalID = &proposalID
	if entry.TeacherIDs == nil {
		entry.TeacherIDs = pq.StringArray{}
	}
	if entry.StudentIDs == nil {
		entry.StudentIDs = pq.StringArray{}
	}

	const query = `INSERT INTO proposal_entries (id, teacher_ids, student_ids, start_time, end_time, day, class_type, work_log_id, is_unplanned, is_recurring, capacity, notes, proposal_id, created_at, updated_at)
		VALUES (:id, :teacher_ids, :student_ids, :start_time, :end_time, :day, :class_type, :work_log_id, :is_unplanned, :is_recurring, :capacity, :notes, :proposal_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, execer, query, entry); err != nil {
		return fmt.Errorf("insert proposal entry: %w", err)
	}
	return nil
}
