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

// CapacityRepository manages persistence for capacity profiles.
type CapacityRepository struct {
	db *sqlx.DB
}

// NewCapacityRepository constructs a CapacityRepository.
func NewCapacityRepository(db *sqlx.DB) *CapacityRepository {
	return &CapacityRepository{db: db}
}

const capacityColumns = "id, teacher_id, name, availability, constraints, effective_date, is_current, created_at, updated_at"

// ListByTeacher fetches all profile versions for a teacher, newest first.
func (r *CapacityRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.CapacityProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM capacity_profiles WHERE teacher_id = $1 ORDER BY effective_date DESC, created_at DESC", capacityColumns)
	var profiles []models.CapacityProfile
	if err := r.db.SelectContext(ctx, &profiles, query, teacherID); err != nil {
		return nil, fmt.Errorf("list capacity profiles: %w", err)
	}
	return profiles, nil
}

// ListCurrent fetches the current profile of every teacher that has one.
func (r *CapacityRepository) ListCurrent(ctx context.Context) ([]models.CapacityProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM capacity_profiles WHERE is_current = TRUE", capacityColumns)
	var profiles []models.CapacityProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list current capacity profiles: %w", err)
	}
	return profiles, nil
}

// CurrentByTeacher fetches the teacher's current profile, or nil when the
// teacher has none.
func (r *CapacityRepository) CurrentByTeacher(ctx context.Context, teacherID string) (*models.CapacityProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM capacity_profiles WHERE teacher_id = $1 AND is_current = TRUE LIMIT 1", capacityColumns)
	var profile models.CapacityProfile
	if err := r.db.GetContext(ctx, &profile, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find current capacity profile: %w", err)
	}
	return &profile, nil
}

// FindByID fetches a profile by ID.
func (r *CapacityRepository) FindByID(ctx context.Context, id string) (*models.CapacityProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM capacity_profiles WHERE id = $1", capacityColumns)
	var profile models.CapacityProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a new profile version.
func (r *CapacityRepository) Create(ctx context.Context, profile *models.CapacityProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO capacity_profiles (id, teacher_id, name, availability, constraints, effective_date, is_current, created_at, updated_at)
		VALUES (:id, :teacher_id, :name, :availability, :constraints, :effective_date, :is_current, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create capacity profile: %w", err)
	}
	return nil
}

// SetCurrent promotes one profile to current for its teacher, demoting any
// previous current profile in the same transaction.
func (r *CapacityRepository) SetCurrent(ctx context.Context, teacherID, profileID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set current profile: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE capacity_profiles SET is_current = FALSE, updated_at = $2 WHERE teacher_id = $1 AND is_current = TRUE`, teacherID, now); err != nil {
		return fmt.Errorf("demote current profile: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE capacity_profiles SET is_current = TRUE, updated_at = $3 WHERE id = $1 AND teacher_id = $2`, profileID, teacherID, now)
	if err != nil {
		return fmt.Errorf("promote capacity profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("promote capacity profile rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set current profile: %w", err)
	}
	return nil
}
