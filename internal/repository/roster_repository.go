package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arenafit/schedule-api/internal/models"
)

// RosterRepository manages the priority list and shift roster singletons.
// Each lives in a single-row table keyed by a fixed id.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

const singletonID = "default"

// GetPriorityList fetches the priority list, returning an empty document
// when none has been saved yet.
func (r *RosterRepository) GetPriorityList(ctx context.Context) (*models.PriorityList, error) {
	const query = `SELECT titulares, auxiliares FROM priority_lists WHERE id = $1`
	var list models.PriorityList
	if err := r.db.GetContext(ctx, &list, query, singletonID); err != nil {
		if err == sql.ErrNoRows {
			return &models.PriorityList{Titulares: models.StringList{}, Auxiliares: models.StringList{}}, nil
		}
		return nil, fmt.Errorf("get priority list: %w", err)
	}
	return &list, nil
}

// SavePriorityList upserts the priority list singleton.
func (r *RosterRepository) SavePriorityList(ctx context.Context, list *models.PriorityList) error {
	const query = `INSERT INTO priority_lists (id, titulares, auxiliares, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET titulares = EXCLUDED.titulares, auxiliares = EXCLUDED.auxiliares, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, singletonID, list.Titulares, list.Auxiliares, time.Now().UTC()); err != nil {
		return fmt.Errorf("save priority list: %w", err)
	}
	return nil
}

// GetShiftRoster fetches the shift roster, returning an empty document
// when none has been saved yet.
func (r *RosterRepository) GetShiftRoster(ctx context.Context) (*models.ShiftRoster, error) {
	const query = `SELECT morning, afternoon FROM shift_rosters WHERE id = $1`
	var roster models.ShiftRoster
	if err := r.db.GetContext(ctx, &roster, query, singletonID); err != nil {
		if err == sql.ErrNoRows {
			return &models.ShiftRoster{Morning: models.StringList{}, Afternoon: models.StringList{}}, nil
		}
		return nil, fmt.Errorf("get shift roster: %w", err)
	}
	return &roster, nil
}

// SaveShiftRoster upserts the shift roster singleton.
func (r *RosterRepository) SaveShiftRoster(ctx context.Context, roster *models.ShiftRoster) error {
	const query = `INSERT INTO shift_rosters (id, morning, afternoon, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET morning = EXCLUDED.morning, afternoon = EXCLUDED.afternoon, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, singletonID, roster.Morning, roster.Afternoon, time.Now().UTC()); err != nil {
		return fmt.Errorf("save shift roster: %w", err)
	}
	return nil
}
