package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BroadcastRepository interface {
	// IsActive is re-evaluated at send time; activation can flip between
	// enqueue and delivery. A missing broadcast counts as inactive.
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)
}

type broadcastRepository struct {
	db *sqlx.DB
}

func NewBroadcastRepository(db *sqlx.DB) BroadcastRepository {
	return &broadcastRepository{db: db}
}

func (r *broadcastRepository) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	query := `SELECT active FROM broadcasts WHERE id = $1`
	if err := r.db.GetContext(ctx, &active, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return active, nil
}
