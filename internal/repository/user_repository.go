package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feedpulse/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// ListModerators returns trusted, reachable users who have not opted out
	// of moderation notifications.
	ListModerators(ctx context.Context) ([]domain.User, error)
	IsMember(ctx context.Context, userID, orgID uuid.UUID) (bool, error)
	// FilterReachable keeps only ids belonging to non-suspended accounts.
	FilterReachable(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT * FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListModerators(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	query := `
		SELECT * FROM users
		WHERE trusted = true AND mod_notifications = true AND suspended = false`
	err := r.db.SelectContext(ctx, &users, query)
	return users, err
}

func (r *userRepository) IsMember(ctx context.Context, userID, orgID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM organization_memberships
			WHERE user_id = $1 AND organization_id = $2
		)`
	err := r.db.GetContext(ctx, &exists, query, userID, orgID)
	return exists, err
}

func (r *userRepository) FilterReachable(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	reachable := []uuid.UUID{}
	query := `SELECT id FROM users WHERE id = ANY($1) AND suspended = false`
	err := r.db.SelectContext(ctx, &reachable, query, pq.Array(ids))
	return reachable, err
}
