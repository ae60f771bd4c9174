package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"feedpulse/internal/domain"
)

// FollowRepository serves the resolver's audience lookups. Suspended accounts
// are filtered at the query so fan-out never sees unreachable recipients.
type FollowRepository interface {
	ListFollowerIDs(ctx context.Context, followable domain.SubjectRef) ([]uuid.UUID, error)
	ListSubscriberIDs(ctx context.Context, subject domain.SubjectRef) ([]uuid.UUID, error)
}

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) ListFollowerIDs(ctx context.Context, followable domain.SubjectRef) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	query := `
		SELECT f.follower_id FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followable_type = $1 AND f.followable_id = $2 AND u.suspended = false`
	err := r.db.SelectContext(ctx, &ids, query, followable.Type, followable.ID)
	return ids, err
}

func (r *followRepository) ListSubscriberIDs(ctx context.Context, subject domain.SubjectRef) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	query := `
		SELECT s.user_id FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE s.subject_type = $1 AND s.subject_id = $2 AND u.suspended = false`
	err := r.db.SelectContext(ctx, &ids, query, subject.Type, subject.ID)
	return ids, err
}
