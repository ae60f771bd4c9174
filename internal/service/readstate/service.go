package readstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"feedpulse/internal/domain"
)

// Service tracks per-viewer, per-scope last-read markers. Opening a feed
// advances the marker; nothing is ever deleted from notification history.
type Service interface {
	MarkRead(ctx context.Context, userID uuid.UUID, scope string) error
	// LastRead returns the zero time when the viewer has never opened the
	// scope.
	LastRead(ctx context.Context, userID uuid.UUID, scope string) (time.Time, error)
}

// Scope names the read-state bucket for a feed filter. Category filters share
// the underlying scope: reading your comments also reads them in the full
// personal feed.
func Scope(filter domain.FeedFilter) string {
	if filter.Scope == domain.ScopeOrganization && filter.OrgID != nil {
		return "org:" + filter.OrgID.String()
	}
	return "personal"
}

type service struct {
	rdb *redis.Client
}

func NewService(rdb *redis.Client) Service {
	return &service{rdb: rdb}
}

func key(userID uuid.UUID, scope string) string {
	return fmt.Sprintf("readstate:%s:%s", userID, scope)
}

func (s *service) MarkRead(ctx context.Context, userID uuid.UUID, scope string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.rdb.Set(ctx, key(userID, scope), now, 0).Err()
}

func (s *service) LastRead(ctx context.Context, userID uuid.UUID, scope string) (time.Time, error) {
	val, err := s.rdb.Get(ctx, key(userID, scope)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	marker, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt read-state marker: %w", err)
	}
	return marker, nil
}

// IsRead compares a notification's last activity against the marker.
func IsRead(marker time.Time, n *domain.Notification) bool {
	return !marker.IsZero() && !n.UpdatedAt.After(marker)
}
