package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"feedpulse/internal/domain"
)

// MemoryNotificationRepository mirrors the Postgres upsert and retraction
// semantics in memory so merge behavior can be exercised end to end without a
// database. Safe for concurrent use.
type MemoryNotificationRepository struct {
	mu         sync.Mutex
	rows       []*domain.Notification
	failWrites error
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

// SetFailWrites makes Upsert fail with err until cleared, for retry paths.
func (r *MemoryNotificationRepository) SetFailWrites(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWrites = err
}

func (r *MemoryNotificationRepository) Upsert(ctx context.Context, n *domain.Notification, actor domain.Actor) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWrites != nil {
		return nil, r.failWrites
	}

	for _, row := range r.rows {
		if row.RecipientType == n.RecipientType && row.RecipientID == n.RecipientID &&
			row.SubjectType == n.SubjectType && row.SubjectID == n.SubjectID &&
			row.EventKind == n.EventKind && row.Day.Equal(n.Day) {
			if !row.ActorIDs.Contains(actor.ID) {
				row.ActorIDs = append(row.ActorIDs, actor.ID)
			}
			row.ActorNames[actor.ID] = actor.Name
			row.Snapshot = n.Snapshot
			if n.UpdatedAt.After(row.UpdatedAt) {
				row.UpdatedAt = n.UpdatedAt
			}
			out := *row
			return &out, nil
		}
	}

	row := *n
	row.ActorIDs = domain.UUIDList{actor.ID}
	row.ActorNames = domain.NameMap{actor.ID: actor.Name}
	r.rows = append(r.rows, &row)
	out := row
	return &out, nil
}

func (r *MemoryNotificationRepository) RemoveActor(ctx context.Context, subject domain.SubjectRef, kind domain.EventKind, actorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.SubjectType == subject.Type && row.SubjectID == subject.ID &&
			row.EventKind == kind && row.ActorIDs.Contains(actorID) {
			ids := row.ActorIDs[:0]
			for _, id := range row.ActorIDs {
				if id != actorID {
					ids = append(ids, id)
				}
			}
			row.ActorIDs = ids
			delete(row.ActorNames, actorID)
		}
		if len(row.ActorIDs) > 0 {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *MemoryNotificationRepository) DeleteBySubject(ctx context.Context, subject domain.SubjectRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.SubjectType != subject.Type || row.SubjectID != subject.ID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *MemoryNotificationRepository) ListFeed(ctx context.Context, q domain.FeedQuery) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []domain.Notification{}
	for _, row := range r.rows {
		if r.matches(row, q) {
			matched = append(matched, *row)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	if !q.Cursor.IsZero() {
		after := matched[:0]
		for _, n := range matched {
			if n.UpdatedAt.Before(q.Cursor.UpdatedAt) ||
				(n.UpdatedAt.Equal(q.Cursor.UpdatedAt) && n.ID.String() < q.Cursor.ID.String()) {
				after = append(after, n)
			}
		}
		matched = after
	}

	if q.PageSize > 0 && len(matched) > q.PageSize {
		matched = matched[:q.PageSize]
	}
	return matched, nil
}

func (r *MemoryNotificationRepository) CountSince(ctx context.Context, q domain.FeedQuery, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, row := range r.rows {
		if r.matches(row, q) && (since.IsZero() || row.UpdatedAt.After(since)) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepository) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Notification, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, *row)
	}
	return out
}

func (r *MemoryNotificationRepository) matches(n *domain.Notification, q domain.FeedQuery) bool {
	if q.Recipient == nil && q.OrgID == nil {
		return false
	}
	if q.Recipient != nil {
		if n.RecipientType != q.Recipient.Type || n.RecipientID != q.Recipient.ID || n.OrganizationID != nil {
			return false
		}
	}
	if q.OrgID != nil {
		if n.OrganizationID == nil || *n.OrganizationID != *q.OrgID {
			return false
		}
	}
	if len(q.Kinds) > 0 {
		found := false
		for _, k := range q.Kinds {
			if n.EventKind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
