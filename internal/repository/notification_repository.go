package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feedpulse/internal/domain"
)

type NotificationRepository interface {
	// Upsert inserts or merges a notification on the natural key
	// (recipient, subject, event kind, day) and returns the resulting row.
	Upsert(ctx context.Context, n *domain.Notification, actor domain.Actor) (*domain.Notification, error)
	// RemoveActor drops an actor from every row grouped on (subject, kind)
	// and deletes rows whose actor set empties. Missing actor is a no-op.
	RemoveActor(ctx context.Context, subject domain.SubjectRef, kind domain.EventKind, actorID uuid.UUID) error
	// DeleteBySubject cascades a subject deletion into its notifications.
	DeleteBySubject(ctx context.Context, subject domain.SubjectRef) error
	ListFeed(ctx context.Context, q domain.FeedQuery) ([]domain.Notification, error)
	CountSince(ctx context.Context, q domain.FeedQuery, since time.Time) (int64, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// The single-statement upsert is the idempotency boundary: concurrent writers
// racing on the same natural key serialize on the unique index, the losing
// insert turns into the merge branch, and a duplicate actor leaves the set
// untouched. actor_ids keeps insertion order (most recent last).
const upsertQuery = `
	INSERT INTO notifications (
		id, recipient_type, recipient_id, event_kind, subject_type, subject_id,
		organization_id, day, actor_ids, actor_names, snapshot, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8,
		jsonb_build_array($9::text),
		jsonb_build_object($9::text, $10::text),
		$11, $12, $12
	)
	ON CONFLICT (recipient_type, recipient_id, subject_type, subject_id, event_kind, day)
	DO UPDATE SET
		actor_ids = CASE
			WHEN notifications.actor_ids ? $9 THEN notifications.actor_ids
			ELSE notifications.actor_ids || to_jsonb($9::text)
		END,
		actor_names = notifications.actor_names || EXCLUDED.actor_names,
		snapshot = EXCLUDED.snapshot,
		updated_at = GREATEST(notifications.updated_at, EXCLUDED.updated_at)
	RETURNING id, recipient_type, recipient_id, event_kind, subject_type, subject_id,
		organization_id, day, actor_ids, actor_names, snapshot, created_at, updated_at`

func (r *notificationRepository) Upsert(ctx context.Context, n *domain.Notification, actor domain.Actor) (*domain.Notification, error) {
	var out domain.Notification
	err := r.db.GetContext(ctx, &out, upsertQuery,
		n.ID, n.RecipientType, n.RecipientID, n.EventKind, n.SubjectType, n.SubjectID,
		n.OrganizationID, n.Day, actor.ID.String(), actor.Name, n.Snapshot, n.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert notification: %w", err)
	}
	return &out, nil
}

func (r *notificationRepository) RemoveActor(ctx context.Context, subject domain.SubjectRef, kind domain.EventKind, actorID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// updated_at stays put: a retraction is not new activity and must not
	// resurface the row or reset its read state.
	prune := `
		UPDATE notifications
		SET actor_ids = actor_ids - $4,
		    actor_names = actor_names - $4
		WHERE subject_type = $1 AND subject_id = $2 AND event_kind = $3
		  AND actor_ids ? $4`
	if _, err := tx.ExecContext(ctx, prune, subject.Type, subject.ID, kind, actorID.String()); err != nil {
		return fmt.Errorf("failed to remove actor: %w", err)
	}

	sweep := `
		DELETE FROM notifications
		WHERE subject_type = $1 AND subject_id = $2 AND event_kind = $3
		  AND jsonb_array_length(actor_ids) = 0`
	if _, err := tx.ExecContext(ctx, sweep, subject.Type, subject.ID, kind); err != nil {
		return fmt.Errorf("failed to sweep emptied notifications: %w", err)
	}

	return tx.Commit()
}

func (r *notificationRepository) DeleteBySubject(ctx context.Context, subject domain.SubjectRef) error {
	query := `DELETE FROM notifications WHERE subject_type = $1 AND subject_id = $2`
	_, err := r.db.ExecContext(ctx, query, subject.Type, subject.ID)
	return err
}

func (r *notificationRepository) ListFeed(ctx context.Context, q domain.FeedQuery) ([]domain.Notification, error) {
	where, args := feedConditions(q)

	if !q.Cursor.IsZero() {
		args = append(args, q.Cursor.UpdatedAt, q.Cursor.ID)
		where = append(where, fmt.Sprintf("(updated_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	args = append(args, q.PageSize)
	query := fmt.Sprintf(`
		SELECT id, recipient_type, recipient_id, event_kind, subject_type, subject_id,
			organization_id, day, actor_ids, actor_names, snapshot, created_at, updated_at
		FROM notifications
		WHERE %s
		ORDER BY updated_at DESC, id DESC
		LIMIT $%d`, strings.Join(where, " AND "), len(args))

	notifications := []domain.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountSince(ctx context.Context, q domain.FeedQuery, since time.Time) (int64, error) {
	where, args := feedConditions(q)

	if !since.IsZero() {
		args = append(args, since)
		where = append(where, fmt.Sprintf("updated_at > $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM notifications WHERE %s`, strings.Join(where, " AND "))

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func feedConditions(q domain.FeedQuery) ([]string, []any) {
	var where []string
	var args []any

	if q.Recipient != nil {
		args = append(args, q.Recipient.Type, q.Recipient.ID)
		where = append(where,
			fmt.Sprintf("recipient_type = $%d", len(args)-1),
			fmt.Sprintf("recipient_id = $%d", len(args)),
			"organization_id IS NULL",
		)
	}
	if q.OrgID != nil {
		args = append(args, *q.OrgID)
		where = append(where, fmt.Sprintf("organization_id = $%d", len(args)))
	}
	if len(q.Kinds) > 0 {
		kinds := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			kinds[i] = string(k)
		}
		args = append(args, pq.Array(kinds))
		where = append(where, fmt.Sprintf("event_kind = ANY($%d)", len(args)))
	}
	if len(where) == 0 {
		where = append(where, "FALSE")
	}
	return where, args
}
