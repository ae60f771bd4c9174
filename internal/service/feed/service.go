package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"feedpulse/internal/domain"
	"feedpulse/internal/pkg/logger"
	"feedpulse/internal/repository"
	"feedpulse/internal/service/readstate"
)

// Service answers feed queries: scoping and permission checks, keyset
// pagination, and per-row annotations. It only reads; a merge committing
// mid-query may or may not be reflected in the page, which is acceptable.
type Service interface {
	// Query returns one ordered page. Scoping failures (missing org_id,
	// non-member viewer) yield an empty page, never an error. An admin may
	// pass override to view another user's personal feed.
	Query(ctx context.Context, viewer domain.Viewer, filter domain.FeedFilter, override *uuid.UUID, cursor domain.FeedCursor, pageSize int) (domain.FeedPage, error)
	UnreadCount(ctx context.Context, viewer domain.Viewer, filter domain.FeedFilter) (int64, error)
}

type service struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	reactions     repository.ReactionRepository
	readState     readstate.Service
	log           *zap.Logger
}

func NewService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	reactions repository.ReactionRepository,
	readState readstate.Service,
) Service {
	return &service{
		notifications: notifications,
		users:         users,
		reactions:     reactions,
		readState:     readState,
		log:           logger.L(),
	}
}

func (s *service) Query(ctx context.Context, viewer domain.Viewer, filter domain.FeedFilter, override *uuid.UUID, cursor domain.FeedCursor, pageSize int) (domain.FeedPage, error) {
	target := viewer.UserID
	if override != nil && viewer.Admin {
		target = *override
	}

	q, allowed, err := s.scope(ctx, viewer, filter, target)
	if err != nil {
		return domain.FeedPage{}, err
	}
	if !allowed {
		return domain.FeedPage{Items: []domain.FeedItem{}}, nil
	}

	q.Cursor = cursor
	q.PageSize = domain.ClampPageSize(pageSize) + 1 // one extra row to detect the next page

	rows, err := s.notifications.ListFeed(ctx, q)
	if err != nil {
		return domain.FeedPage{}, err
	}

	page := domain.FeedPage{Items: make([]domain.FeedItem, 0, len(rows))}
	if len(rows) == q.PageSize {
		rows = rows[:len(rows)-1]
		last := rows[len(rows)-1]
		page.NextCursor = domain.FeedCursor{UpdatedAt: last.UpdatedAt, ID: last.ID}.Encode()
	}

	marker := s.marker(ctx, target, filter)
	reacted := s.reactedSubjects(ctx, target, rows)

	for _, n := range rows {
		page.Items = append(page.Items, domain.FeedItem{
			Notification: n,
			Read:         readstate.IsRead(marker, &n),
			Reacted:      reacted[n.Subject()],
		})
	}
	return page, nil
}

func (s *service) UnreadCount(ctx context.Context, viewer domain.Viewer, filter domain.FeedFilter) (int64, error) {
	q, allowed, err := s.scope(ctx, viewer, filter, viewer.UserID)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, nil
	}

	marker, err := s.readState.LastRead(ctx, viewer.UserID, readstate.Scope(filter))
	if err != nil {
		return 0, err
	}
	return s.notifications.CountSince(ctx, q, marker)
}

// scope translates a filter into a storage query. The second return reports
// whether the viewer may see anything at all; scoping problems degrade to
// "nothing visible" rather than erroring.
func (s *service) scope(ctx context.Context, viewer domain.Viewer, filter domain.FeedFilter, target uuid.UUID) (domain.FeedQuery, bool, error) {
	if filter.Scope == domain.ScopeOrganization {
		if filter.OrgID == nil {
			return domain.FeedQuery{}, false, nil
		}
		if !viewer.Admin {
			member, err := s.users.IsMember(ctx, viewer.UserID, *filter.OrgID)
			if err != nil {
				return domain.FeedQuery{}, false, err
			}
			if !member {
				return domain.FeedQuery{}, false, nil
			}
		}
		return domain.FeedQuery{OrgID: filter.OrgID, Kinds: filter.Kinds}, true, nil
	}

	recipient := domain.UserRecipient(target)
	return domain.FeedQuery{Recipient: &recipient, Kinds: filter.Kinds}, true, nil
}

// Annotation lookups are rendering sugar; their failures degrade to
// unannotated rows instead of failing the page.
func (s *service) marker(ctx context.Context, userID uuid.UUID, filter domain.FeedFilter) time.Time {
	m, err := s.readState.LastRead(ctx, userID, readstate.Scope(filter))
	if err != nil {
		s.log.Warn("read-state lookup failed", zap.Error(err))
		return time.Time{}
	}
	return m
}

func (s *service) reactedSubjects(ctx context.Context, userID uuid.UUID, rows []domain.Notification) map[domain.SubjectRef]bool {
	subjects := make([]domain.SubjectRef, 0, len(rows))
	seen := make(map[domain.SubjectRef]bool, len(rows))
	for _, n := range rows {
		subject := n.Subject()
		if !seen[subject] {
			seen[subject] = true
			subjects = append(subjects, subject)
		}
	}
	reacted, err := s.reactions.ReactedSubjects(ctx, userID, subjects)
	if err != nil {
		s.log.Warn("reacted-subjects lookup failed", zap.Error(err))
		return map[domain.SubjectRef]bool{}
	}
	return reacted
}
