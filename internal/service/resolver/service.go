package resolver

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"feedpulse/internal/domain"
	"feedpulse/internal/repository"
)

// Service computes the recipient set for an event. Resolution runs at send
// time inside the fan-out worker, so gating (muted actors, inactive
// broadcasts, moderation opt-outs) reflects the state at delivery, not at
// enqueue. An event with no resolvable recipients is a no-op, not a failure.
type Service interface {
	Resolve(ctx context.Context, ev domain.Event) ([]domain.Recipient, error)
}

type strategyFn func(ctx context.Context, ev domain.Event) ([]domain.Recipient, error)

type service struct {
	users      repository.UserRepository
	follows    repository.FollowRepository
	broadcasts repository.BroadcastRepository

	strategies map[domain.EventKind]strategyFn
}

func NewService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	broadcasts repository.BroadcastRepository,
) Service {
	s := &service{
		users:      users,
		follows:    follows,
		broadcasts: broadcasts,
	}
	s.strategies = map[domain.EventKind]strategyFn{
		domain.KindReaction:          s.resolveReaction,
		domain.KindFollow:            s.resolveFollow,
		domain.KindComment:           s.resolveComment,
		domain.KindMention:           s.resolveMention,
		domain.KindBadgeAchievement:  s.resolveBadge,
		domain.KindBroadcast:         s.resolveBroadcast,
		domain.KindModerationTrigger: s.resolveModeration,
		domain.KindArticlePublished:  s.resolveArticle,
	}
	return s
}

func (s *service) Resolve(ctx context.Context, ev domain.Event) ([]domain.Recipient, error) {
	strategy, ok := s.strategies[ev.Kind]
	if !ok {
		return nil, fmt.Errorf("no resolver strategy for event kind %q", ev.Kind)
	}
	return strategy(ctx, ev)
}

// A reaction notifies the reactable's owning user, or its owning organization
// when the reactable belongs to one. Never the reacting user themself, and
// nobody when the reacting user is hard-muted.
func (s *service) resolveReaction(ctx context.Context, ev domain.Event) ([]domain.Recipient, error) {
	p := ev.Reaction
	if p == nil {
		return nil, nil
	}

	actor, err := s.users.GetByID(ctx, ev.Actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reacting user: %w", err)
	}
	if actor != nil && actor.Muted {
		return nil, nil
	}

	if p.OwnerOrgID != nil {
		return []domain.Recipient{domain.OrgRecipient(*p.OwnerOrgID)}, nil
	}
	if p.OwnerUserID == ev.Actor.ID {
		return nil, nil
	}
	return []domain.Recipient{domain.UserRecipient(p.OwnerUserID)}, nil
}

func (s *service) resolveFollow(_ context.Context, ev domain.Event) ([]domain.Recipient, error) {
	p := ev.Follow
	if p == nil {
		return nil, nil
	}
	switch p.Followee.Type {
	case domain.SubjectOrganization:
		return []domain.Recipient{domain.OrgRecipient(p.Followee.ID)}, nil
	case domain.SubjectUser:
		if p.Followee.ID == ev.Actor.ID {
			return nil, nil
		}
		return []domain.Recipient{domain.UserRecipient(p.Followee.ID)}, nil
	}
	return nil, nil
}

// A comment notifies the thread's subscribers minus its author. A reply
// additionally notifies the parent comment's author even without a
// subscription.
func (s *service) resolveComment(ctx context.Context, ev domain.Event) ([]domain.Recipient, error) {
	p := ev.Comment
	if p == nil {
		return nil, nil
	}

	subscriberIDs, err := s.follows.ListSubscriberIDs(ctx, p.Commentable)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(subscriberIDs)+1)
	var recipients []domain.Recipient
	for _, id := range subscriberIDs {
		if id == ev.Actor.ID || seen[id] {
			continue
		}
		seen[id] = true
		recipients = append(recipients, domain.UserRecipient(id))
	}

	if p.ParentAuthorID != nil && *p.ParentAuthorID != ev.Actor.ID && !seen[*p.ParentAuthorID] {
		recipients = append(recipients, domain.UserRecipient(*p.ParentAuthorID))
	}

	// A comment on an org-owned thread also lands in the org's feed.
	if p.OrgID != nil {
		recipients = append(recipients, domain.OrgRecipient(*p.OrgID))
	}
	return recipients, nil
}

func (s *service) resolveMention(ctx context.Context, ev domain.Event) ([]domain.Recipient, error) {
	p := ev.Mention
	if p == nil {
		return nil, nil
	}
	if p.MentionedUserID == ev.Actor.ID {
		return nil, nil
	}
	mentioned, err := s.users.GetByID(ctx, p.MentionedUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentioned user: %w", err)
	}
	if mentioned == nil || mentioned.Suspended {
		return nil, nil
	}
	return []domain.Recipient{domain.UserRecipient(p.MentionedUserID)}, nil
}

func (s *service) resolveBadge(_ context.Context, ev domain.Event) ([]domain.Recipient, error) {
	p := ev.Badge
	if p == nil {
		return nil, nil
	}
	return []domain.Recipient{domain.UserRecipient(p.UserID)}, nil
}

// Broadcast delivery is gated on the broadcast being active right now, not on
// whether it was active when the event was enqueued.
func (s *service) resolveBroadcast(ctx context.Context, ev domain.Event) ([]domain.Recipient, error) {
	p := ev.Broadcast
	if p == nil {
		return nil, nil
	}
	active, err := s.broadcasts.IsActive(ctx, p.BroadcastID)
	if err != nil {
		return nil, fmt.Errorf("failed to check broadcast state: %w", err)
	}
	if !active {
		return nil, nil
	}
	return []domain.Recipient{domain.UserRecipient(p.UserID)}, nil
}

// Moderation triggers go to trusted members who have moderation
// notifications enabled, never to the commenter being moderated.
func (s *service) resolveModeration(ctx context.Context, ev domain.Event) ([]domain.Recipient, error) {
	if ev.Moderation == nil {
		return nil, nil
	}
	moderators, err := s.users.ListModerators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list moderators: %w", err)
	}
	var recipients []domain.Recipient
	for _, mod := range moderators {
		if mod.ID == ev.Actor.ID {
			continue
		}
		recipients = append(recipients, domain.UserRecipient(mod.ID))
	}
	return recipients, nil
}

// A published article fans out to the author's followers plus any users
// mentioned in the body, minus the author and anyone unreachable.
func (s *service) resolveArticle(ctx context.Context, ev domain.Event) ([]domain.Recipient, error) {
	p := ev.Article
	if p == nil {
		return nil, nil
	}

	followerIDs, err := s.follows.ListFollowerIDs(ctx, domain.SubjectRef{Type: domain.SubjectUser, ID: ev.Actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	if p.OrgID != nil {
		orgFollowerIDs, err := s.follows.ListFollowerIDs(ctx, domain.SubjectRef{Type: domain.SubjectOrganization, ID: *p.OrgID})
		if err != nil {
			return nil, fmt.Errorf("failed to list org followers: %w", err)
		}
		followerIDs = append(followerIDs, orgFollowerIDs...)
	}

	mentionedIDs, err := s.users.FilterReachable(ctx, p.MentionedUserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to filter mentioned users: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(followerIDs)+len(mentionedIDs))
	var recipients []domain.Recipient
	for _, id := range append(followerIDs, mentionedIDs...) {
		if id == ev.Actor.ID || seen[id] {
			continue
		}
		seen[id] = true
		recipients = append(recipients, domain.UserRecipient(id))
	}
	return recipients, nil
}
