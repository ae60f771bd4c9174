package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	KindReaction          EventKind = "reaction"
	KindFollow            EventKind = "follow"
	KindComment           EventKind = "comment"
	KindMention           EventKind = "mention"
	KindBadgeAchievement  EventKind = "badge_achievement"
	KindBroadcast         EventKind = "broadcast"
	KindModerationTrigger EventKind = "moderation_trigger"
	KindArticlePublished  EventKind = "article_published"
)

func (k EventKind) IsValid() bool {
	switch k {
	case KindReaction, KindFollow, KindComment, KindMention,
		KindBadgeAchievement, KindBroadcast, KindModerationTrigger, KindArticlePublished:
		return true
	}
	return false
}

type SubjectType string

const (
	SubjectArticle      SubjectType = "article"
	SubjectComment      SubjectType = "comment"
	SubjectUser         SubjectType = "user"
	SubjectOrganization SubjectType = "organization"
	SubjectBadge        SubjectType = "badge_achievement"
	SubjectBroadcast    SubjectType = "broadcast"
)

// SubjectRef points at the thing a notification is about. Together with the
// recipient, event kind and UTC day it forms the grouping key for merges.
type SubjectRef struct {
	Type SubjectType `json:"type"`
	ID   uuid.UUID   `json:"id"`
}

// Actor is the display projection of whoever caused an event.
type Actor struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
}

// Event is the engine's view of a domain event: its kind, the acting user and
// a small display projection supplied by the producer. Exactly one payload
// field is set, matching Kind. The engine never re-reads article/comment
// storage at feed time, so whatever the feed needs to render must arrive here.
type Event struct {
	Kind       EventKind
	Actor      Actor
	OccurredAt time.Time

	Reaction   *ReactionPayload
	Comment    *CommentPayload
	Follow     *FollowPayload
	Mention    *MentionPayload
	Badge      *BadgePayload
	Broadcast  *BroadcastPayload
	Moderation *ModerationPayload
	Article    *ArticlePayload
}

type ReactionPayload struct {
	Category    string
	Reactable   SubjectRef
	Title       string
	Path        string
	OwnerUserID uuid.UUID
	OwnerOrgID  *uuid.UUID
}

type CommentPayload struct {
	CommentID      uuid.UUID
	ParentAuthorID *uuid.UUID
	Depth          int
	Commentable    SubjectRef
	Title          string
	Path           string
	ProcessedHTML  string
	OrgID          *uuid.UUID
}

type FollowPayload struct {
	Followee     SubjectRef
	FolloweeName string
}

type MentionPayload struct {
	MentionedUserID uuid.UUID
	Source          SubjectRef
	Title           string
	Path            string
	ProcessedHTML   string
	OrgID           *uuid.UUID
}

type BadgePayload struct {
	AchievementID  uuid.UUID
	UserID         uuid.UUID
	BadgeTitle     string
	BadgeDesc      string
	CreditsAwarded int
	Message        string
}

type BroadcastPayload struct {
	BroadcastID   uuid.UUID
	UserID        uuid.UUID
	Title         string
	ProcessedHTML string
}

type ModerationPayload struct {
	CommentID     uuid.UUID
	Commentable   SubjectRef
	Title         string
	Path          string
	ProcessedHTML string
}

type ArticlePayload struct {
	ArticleID        uuid.UUID
	Title            string
	Path             string
	PublishedAt      time.Time
	OrgID            *uuid.UUID
	MentionedUserIDs []uuid.UUID
}

// Subject derives the grouping key for the event. Comments group on the
// thread's commentable so repeated comments on one article collapse into a
// single row per day; everything else groups on the entity itself.
func (e Event) Subject() SubjectRef {
	switch e.Kind {
	case KindReaction:
		if e.Reaction != nil {
			return e.Reaction.Reactable
		}
	case KindComment:
		if e.Comment != nil {
			return e.Comment.Commentable
		}
	case KindFollow:
		if e.Follow != nil {
			return e.Follow.Followee
		}
	case KindMention:
		if e.Mention != nil {
			return e.Mention.Source
		}
	case KindBadgeAchievement:
		if e.Badge != nil {
			return SubjectRef{Type: SubjectBadge, ID: e.Badge.AchievementID}
		}
	case KindBroadcast:
		if e.Broadcast != nil {
			return SubjectRef{Type: SubjectBroadcast, ID: e.Broadcast.BroadcastID}
		}
	case KindModerationTrigger:
		if e.Moderation != nil {
			return SubjectRef{Type: SubjectComment, ID: e.Moderation.CommentID}
		}
	case KindArticlePublished:
		if e.Article != nil {
			return SubjectRef{Type: SubjectArticle, ID: e.Article.ArticleID}
		}
	}
	return SubjectRef{}
}

// OrgContext returns the organization the event happened in, if any. A follow
// of an organization counts as happening in that organization.
func (e Event) OrgContext() *uuid.UUID {
	switch e.Kind {
	case KindReaction:
		if e.Reaction != nil {
			return e.Reaction.OwnerOrgID
		}
	case KindComment:
		if e.Comment != nil {
			return e.Comment.OrgID
		}
	case KindFollow:
		if e.Follow != nil && e.Follow.Followee.Type == SubjectOrganization {
			id := e.Follow.Followee.ID
			return &id
		}
	case KindMention:
		if e.Mention != nil {
			return e.Mention.OrgID
		}
	case KindArticlePublished:
		if e.Article != nil {
			return e.Article.OrgID
		}
	}
	return nil
}
