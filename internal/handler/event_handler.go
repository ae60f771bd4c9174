package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"feedpulse/internal/domain"
	"feedpulse/internal/middleware"
	"feedpulse/internal/service/fanout"
	"feedpulse/internal/service/notify"
)

// EventHandler is the ingest surface for upstream producers. Every endpoint
// is fire-and-forget: the payload is validated, handed to the dispatcher and
// acknowledged with 202 before any fan-out work happens.
type EventHandler struct {
	dispatcher fanout.Dispatcher
	notify     notify.Service
	validate   *validator.Validate
}

func NewEventHandler(dispatcher fanout.Dispatcher, notifySvc notify.Service, validate *validator.Validate) *EventHandler {
	return &EventHandler{dispatcher: dispatcher, notify: notifySvc, validate: validate}
}

type actorRequest struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=120"`
	Username string    `json:"username" validate:"max=60"`
}

func (r actorRequest) actor() domain.Actor {
	return domain.Actor{ID: r.ID, Name: r.Name, Username: r.Username}
}

type subjectRequest struct {
	Type domain.SubjectType `json:"type" validate:"required,oneof=article comment user organization badge_achievement broadcast"`
	ID   uuid.UUID          `json:"id" validate:"required"`
}

func (r subjectRequest) ref() domain.SubjectRef {
	return domain.SubjectRef{Type: r.Type, ID: r.ID}
}

type reactionEventRequest struct {
	Actor       actorRequest   `json:"actor"`
	Category    string         `json:"category" validate:"required,max=30"`
	Reactable   subjectRequest `json:"reactable"`
	Title       string         `json:"title" validate:"max=250"`
	Path        string         `json:"path" validate:"max=250"`
	OwnerUserID uuid.UUID      `json:"owner_user_id" validate:"required"`
	OwnerOrgID  *uuid.UUID     `json:"owner_org_id"`
	OccurredAt  *time.Time     `json:"occurred_at"`
}

type commentEventRequest struct {
	Actor          actorRequest   `json:"actor"`
	CommentID      uuid.UUID      `json:"comment_id" validate:"required"`
	ParentAuthorID *uuid.UUID     `json:"parent_author_id"`
	Depth          int            `json:"depth" validate:"min=0"`
	Commentable    subjectRequest `json:"commentable"`
	Title          string         `json:"title" validate:"max=250"`
	Path           string         `json:"path" validate:"max=250"`
	ProcessedHTML  string         `json:"processed_html"`
	OrgID          *uuid.UUID     `json:"org_id"`
	OccurredAt     *time.Time     `json:"occurred_at"`
}

type followEventRequest struct {
	Actor        actorRequest   `json:"actor"`
	Followee     subjectRequest `json:"followee"`
	FolloweeName string         `json:"followee_name" validate:"max=120"`
	OccurredAt   *time.Time     `json:"occurred_at"`
}

type mentionEventRequest struct {
	Actor           actorRequest   `json:"actor"`
	MentionedUserID uuid.UUID      `json:"mentioned_user_id" validate:"required"`
	Source          subjectRequest `json:"source"`
	Title           string         `json:"title" validate:"max=250"`
	Path            string         `json:"path" validate:"max=250"`
	ProcessedHTML   string         `json:"processed_html"`
	OrgID           *uuid.UUID     `json:"org_id"`
	OccurredAt      *time.Time     `json:"occurred_at"`
}

type badgeEventRequest struct {
	Actor          actorRequest `json:"actor"`
	AchievementID  uuid.UUID    `json:"achievement_id" validate:"required"`
	UserID         uuid.UUID    `json:"user_id" validate:"required"`
	BadgeTitle     string       `json:"badge_title" validate:"required,max=120"`
	BadgeDesc      string       `json:"badge_desc"`
	CreditsAwarded int          `json:"credits_awarded" validate:"min=0"`
	Message        string       `json:"message"`
	OccurredAt     *time.Time   `json:"occurred_at"`
}

type broadcastEventRequest struct {
	Actor         actorRequest `json:"actor"`
	BroadcastID   uuid.UUID    `json:"broadcast_id" validate:"required"`
	UserID        uuid.UUID    `json:"user_id" validate:"required"`
	Title         string       `json:"title" validate:"max=250"`
	ProcessedHTML string       `json:"processed_html"`
	OccurredAt    *time.Time   `json:"occurred_at"`
}

type moderationEventRequest struct {
	Actor         actorRequest   `json:"actor"`
	CommentID     uuid.UUID      `json:"comment_id" validate:"required"`
	Commentable   subjectRequest `json:"commentable"`
	Title         string         `json:"title" validate:"max=250"`
	Path          string         `json:"path" validate:"max=250"`
	ProcessedHTML string         `json:"processed_html"`
	OccurredAt    *time.Time     `json:"occurred_at"`
}

type articleEventRequest struct {
	Actor            actorRequest `json:"actor"`
	ArticleID        uuid.UUID    `json:"article_id" validate:"required"`
	Title            string       `json:"title" validate:"required,max=250"`
	Path             string       `json:"path" validate:"max=250"`
	PublishedAt      time.Time    `json:"published_at" validate:"required"`
	OrgID            *uuid.UUID   `json:"org_id"`
	MentionedUserIDs []uuid.UUID  `json:"mentioned_user_ids"`
	OccurredAt       *time.Time   `json:"occurred_at"`
}

func (h *EventHandler) Ingest(c *fiber.Ctx) error {
	ev, err := h.parseEvent(c)
	if err != nil {
		return err
	}
	h.dispatcher.Dispatch(*ev)
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *EventHandler) parseEvent(c *fiber.Ctx) (*domain.Event, error) {
	switch domain.EventKind(c.Params("kind")) {
	case domain.KindReaction:
		var req reactionEventRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return &domain.Event{
			Kind:       domain.KindReaction,
			Actor:      req.Actor.actor(),
			OccurredAt: occurred(req.OccurredAt),
			Reaction: &domain.ReactionPayload{
				Category:    req.Category,
				Reactable:   req.Reactable.ref(),
				Title:       req.Title,
				Path:        req.Path,
				OwnerUserID: req.OwnerUserID,
				OwnerOrgID:  req.OwnerOrgID,
			},
		}, nil
	case domain.KindComment:
		var req commentEventRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return &domain.Event{
			Kind:       domain.KindComment,
			Actor:      req.Actor.actor(),
			OccurredAt: occurred(req.OccurredAt),
			Comment: &domain.CommentPayload{
				CommentID:      req.CommentID,
				ParentAuthorID: req.ParentAuthorID,
				Depth:          req.Depth,
				Commentable:    req.Commentable.ref(),
				Title:          req.Title,
				Path:           req.Path,
				ProcessedHTML:  req.ProcessedHTML,
				OrgID:          req.OrgID,
			},
		}, nil
	case domain.KindFollow:
		var req followEventRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return &domain.Event{
			Kind:       domain.KindFollow,
			Actor:      req.Actor.actor(),
			OccurredAt: occurred(req.OccurredAt),
			Follow: &domain.FollowPayload{
				Followee:     req.Followee.ref(),
				FolloweeName: req.FolloweeName,
			},
		}, nil
	case domain.KindMention:
		var req mentionEventRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return &domain.Event{
			Kind:       domain.KindMention,
			Actor:      req.Actor.actor(),
			OccurredAt: occurred(req.OccurredAt),
			Mention: &domain.MentionPayload{
				MentionedUserID: req.MentionedUserID,
				Source:          req.Source.ref(),
				Title:           req.Title,
				Path:            req.Path,
				ProcessedHTML:   req.ProcessedHTML,
				OrgID:           req.OrgID,
			},
		}, nil
	case domain.KindBadgeAchievement:
		var req badgeEventRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return &domain.Event{
			Kind:       domain.KindBadgeAchievement,
			Actor:      req.Actor.actor(),
			OccurredAt: occurred(req.OccurredAt),
			Badge: &domain.BadgePayload{
				AchievementID:  req.AchievementID,
				UserID:         req.UserID,
				BadgeTitle:     req.BadgeTitle,
				BadgeDesc:      req.BadgeDesc,
				CreditsAwarded: req.CreditsAwarded,
				Message:        req.Message,
			},
		}, nil
	case domain.KindBroadcast:
		var req broadcastEventRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return &domain.Event{
			Kind:       domain.KindBroadcast,
			Actor:      req.Actor.actor(),
			OccurredAt: occurred(req.OccurredAt),
			Broadcast: &domain.BroadcastPayload{
				BroadcastID:   req.BroadcastID,
				UserID:        req.UserID,
				Title:         req.Title,
				ProcessedHTML: req.ProcessedHTML,
			},
		}, nil
	case domain.KindModerationTrigger:
		var req moderationEventRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return &domain.Event{
			Kind:       domain.KindModerationTrigger,
			Actor:      req.Actor.actor(),
			OccurredAt: occurred(req.OccurredAt),
			Moderation: &domain.ModerationPayload{
				CommentID:     req.CommentID,
				Commentable:   req.Commentable.ref(),
				Title:         req.Title,
				Path:          req.Path,
				ProcessedHTML: req.ProcessedHTML,
			},
		}, nil
	case domain.KindArticlePublished:
		var req articleEventRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return &domain.Event{
			Kind:       domain.KindArticlePublished,
			Actor:      req.Actor.actor(),
			OccurredAt: occurred(req.OccurredAt),
			Article: &domain.ArticlePayload{
				ArticleID:        req.ArticleID,
				Title:            req.Title,
				Path:             req.Path,
				PublishedAt:      req.PublishedAt,
				OrgID:            req.OrgID,
				MentionedUserIDs: req.MentionedUserIDs,
			},
		}, nil
	}
	return nil, middleware.BadRequest("Unknown event kind")
}

type retractRequest struct {
	Kind     domain.EventKind `json:"kind" validate:"required"`
	ActorID  uuid.UUID        `json:"actor_id" validate:"required"`
	Subject  subjectRequest   `json:"subject"`
	Category string           `json:"category" validate:"required_if=Kind reaction,max=30"`
}

func (h *EventHandler) Retract(c *fiber.Ctx) error {
	var req retractRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if !req.Kind.IsValid() {
		return middleware.BadRequest("Unknown event kind")
	}
	if err := h.dispatcher.Retract(c.Context(), req.Kind, req.Subject.ref(), req.ActorID, req.Category); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type subjectDeletedRequest struct {
	Subject subjectRequest `json:"subject"`
}

// SubjectDeleted cascades a subject deletion (article or comment removed
// upstream) into its notifications.
func (h *EventHandler) SubjectDeleted(c *fiber.Ctx) error {
	var req subjectDeletedRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.notify.DeleteSubject(c.Context(), req.Subject.ref()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EventHandler) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return middleware.BadRequest("Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return middleware.UnprocessableEntity(err.Error())
	}
	return nil
}

func occurred(t *time.Time) time.Time {
	if t != nil {
		return t.UTC()
	}
	return time.Time{}
}
