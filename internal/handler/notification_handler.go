package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"feedpulse/internal/domain"
	"feedpulse/internal/middleware"
	"feedpulse/internal/service/feed"
	"feedpulse/internal/service/readstate"
)

type NotificationHandler struct {
	feed      feed.Service
	readState readstate.Service
}

func NewNotificationHandler(feedSvc feed.Service, readStateSvc readstate.Service) *NotificationHandler {
	return &NotificationHandler{feed: feedSvc, readState: readStateSvc}
}

// parseFeedFilter maps the filter/org_id query params onto a feed filter.
// Unknown filter names and malformed org ids degrade silently to the
// unfiltered personal feed, matching how the rest of the read path treats
// scoping problems.
func parseFeedFilter(filter, orgID string) domain.FeedFilter {
	var f domain.FeedFilter
	f.Scope = domain.ScopePersonal

	if orgID != "" {
		if id, err := uuid.Parse(orgID); err == nil {
			f.Scope = domain.ScopeOrganization
			f.OrgID = &id
		} else {
			// org filter requested but unusable: org scope with no id
			// resolves to an empty page downstream
			f.Scope = domain.ScopeOrganization
		}
	}

	switch filter {
	case "comments":
		f.Kinds = domain.CommentFamily
	case "posts":
		f.Kinds = []domain.EventKind{domain.KindArticlePublished}
	case "":
	default:
		// unknown category names fall through to the unfiltered feed
	}
	return f
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	viewer := middleware.GetViewer(c)
	filter := parseFeedFilter(c.Query("filter"), c.Query("org_id"))

	var override *uuid.UUID
	if asUser := c.Query("as_user"); asUser != "" {
		id, err := uuid.Parse(asUser)
		if err != nil {
			return middleware.BadRequest("Invalid as_user")
		}
		override = &id
	}

	cursor := domain.DecodeFeedCursor(c.Query("cursor"))
	pageSize := c.QueryInt("page_size", domain.DefaultPageSize)

	page, err := h.feed.Query(c.Context(), viewer, filter, override, cursor, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	viewer := middleware.GetViewer(c)
	filter := parseFeedFilter(c.Query("filter"), c.Query("org_id"))

	count, err := h.feed.UnreadCount(c.Context(), viewer, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"unread_count": count})
}

type markReadRequest struct {
	Filter string `json:"filter"`
	OrgID  string `json:"org_id"`
}

// MarkRead advances the viewer's marker for the scope named in the body; an
// empty body marks the personal feed.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	viewer := middleware.GetViewer(c)

	var req markReadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return middleware.BadRequest("Invalid request body")
		}
	}
	filter := parseFeedFilter(req.Filter, req.OrgID)

	if err := h.readState.MarkRead(c.Context(), viewer.UserID, readstate.Scope(filter)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
