package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FeedScope string

const (
	ScopePersonal     FeedScope = "personal"
	ScopeOrganization FeedScope = "organization"
)

// FeedFilter selects which slice of a viewer's notifications to return.
// Kinds further restricts event kinds (the category filter); empty means all.
type FeedFilter struct {
	Scope FeedScope
	OrgID *uuid.UUID
	Kinds []EventKind
}

// CommentFamily is the kind set behind the "comments" category filter.
var CommentFamily = []EventKind{KindComment, KindMention, KindModerationTrigger}

// Viewer is the identity and capability context a feed query runs under.
// Admin capability is carried explicitly rather than read from ambient state.
type Viewer struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Admin  bool      `json:"admin"`
}

// FeedItem annotates a notification for rendering; the flags are derived at
// query time and never stored.
type FeedItem struct {
	Notification
	Read    bool `json:"read"`
	Reacted bool `json:"reacted"`
}

type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FeedQuery is the storage-level query produced by the feed engine after
// scoping and permission checks.
type FeedQuery struct {
	Recipient *Recipient
	OrgID     *uuid.UUID
	Kinds     []EventKind
	Cursor    FeedCursor
	PageSize  int
}

// FeedCursor is a keyset position on (updated_at DESC, id DESC). The zero
// value means "first page".
type FeedCursor struct {
	UpdatedAt time.Time
	ID        uuid.UUID
}

func (c FeedCursor) IsZero() bool {
	return c.UpdatedAt.IsZero()
}

func (c FeedCursor) Encode() string {
	raw := fmt.Sprintf("%s|%s", c.UpdatedAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeFeedCursor parses an opaque cursor. Malformed input degrades to the
// first page rather than erroring.
func DecodeFeedCursor(s string) FeedCursor {
	if s == "" {
		return FeedCursor{}
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return FeedCursor{}
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return FeedCursor{}
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return FeedCursor{}
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return FeedCursor{}
	}
	return FeedCursor{UpdatedAt: ts, ID: id}
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func ClampPageSize(n int) int {
	if n < 1 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
