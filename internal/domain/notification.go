package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RecipientType string

const (
	RecipientUser         RecipientType = "user"
	RecipientOrganization RecipientType = "organization"
)

// Recipient is the polymorphic target of a notification: a single user or an
// organization. Organization rows are visible to all current members.
type Recipient struct {
	Type RecipientType `json:"type"`
	ID   uuid.UUID     `json:"id"`
}

func UserRecipient(id uuid.UUID) Recipient {
	return Recipient{Type: RecipientUser, ID: id}
}

func OrgRecipient(id uuid.UUID) Recipient {
	return Recipient{Type: RecipientOrganization, ID: id}
}

// Snapshot is the denormalized display payload frozen onto a notification at
// write time and overwritten on every merge. The feed renders from it without
// re-joining storage. Fields are per-kind; unused ones stay empty.
type Snapshot struct {
	Title         string     `json:"title,omitempty"`
	Path          string     `json:"path,omitempty"`
	ProcessedHTML string     `json:"processed_html,omitempty"`
	Category      string     `json:"category,omitempty"`
	Reply         bool       `json:"reply,omitempty"`
	BadgeDesc     string     `json:"badge_desc,omitempty"`
	Credits       int        `json:"credits,omitempty"`
	Message       string     `json:"message,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Minimal       bool       `json:"minimal,omitempty"`
}

func (s Snapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Snapshot) Scan(src any) error {
	return scanJSON(src, s)
}

// UUIDList is a jsonb array of uuid strings. Insertion order is preserved,
// most recent last, so "X and N others" phrasing stays deterministic.
type UUIDList []uuid.UUID

func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]uuid.UUID{})
	}
	return json.Marshal(l)
}

func (l *UUIDList) Scan(src any) error {
	return scanJSON(src, l)
}

func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// NameMap is a jsonb object mapping actor id to display name, merged on
// upsert so grouped rows render every actor without extra lookups.
type NameMap map[uuid.UUID]string

func (m NameMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[uuid.UUID]string{})
	}
	return json.Marshal(m)
}

func (m *NameMap) Scan(src any) error {
	return scanJSON(src, m)
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

// Notification is one grouped feed row. At most one row exists per
// (recipient, subject, event kind, UTC day); same-day repeats merge into it.
type Notification struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	RecipientType  RecipientType `json:"recipient_type" db:"recipient_type"`
	RecipientID    uuid.UUID     `json:"recipient_id" db:"recipient_id"`
	EventKind      EventKind     `json:"event_kind" db:"event_kind"`
	SubjectType    SubjectType   `json:"subject_type" db:"subject_type"`
	SubjectID      uuid.UUID     `json:"subject_id" db:"subject_id"`
	OrganizationID *uuid.UUID    `json:"organization_id,omitempty" db:"organization_id"`
	Day            time.Time     `json:"day" db:"day"`
	ActorIDs       UUIDList      `json:"actor_ids" db:"actor_ids"`
	ActorNames     NameMap       `json:"actor_names" db:"actor_names"`
	Snapshot       Snapshot      `json:"snapshot" db:"snapshot"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

func (n *Notification) Recipient() Recipient {
	return Recipient{Type: n.RecipientType, ID: n.RecipientID}
}

func (n *Notification) Subject() SubjectRef {
	return SubjectRef{Type: n.SubjectType, ID: n.SubjectID}
}

// UTCDay truncates t to its UTC calendar day, the merge boundary.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
