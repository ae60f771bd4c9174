package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the engine's read-side projection of a platform account. Only the
// flags the resolver cares about are carried: suspended users are unreachable
// as recipients, muted users' reactions notify nobody, and trusted users with
// mod notifications enabled are eligible for moderation triggers.
type User struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Username         string    `json:"username" db:"username"`
	Admin            bool      `json:"admin" db:"admin"`
	Trusted          bool      `json:"trusted" db:"trusted"`
	Suspended        bool      `json:"suspended" db:"suspended"`
	Muted            bool      `json:"muted" db:"muted"`
	ModNotifications bool      `json:"mod_notifications" db:"mod_notifications"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type OrganizationMembership struct {
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Role           string    `json:"role" db:"role"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type Follow struct {
	FollowerID     uuid.UUID   `json:"follower_id" db:"follower_id"`
	FollowableType SubjectType `json:"followable_type" db:"followable_type"`
	FollowableID   uuid.UUID   `json:"followable_id" db:"followable_id"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// Subscription marks a user as wanting comment notifications for a thread.
type Subscription struct {
	UserID      uuid.UUID   `json:"user_id" db:"user_id"`
	SubjectType SubjectType `json:"subject_type" db:"subject_type"`
	SubjectID   uuid.UUID   `json:"subject_id" db:"subject_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// Reaction is the engine-owned side record of a reaction event. It powers the
// "viewer already reacted" feed annotation and keeps retraction idempotent;
// it is not the platform's reaction storage.
type Reaction struct {
	UserID      uuid.UUID   `json:"user_id" db:"user_id"`
	SubjectType SubjectType `json:"subject_type" db:"subject_type"`
	SubjectID   uuid.UUID   `json:"subject_id" db:"subject_id"`
	Category    string      `json:"category" db:"category"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type Broadcast struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	ProcessedHTML string    `json:"processed_html" db:"processed_html"`
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
