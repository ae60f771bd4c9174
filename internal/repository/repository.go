package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Notification NotificationRepository
	User         UserRepository
	Follow       FollowRepository
	Reaction     ReactionRepository
	Broadcast    BroadcastRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Notification: NewNotificationRepository(db),
		User:         NewUserRepository(db),
		Follow:       NewFollowRepository(db),
		Reaction:     NewReactionRepository(db),
		Broadcast:    NewBroadcastRepository(db),
	}
}
