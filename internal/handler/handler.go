package handler

import (
	"github.com/go-playground/validator/v10"

	"feedpulse/internal/service"
)

type Handlers struct {
	Event        *EventHandler
	Notification *NotificationHandler
}

func NewHandlers(services *service.Services) *Handlers {
	validate := validator.New()
	return &Handlers{
		Event:        NewEventHandler(services.Fanout, services.Notify, validate),
		Notification: NewNotificationHandler(services.Feed, services.ReadState),
	}
}
