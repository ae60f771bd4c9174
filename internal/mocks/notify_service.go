package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"feedpulse/internal/domain"
)

type NotifyService struct {
	mock.Mock
}

func (m *NotifyService) Write(ctx context.Context, recipient domain.Recipient, ev domain.Event) (*domain.Notification, error) {
	args := m.Called(ctx, recipient, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *NotifyService) Retract(ctx context.Context, kind domain.EventKind, subject domain.SubjectRef, actorID uuid.UUID, category string) error {
	args := m.Called(ctx, kind, subject, actorID, category)
	return args.Error(0)
}

func (m *NotifyService) DeleteSubject(ctx context.Context, subject domain.SubjectRef) error {
	args := m.Called(ctx, subject)
	return args.Error(0)
}
