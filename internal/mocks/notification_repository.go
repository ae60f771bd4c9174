package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"feedpulse/internal/domain"
)

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Upsert(ctx context.Context, n *domain.Notification, actor domain.Actor) (*domain.Notification, error) {
	args := m.Called(ctx, n, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *NotificationRepository) RemoveActor(ctx context.Context, subject domain.SubjectRef, kind domain.EventKind, actorID uuid.UUID) error {
	args := m.Called(ctx, subject, kind, actorID)
	return args.Error(0)
}

func (m *NotificationRepository) DeleteBySubject(ctx context.Context, subject domain.SubjectRef) error {
	args := m.Called(ctx, subject)
	return args.Error(0)
}

func (m *NotificationRepository) ListFeed(ctx context.Context, q domain.FeedQuery) ([]domain.Notification, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *NotificationRepository) CountSince(ctx context.Context, q domain.FeedQuery, since time.Time) (int64, error) {
	args := m.Called(ctx, q, since)
	return args.Get(0).(int64), args.Error(1)
}
