package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"feedpulse/internal/domain"
)

type FeedService struct {
	mock.Mock
}

func (m *FeedService) Query(ctx context.Context, viewer domain.Viewer, filter domain.FeedFilter, override *uuid.UUID, cursor domain.FeedCursor, pageSize int) (domain.FeedPage, error) {
	args := m.Called(ctx, viewer, filter, override, cursor, pageSize)
	return args.Get(0).(domain.FeedPage), args.Error(1)
}

func (m *FeedService) UnreadCount(ctx context.Context, viewer domain.Viewer, filter domain.FeedFilter) (int64, error) {
	args := m.Called(ctx, viewer, filter)
	return args.Get(0).(int64), args.Error(1)
}
