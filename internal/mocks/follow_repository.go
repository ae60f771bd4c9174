package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"feedpulse/internal/domain"
)

type FollowRepository struct {
	mock.Mock
}

func (m *FollowRepository) ListFollowerIDs(ctx context.Context, followable domain.SubjectRef) ([]uuid.UUID, error) {
	args := m.Called(ctx, followable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *FollowRepository) ListSubscriberIDs(ctx context.Context, subject domain.SubjectRef) ([]uuid.UUID, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}
