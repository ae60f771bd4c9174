package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type ReadStateService struct {
	mock.Mock
}

func (m *ReadStateService) MarkRead(ctx context.Context, userID uuid.UUID, scope string) error {
	args := m.Called(ctx, userID, scope)
	return args.Error(0)
}

func (m *ReadStateService) LastRead(ctx context.Context, userID uuid.UUID, scope string) (time.Time, error) {
	args := m.Called(ctx, userID, scope)
	return args.Get(0).(time.Time), args.Error(1)
}
