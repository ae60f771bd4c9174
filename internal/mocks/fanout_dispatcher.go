package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"feedpulse/internal/domain"
)

type FanoutDispatcher struct {
	mock.Mock
}

func (m *FanoutDispatcher) Dispatch(ev domain.Event) {
	m.Called(ev)
}

func (m *FanoutDispatcher) Retract(ctx context.Context, kind domain.EventKind, subject domain.SubjectRef, actorID uuid.UUID, category string) error {
	args := m.Called(ctx, kind, subject, actorID, category)
	return args.Error(0)
}

func (m *FanoutDispatcher) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
