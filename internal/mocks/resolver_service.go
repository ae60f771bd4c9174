package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"feedpulse/internal/domain"
)

type ResolverService struct {
	mock.Mock
}

func (m *ResolverService) Resolve(ctx context.Context, ev domain.Event) ([]domain.Recipient, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Recipient), args.Error(1)
}
