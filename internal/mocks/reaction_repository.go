package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"feedpulse/internal/domain"
)

type ReactionRepository struct {
	mock.Mock
}

func (m *ReactionRepository) Record(ctx context.Context, reaction *domain.Reaction) error {
	args := m.Called(ctx, reaction)
	return args.Error(0)
}

func (m *ReactionRepository) Remove(ctx context.Context, userID uuid.UUID, subject domain.SubjectRef, category string) error {
	args := m.Called(ctx, userID, subject, category)
	return args.Error(0)
}

func (m *ReactionRepository) CountFor(ctx context.Context, userID uuid.UUID, subject domain.SubjectRef) (int64, error) {
	args := m.Called(ctx, userID, subject)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ReactionRepository) ReactedSubjects(ctx context.Context, userID uuid.UUID, subjects []domain.SubjectRef) (map[domain.SubjectRef]bool, error) {
	args := m.Called(ctx, userID, subjects)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.SubjectRef]bool), args.Error(1)
}
