package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"feedpulse/internal/domain"
)

// ReactionRepository keeps the engine's side record of reactions: who reacted
// to what. It backs the "viewer already reacted" feed annotation and lets
// retraction tell whether an actor still has other reactions on a subject.
type ReactionRepository interface {
	Record(ctx context.Context, reaction *domain.Reaction) error
	Remove(ctx context.Context, userID uuid.UUID, subject domain.SubjectRef, category string) error
	CountFor(ctx context.Context, userID uuid.UUID, subject domain.SubjectRef) (int64, error)
	// ReactedSubjects reports which of the given subjects the user has any
	// reaction on. Used as a batch side lookup when annotating a feed page.
	ReactedSubjects(ctx context.Context, userID uuid.UUID, subjects []domain.SubjectRef) (map[domain.SubjectRef]bool, error)
}

type reactionRepository struct {
	db *sqlx.DB
}

func NewReactionRepository(db *sqlx.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Record(ctx context.Context, reaction *domain.Reaction) error {
	query := `
		INSERT INTO reactions (user_id, subject_type, subject_id, category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, subject_type, subject_id, category) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query,
		reaction.UserID, reaction.SubjectType, reaction.SubjectID, reaction.Category)
	return err
}

func (r *reactionRepository) Remove(ctx context.Context, userID uuid.UUID, subject domain.SubjectRef, category string) error {
	query := `
		DELETE FROM reactions
		WHERE user_id = $1 AND subject_type = $2 AND subject_id = $3 AND category = $4`
	_, err := r.db.ExecContext(ctx, query, userID, subject.Type, subject.ID, category)
	return err
}

func (r *reactionRepository) CountFor(ctx context.Context, userID uuid.UUID, subject domain.SubjectRef) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*) FROM reactions
		WHERE user_id = $1 AND subject_type = $2 AND subject_id = $3`
	err := r.db.GetContext(ctx, &count, query, userID, subject.Type, subject.ID)
	return count, err
}

func (r *reactionRepository) ReactedSubjects(ctx context.Context, userID uuid.UUID, subjects []domain.SubjectRef) (map[domain.SubjectRef]bool, error) {
	result := make(map[domain.SubjectRef]bool, len(subjects))
	if len(subjects) == 0 {
		return result, nil
	}

	args := []any{userID}
	pairs := make([]string, 0, len(subjects))
	for _, s := range subjects {
		args = append(args, s.Type, s.ID)
		pairs = append(pairs, fmt.Sprintf("($%d, $%d)", len(args)-1, len(args)))
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT subject_type, subject_id FROM reactions
		WHERE user_id = $1 AND (subject_type, subject_id) IN (%s)`,
		strings.Join(pairs, ", "))

	rows := []struct {
		SubjectType domain.SubjectType `db:"subject_type"`
		SubjectID   uuid.UUID          `db:"subject_id"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[domain.SubjectRef{Type: row.SubjectType, ID: row.SubjectID}] = true
	}
	return result, nil
}
