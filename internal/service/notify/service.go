package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"feedpulse/internal/domain"
	"feedpulse/internal/pkg/logger"
	"feedpulse/internal/repository"
)

// Service is the notification writer: it turns (recipient, event) pairs into
// grouped rows and reverses them on retraction.
type Service interface {
	// Write creates or merges the notification for one recipient. Repeats of
	// the same (recipient, subject, kind) within one UTC day merge into a
	// single row; a new day starts a new row.
	Write(ctx context.Context, recipient domain.Recipient, ev domain.Event) (*domain.Notification, error)
	// Retract reverses one actor's contribution: the actor is removed from
	// every matching grouped row and rows left with no actors are deleted.
	// Retracting something that no longer exists is a no-op.
	Retract(ctx context.Context, kind domain.EventKind, subject domain.SubjectRef, actorID uuid.UUID, category string) error
	// DeleteSubject cascades a subject deletion into its notifications.
	DeleteSubject(ctx context.Context, subject domain.SubjectRef) error
}

type service struct {
	notifications repository.NotificationRepository
	reactions     repository.ReactionRepository
	log           *zap.Logger
}

func NewService(
	notifications repository.NotificationRepository,
	reactions repository.ReactionRepository,
) Service {
	return &service{
		notifications: notifications,
		reactions:     reactions,
		log:           logger.L(),
	}
}

func (s *service) Write(ctx context.Context, recipient domain.Recipient, ev domain.Event) (*domain.Notification, error) {
	subject := ev.Subject()
	if subject.ID == uuid.Nil {
		return nil, fmt.Errorf("event kind %q carries no subject", ev.Kind)
	}

	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	// Org context rides only on organization-recipient rows. A user's copy
	// stays in their personal feed no matter where the event happened;
	// stamping it would strand the row outside every scope they can see.
	var orgID *uuid.UUID
	if recipient.Type == domain.RecipientOrganization {
		orgID = ev.OrgContext()
		if orgID == nil {
			id := recipient.ID
			orgID = &id
		}
	}

	n := &domain.Notification{
		ID:             uuid.New(),
		RecipientType:  recipient.Type,
		RecipientID:    recipient.ID,
		EventKind:      ev.Kind,
		SubjectType:    subject.Type,
		SubjectID:      subject.ID,
		OrganizationID: orgID,
		Day:            domain.UTCDay(occurred),
		Snapshot:       project(ev),
		CreatedAt:      occurred,
		UpdatedAt:      occurred,
	}

	out, err := s.notifications.Upsert(ctx, n, ev.Actor)
	if err != nil {
		return nil, fmt.Errorf("failed to write notification for %s %s: %w", recipient.Type, recipient.ID, err)
	}
	return out, nil
}

func (s *service) Retract(ctx context.Context, kind domain.EventKind, subject domain.SubjectRef, actorID uuid.UUID, category string) error {
	if kind == domain.KindReaction {
		if err := s.reactions.Remove(ctx, actorID, subject, category); err != nil {
			return fmt.Errorf("failed to remove reaction record: %w", err)
		}
		// Another reaction category by the same actor still justifies the
		// grouped row; only the last one takes the actor out.
		remaining, err := s.reactions.CountFor(ctx, actorID, subject)
		if err != nil {
			return fmt.Errorf("failed to count remaining reactions: %w", err)
		}
		if remaining > 0 {
			return nil
		}
	}

	if err := s.notifications.RemoveActor(ctx, subject, kind, actorID); err != nil {
		return fmt.Errorf("failed to retract %s by %s: %w", kind, actorID, err)
	}

	s.log.Debug("retracted notification actor",
		zap.String("kind", string(kind)),
		zap.String("subject_type", string(subject.Type)),
		zap.String("subject_id", subject.ID.String()),
		zap.String("actor_id", actorID.String()))
	return nil
}

func (s *service) DeleteSubject(ctx context.Context, subject domain.SubjectRef) error {
	return s.notifications.DeleteBySubject(ctx, subject)
}
