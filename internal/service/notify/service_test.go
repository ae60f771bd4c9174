package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"feedpulse/internal/domain"
	"feedpulse/internal/mocks"
	"feedpulse/internal/service/notify"
)

func reactionEvent(actor domain.Actor, articleID, ownerID uuid.UUID, at time.Time) domain.Event {
	return domain.Event{
		Kind:       domain.KindReaction,
		Actor:      actor,
		OccurredAt: at,
		Reaction: &domain.ReactionPayload{
			Category:    "like",
			Reactable:   domain.SubjectRef{Type: domain.SubjectArticle, ID: articleID},
			Title:       "Keyset pagination in practice",
			Path:        "/articles/keyset-pagination",
			OwnerUserID: ownerID,
		},
	}
}

func TestService_Write_MergesSameDay(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	svc := notify.NewService(repo, new(mocks.ReactionRepository))

	ctx := context.Background()
	articleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())
	day := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	alice := domain.Actor{ID: uuid.New(), Name: "Alice"}
	bob := domain.Actor{ID: uuid.New(), Name: "Bob"}

	first, err := svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, day))
	assert.NoError(t, err)
	second, err := svc.Write(ctx, owner, reactionEvent(bob, articleID, owner.ID, day.Add(3*time.Hour)))
	assert.NoError(t, err)

	assert.Len(t, repo.All(), 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.UUIDList{alice.ID, bob.ID}, second.ActorIDs)
	assert.Equal(t, "Alice", second.ActorNames[alice.ID])
	assert.Equal(t, "Bob", second.ActorNames[bob.ID])
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestService_Write_DuplicateActorDoesNotInflate(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	svc := notify.NewService(repo, new(mocks.ReactionRepository))

	ctx := context.Background()
	articleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())
	alice := domain.Actor{ID: uuid.New(), Name: "Alice"}
	day := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, day.Add(time.Duration(i)*time.Minute)))
		assert.NoError(t, err)
	}

	rows := repo.All()
	assert.Len(t, rows, 1)
	assert.Equal(t, domain.UUIDList{alice.ID}, rows[0].ActorIDs)
}

func TestService_Write_NewDayStartsNewRow(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	svc := notify.NewService(repo, new(mocks.ReactionRepository))

	ctx := context.Background()
	articleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())
	alice := domain.Actor{ID: uuid.New(), Name: "Alice"}

	lateNight := time.Date(2026, 8, 27, 23, 50, 0, 0, time.UTC)
	nextMorning := time.Date(2026, 8, 28, 0, 10, 0, 0, time.UTC)

	_, err := svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, lateNight))
	assert.NoError(t, err)
	_, err = svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, nextMorning))
	assert.NoError(t, err)

	rows := repo.All()
	assert.Len(t, rows, 2)
	assert.NotEqual(t, rows[0].Day, rows[1].Day)
}

func TestService_Write_SnapshotRefreshedOnMerge(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	svc := notify.NewService(repo, new(mocks.ReactionRepository))

	ctx := context.Background()
	articleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())
	day := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	first := reactionEvent(domain.Actor{ID: uuid.New(), Name: "Alice"}, articleID, owner.ID, day)
	_, err := svc.Write(ctx, owner, first)
	assert.NoError(t, err)

	renamed := reactionEvent(domain.Actor{ID: uuid.New(), Name: "Bob"}, articleID, owner.ID, day.Add(time.Hour))
	renamed.Reaction.Title = "Keyset pagination in practice (updated)"
	out, err := svc.Write(ctx, owner, renamed)
	assert.NoError(t, err)

	assert.Equal(t, "Keyset pagination in practice (updated)", out.Snapshot.Title)
}

func TestService_Write_MissingSubjectFails(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	svc := notify.NewService(repo, new(mocks.ReactionRepository))

	_, err := svc.Write(context.Background(), domain.UserRecipient(uuid.New()), domain.Event{Kind: domain.KindReaction})
	assert.Error(t, err)
	assert.Empty(t, repo.All())
}

func TestService_Write_ReplyPhrasingFollowsDepth(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	svc := notify.NewService(repo, new(mocks.ReactionRepository))

	ctx := context.Background()
	subscriber := domain.UserRecipient(uuid.New())

	comment := func(depth int) domain.Event {
		return domain.Event{
			Kind:       domain.KindComment,
			Actor:      domain.Actor{ID: uuid.New(), Name: "Alice"},
			OccurredAt: time.Now().UTC(),
			Comment: &domain.CommentPayload{
				CommentID:   uuid.New(),
				Depth:       depth,
				Commentable: domain.SubjectRef{Type: domain.SubjectArticle, ID: uuid.New()},
				Title:       "Keyset pagination in practice",
			},
		}
	}

	topLevel, err := svc.Write(ctx, subscriber, comment(0))
	assert.NoError(t, err)
	assert.False(t, topLevel.Snapshot.Reply)

	nested, err := svc.Write(ctx, subscriber, comment(2))
	assert.NoError(t, err)
	assert.True(t, nested.Snapshot.Reply)
}

func TestService_Write_OrgContextStampsOnlyOrgRecipients(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	svc := notify.NewService(repo, new(mocks.ReactionRepository))

	ctx := context.Background()
	orgID := uuid.New()
	subscriber := domain.UserRecipient(uuid.New())

	ev := domain.Event{
		Kind:       domain.KindComment,
		Actor:      domain.Actor{ID: uuid.New(), Name: "Alice"},
		OccurredAt: time.Now().UTC(),
		Comment: &domain.CommentPayload{
			CommentID:   uuid.New(),
			Commentable: domain.SubjectRef{Type: domain.SubjectArticle, ID: uuid.New()},
			Title:       "Shipping under the org banner",
			OrgID:       &orgID,
		},
	}

	// The subscriber's copy belongs to their personal feed even though the
	// thread is org-owned.
	userRow, err := svc.Write(ctx, subscriber, ev)
	assert.NoError(t, err)
	assert.Nil(t, userRow.OrganizationID)

	orgRow, err := svc.Write(ctx, domain.OrgRecipient(orgID), ev)
	assert.NoError(t, err)
	assert.NotNil(t, orgRow.OrganizationID)
	assert.Equal(t, orgID, *orgRow.OrganizationID)
}

func TestService_Retract_SoleActorDeletesRow(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	reactions := new(mocks.ReactionRepository)
	svc := notify.NewService(repo, reactions)

	ctx := context.Background()
	articleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())
	alice := domain.Actor{ID: uuid.New(), Name: "Alice"}
	subject := domain.SubjectRef{Type: domain.SubjectArticle, ID: articleID}

	_, err := svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, time.Now().UTC()))
	assert.NoError(t, err)

	reactions.On("Remove", ctx, alice.ID, subject, "like").Return(nil).Once()
	reactions.On("CountFor", ctx, alice.ID, subject).Return(int64(0), nil).Once()

	err = svc.Retract(ctx, domain.KindReaction, subject, alice.ID, "like")
	assert.NoError(t, err)
	assert.Empty(t, repo.All())
	reactions.AssertExpectations(t)
}

func TestService_Retract_RemainingActorsKeepRow(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	reactions := new(mocks.ReactionRepository)
	svc := notify.NewService(repo, reactions)

	ctx := context.Background()
	articleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())
	alice := domain.Actor{ID: uuid.New(), Name: "Alice"}
	bob := domain.Actor{ID: uuid.New(), Name: "Bob"}
	subject := domain.SubjectRef{Type: domain.SubjectArticle, ID: articleID}
	day := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	_, err := svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, day))
	assert.NoError(t, err)
	merged, err := svc.Write(ctx, owner, reactionEvent(bob, articleID, owner.ID, day.Add(time.Minute)))
	assert.NoError(t, err)

	reactions.On("Remove", ctx, alice.ID, subject, "like").Return(nil).Once()
	reactions.On("CountFor", ctx, alice.ID, subject).Return(int64(0), nil).Once()

	err = svc.Retract(ctx, domain.KindReaction, subject, alice.ID, "like")
	assert.NoError(t, err)

	rows := repo.All()
	assert.Len(t, rows, 1)
	assert.Equal(t, domain.UUIDList{bob.ID}, rows[0].ActorIDs)
	_, stillNamed := rows[0].ActorNames[alice.ID]
	assert.False(t, stillNamed)
	// Retraction is not activity: the row keeps its place in the feed and
	// its read state.
	assert.True(t, rows[0].UpdatedAt.Equal(merged.UpdatedAt))
}

func TestService_Retract_OtherReactionCategoryKeepsActor(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	reactions := new(mocks.ReactionRepository)
	svc := notify.NewService(repo, reactions)

	ctx := context.Background()
	articleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())
	alice := domain.Actor{ID: uuid.New(), Name: "Alice"}
	subject := domain.SubjectRef{Type: domain.SubjectArticle, ID: articleID}

	_, err := svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, time.Now().UTC()))
	assert.NoError(t, err)

	// Alice removed her "like" but still has a "unicorn" on the article.
	reactions.On("Remove", ctx, alice.ID, subject, "like").Return(nil).Once()
	reactions.On("CountFor", ctx, alice.ID, subject).Return(int64(1), nil).Once()

	err = svc.Retract(ctx, domain.KindReaction, subject, alice.ID, "like")
	assert.NoError(t, err)

	rows := repo.All()
	assert.Len(t, rows, 1)
	assert.True(t, rows[0].ActorIDs.Contains(alice.ID))
	reactions.AssertExpectations(t)
}

func TestService_Retract_SpansDaysAndRecipients(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	reactions := new(mocks.ReactionRepository)
	svc := notify.NewService(repo, reactions)

	ctx := context.Background()
	articleID := uuid.New()
	alice := domain.Actor{ID: uuid.New(), Name: "Alice"}
	subject := domain.SubjectRef{Type: domain.SubjectArticle, ID: articleID}

	dayOne := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	dayTwo := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	owner := domain.UserRecipient(uuid.New())

	_, err := svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, dayOne))
	assert.NoError(t, err)
	_, err = svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, dayTwo))
	assert.NoError(t, err)
	assert.Len(t, repo.All(), 2)

	reactions.On("Remove", ctx, alice.ID, subject, "like").Return(nil).Once()
	reactions.On("CountFor", ctx, alice.ID, subject).Return(int64(0), nil).Once()

	err = svc.Retract(ctx, domain.KindReaction, subject, alice.ID, "like")
	assert.NoError(t, err)
	assert.Empty(t, repo.All())
}

func TestService_DeleteSubject(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	svc := notify.NewService(repo, new(mocks.ReactionRepository))

	ctx := context.Background()
	articleID := uuid.New()
	otherArticleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())
	alice := domain.Actor{ID: uuid.New(), Name: "Alice"}
	now := time.Now().UTC()

	_, err := svc.Write(ctx, owner, reactionEvent(alice, articleID, owner.ID, now))
	assert.NoError(t, err)
	_, err = svc.Write(ctx, owner, reactionEvent(alice, otherArticleID, owner.ID, now))
	assert.NoError(t, err)

	err = svc.DeleteSubject(ctx, domain.SubjectRef{Type: domain.SubjectArticle, ID: articleID})
	assert.NoError(t, err)

	rows := repo.All()
	assert.Len(t, rows, 1)
	assert.Equal(t, otherArticleID, rows[0].SubjectID)
}
