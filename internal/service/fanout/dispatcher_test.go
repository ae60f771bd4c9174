package fanout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"feedpulse/internal/domain"
	"feedpulse/internal/mocks"
	"feedpulse/internal/service/fanout"
	"feedpulse/internal/service/notify"
)

func commentEvent(actor domain.Actor, articleID uuid.UUID, at time.Time) domain.Event {
	return domain.Event{
		Kind:       domain.KindComment,
		Actor:      actor,
		OccurredAt: at,
		Comment: &domain.CommentPayload{
			CommentID:   uuid.New(),
			Commentable: domain.SubjectRef{Type: domain.SubjectArticle, ID: articleID},
			Title:       "Keyset pagination in practice",
			Path:        "/articles/keyset-pagination",
		},
	}
}

func TestDispatch_FansOutToResolvedRecipients(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	resolver := new(mocks.ResolverService)
	writer := notify.NewService(repo, new(mocks.ReactionRepository))

	recipients := []domain.Recipient{
		domain.UserRecipient(uuid.New()),
		domain.UserRecipient(uuid.New()),
		domain.UserRecipient(uuid.New()),
	}
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(recipients, nil).Once()

	d := fanout.NewDispatcher(resolver, writer, new(mocks.ReactionRepository), nil, fanout.Options{Workers: 2})
	defer d.Stop(context.Background())

	d.Dispatch(commentEvent(domain.Actor{ID: uuid.New(), Name: "Alice"}, uuid.New(), time.Now().UTC()))

	assert.Eventually(t, func() bool {
		return len(repo.All()) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

// Two comments by different users on the same article, same UTC day, must end
// up in one grouped row per subscriber; the next day starts a fresh row.
func TestDispatch_SameDayEventsMergePerRecipient(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	resolver := new(mocks.ResolverService)
	writer := notify.NewService(repo, new(mocks.ReactionRepository))

	subscriber := domain.UserRecipient(uuid.New())
	resolver.On("Resolve", mock.Anything, mock.Anything).
		Return([]domain.Recipient{subscriber}, nil)

	d := fanout.NewDispatcher(resolver, writer, new(mocks.ReactionRepository), nil, fanout.Options{Workers: 1})
	defer d.Stop(context.Background())

	articleID := uuid.New()
	bob := domain.Actor{ID: uuid.New(), Name: "Bob"}
	carol := domain.Actor{ID: uuid.New(), Name: "Carol"}
	dave := domain.Actor{ID: uuid.New(), Name: "Dave"}

	dayOne := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	d.Dispatch(commentEvent(bob, articleID, dayOne))
	d.Dispatch(commentEvent(carol, articleID, dayOne.Add(2*time.Hour)))

	assert.Eventually(t, func() bool {
		rows := repo.All()
		return len(rows) == 1 && len(rows[0].ActorIDs) == 2
	}, 2*time.Second, 10*time.Millisecond)

	rows := repo.All()
	assert.Equal(t, domain.UUIDList{bob.ID, carol.ID}, rows[0].ActorIDs)

	dayTwo := dayOne.Add(24 * time.Hour)
	d.Dispatch(commentEvent(dave, articleID, dayTwo))

	assert.Eventually(t, func() bool {
		return len(repo.All()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	for _, row := range repo.All() {
		if row.Day.Equal(domain.UTCDay(dayTwo)) {
			assert.Equal(t, domain.UUIDList{dave.ID}, row.ActorIDs)
		} else {
			assert.Equal(t, domain.UUIDList{bob.ID, carol.ID}, row.ActorIDs)
		}
	}
}

func TestDispatch_ResolutionFailureWritesNothing(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	resolver := new(mocks.ResolverService)
	writer := notify.NewService(repo, new(mocks.ReactionRepository))

	resolver.On("Resolve", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	d := fanout.NewDispatcher(resolver, writer, new(mocks.ReactionRepository), nil, fanout.Options{Workers: 1})

	d.Dispatch(commentEvent(domain.Actor{ID: uuid.New(), Name: "Alice"}, uuid.New(), time.Now().UTC()))

	assert.NoError(t, d.Stop(context.Background()))
	assert.Empty(t, repo.All())
}

func TestDispatch_ReactionRecordsSideEntry(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	resolver := new(mocks.ResolverService)
	reactions := new(mocks.ReactionRepository)
	writer := notify.NewService(repo, reactions)

	actor := domain.Actor{ID: uuid.New(), Name: "Alice"}
	articleID := uuid.New()
	owner := domain.UserRecipient(uuid.New())

	recorded := make(chan struct{}, 1)
	reactions.On("Record", mock.Anything, mock.MatchedBy(func(r *domain.Reaction) bool {
		return r.UserID == actor.ID && r.SubjectID == articleID && r.Category == "like"
	})).Run(func(mock.Arguments) { recorded <- struct{}{} }).Return(nil).Once()
	resolver.On("Resolve", mock.Anything, mock.Anything).
		Return([]domain.Recipient{owner}, nil).Once()

	d := fanout.NewDispatcher(resolver, writer, reactions, nil, fanout.Options{Workers: 1})
	defer d.Stop(context.Background())

	d.Dispatch(domain.Event{
		Kind:       domain.KindReaction,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Reaction: &domain.ReactionPayload{
			Category:    "like",
			Reactable:   domain.SubjectRef{Type: domain.SubjectArticle, ID: articleID},
			OwnerUserID: owner.ID,
		},
	})

	select {
	case <-recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("reaction was never recorded")
	}
	assert.Eventually(t, func() bool {
		return len(repo.All()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatch_RetriesTransientWriteFailures(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	resolver := new(mocks.ResolverService)
	writer := notify.NewService(repo, new(mocks.ReactionRepository))

	repo.SetFailWrites(assert.AnError)
	resolver.On("Resolve", mock.Anything, mock.Anything).
		Return([]domain.Recipient{domain.UserRecipient(uuid.New())}, nil).Once()

	d := fanout.NewDispatcher(resolver, writer, new(mocks.ReactionRepository), nil, fanout.Options{
		Workers:      1,
		MaxRetries:   5,
		RetryBackoff: 5 * time.Millisecond,
	})
	defer d.Stop(context.Background())

	d.Dispatch(commentEvent(domain.Actor{ID: uuid.New(), Name: "Alice"}, uuid.New(), time.Now().UTC()))

	// Storage recovers while the dispatcher is still backing off.
	time.Sleep(8 * time.Millisecond)
	repo.SetFailWrites(nil)

	assert.Eventually(t, func() bool {
		return len(repo.All()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStop_DrainsQueuedEvents(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	resolver := new(mocks.ResolverService)
	writer := notify.NewService(repo, new(mocks.ReactionRepository))

	resolver.On("Resolve", mock.Anything, mock.Anything).
		Return([]domain.Recipient{domain.UserRecipient(uuid.New())}, nil)

	d := fanout.NewDispatcher(resolver, writer, new(mocks.ReactionRepository), nil, fanout.Options{Workers: 1, QueueSize: 64})

	articleID := uuid.New()
	for i := 0; i < 10; i++ {
		d.Dispatch(commentEvent(domain.Actor{ID: uuid.New(), Name: "Alice"}, articleID, time.Now().UTC()))
	}

	assert.NoError(t, d.Stop(context.Background()))
	// Ten distinct actors on one article, one subscriber, one day: one row
	// carrying all ten.
	assert.Eventually(t, func() bool {
		rows := repo.All()
		return len(rows) == 1 && len(rows[0].ActorIDs) == 10
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatch_ConcurrentWithStop(t *testing.T) {
	repo := mocks.NewMemoryNotificationRepository()
	resolver := new(mocks.ResolverService)
	writer := notify.NewService(repo, new(mocks.ReactionRepository))

	resolver.On("Resolve", mock.Anything, mock.Anything).
		Return([]domain.Recipient{}, nil)

	d := fanout.NewDispatcher(resolver, writer, new(mocks.ReactionRepository), nil, fanout.Options{Workers: 2, QueueSize: 4})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.Dispatch(commentEvent(domain.Actor{ID: uuid.New(), Name: "Alice"}, uuid.New(), time.Now().UTC()))
			}
		}()
	}

	// Stop while producers are still dispatching; late dispatches fall back
	// to inline processing instead of panicking on a closed queue.
	assert.NoError(t, d.Stop(context.Background()))
	wg.Wait()
	assert.NoError(t, d.Stop(context.Background()))
}

func TestRetract_DelegatesToWriter(t *testing.T) {
	writer := new(mocks.NotifyService)
	resolver := new(mocks.ResolverService)

	subject := domain.SubjectRef{Type: domain.SubjectArticle, ID: uuid.New()}
	actorID := uuid.New()
	writer.On("Retract", mock.Anything, domain.KindReaction, subject, actorID, "like").Return(nil).Once()

	d := fanout.NewDispatcher(resolver, writer, new(mocks.ReactionRepository), nil, fanout.Options{Workers: 1})
	defer d.Stop(context.Background())

	err := d.Retract(context.Background(), domain.KindReaction, subject, actorID, "like")
	assert.NoError(t, err)
	writer.AssertExpectations(t)
}
