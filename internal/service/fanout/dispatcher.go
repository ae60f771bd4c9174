package fanout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"feedpulse/internal/domain"
	"feedpulse/internal/pkg/logger"
	"feedpulse/internal/repository"
	"feedpulse/internal/service/notify"
	"feedpulse/internal/service/resolver"
)

// DeadLetterKey is the Redis list fed with fan-outs that exhausted their
// retries; an operator drains it out of band.
const DeadLetterKey = "fanout:deadletter"

// Dispatcher orchestrates fan-out: resolve recipients, write one grouped
// notification per recipient. Dispatch is fire-and-forget for the producer;
// the natural-key upsert makes redelivery of the same event harmless.
type Dispatcher interface {
	Dispatch(ev domain.Event)
	Retract(ctx context.Context, kind domain.EventKind, subject domain.SubjectRef, actorID uuid.UUID, category string) error
	Stop(ctx context.Context) error
}

type Options struct {
	Workers              int
	QueueSize            int
	RecipientConcurrency int
	MaxRetries           int
	RetryBackoff         time.Duration
}

func (o *Options) setDefaults() {
	if o.Workers < 1 {
		o.Workers = 4
	}
	if o.QueueSize < 1 {
		o.QueueSize = 1024
	}
	if o.RecipientConcurrency < 1 {
		o.RecipientConcurrency = 16
	}
	if o.MaxRetries < 1 {
		o.MaxRetries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 100 * time.Millisecond
	}
}

type dispatcher struct {
	queue     chan domain.Event
	resolver  resolver.Service
	writer    notify.Service
	reactions repository.ReactionRepository
	rdb       *redis.Client
	log       *zap.Logger
	opts      Options

	wg sync.WaitGroup

	// mu orders queue sends against Stop's close; a send never races the
	// close because Stop takes the write lock to flip stopped.
	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(
	res resolver.Service,
	writer notify.Service,
	reactions repository.ReactionRepository,
	rdb *redis.Client,
	opts Options,
) Dispatcher {
	opts.setDefaults()
	d := &dispatcher{
		queue:     make(chan domain.Event, opts.QueueSize),
		resolver:  res,
		writer:    writer,
		reactions: reactions,
		rdb:       rdb,
		log:       logger.L(),
		opts:      opts,
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.process(context.Background(), ev)
	}
}

func (d *dispatcher) Dispatch(ev domain.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		go d.process(context.Background(), ev)
		return
	}
	select {
	case d.queue <- ev:
		d.mu.RUnlock()
	default:
		d.mu.RUnlock()
		// Saturated queue: run the fan-out anyway rather than dropping or
		// blocking the producer.
		d.log.Warn("fan-out queue saturated, processing inline", zap.String("kind", string(ev.Kind)))
		go d.process(context.Background(), ev)
	}
}

// Stop closes the queue and drains in-flight work, bounded by ctx.
func (d *dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *dispatcher) Retract(ctx context.Context, kind domain.EventKind, subject domain.SubjectRef, actorID uuid.UUID, category string) error {
	return d.writer.Retract(ctx, kind, subject, actorID, category)
}

func (d *dispatcher) process(ctx context.Context, ev domain.Event) {
	if ev.Kind == domain.KindReaction && ev.Reaction != nil {
		err := d.reactions.Record(ctx, &domain.Reaction{
			UserID:      ev.Actor.ID,
			SubjectType: ev.Reaction.Reactable.Type,
			SubjectID:   ev.Reaction.Reactable.ID,
			Category:    ev.Reaction.Category,
		})
		if err != nil {
			d.log.Error("failed to record reaction", zap.Error(err))
		}
	}

	recipients, err := d.resolver.Resolve(ctx, ev)
	if err != nil {
		d.log.Error("recipient resolution failed",
			zap.String("kind", string(ev.Kind)), zap.Error(err))
		d.deadLetter(ctx, ev, nil, err)
		return
	}
	if len(recipients) == 0 {
		return
	}

	// Fan-out across recipients has no ordering dependency; bound the
	// parallelism so a large audience cannot overwhelm storage.
	sem := make(chan struct{}, d.opts.RecipientConcurrency)
	var wg sync.WaitGroup
	for _, recipient := range recipients {
		sem <- struct{}{}
		wg.Add(1)
		go func(r domain.Recipient) {
			defer wg.Done()
			defer func() { <-sem }()
			d.writeWithRetry(ctx, r, ev)
		}(recipient)
	}
	wg.Wait()
}

func (d *dispatcher) writeWithRetry(ctx context.Context, recipient domain.Recipient, ev domain.Event) {
	var lastErr error
	for attempt := 0; attempt < d.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.opts.RetryBackoff << (attempt - 1))
		}
		if _, lastErr = d.writer.Write(ctx, recipient, ev); lastErr == nil {
			return
		}
	}

	d.log.Error("fan-out write exhausted retries",
		zap.String("kind", string(ev.Kind)),
		zap.String("recipient_type", string(recipient.Type)),
		zap.String("recipient_id", recipient.ID.String()),
		zap.Error(lastErr))
	d.deadLetter(ctx, ev, &recipient, lastErr)
}

type deadLetterEntry struct {
	Kind          domain.EventKind  `json:"kind"`
	ActorID       uuid.UUID         `json:"actor_id"`
	Subject       domain.SubjectRef `json:"subject"`
	RecipientType string            `json:"recipient_type,omitempty"`
	RecipientID   string            `json:"recipient_id,omitempty"`
	Error         string            `json:"error"`
	FailedAt      time.Time         `json:"failed_at"`
}

func (d *dispatcher) deadLetter(ctx context.Context, ev domain.Event, recipient *domain.Recipient, cause error) {
	if d.rdb == nil {
		return
	}
	entry := deadLetterEntry{
		Kind:     ev.Kind,
		ActorID:  ev.Actor.ID,
		Subject:  ev.Subject(),
		Error:    cause.Error(),
		FailedAt: time.Now().UTC(),
	}
	if recipient != nil {
		entry.RecipientType = string(recipient.Type)
		entry.RecipientID = recipient.ID.String()
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := d.rdb.LPush(ctx, DeadLetterKey, payload).Err(); err != nil {
		d.log.Error("failed to enqueue dead letter", zap.Error(err))
	}
}
