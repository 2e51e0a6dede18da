package worker

import (
	"context"
	"time"

	"github.com/priyankaksolves/student-exam-app/internal/repository"
	"github.com/priyankaksolves/student-exam-app/internal/service"
	"github.com/rs/zerolog"
)

// ExpiryWorker force-completes attempts whose deadline passed without a
// submit. The Redis deadline set drives the hot path; a database sweep
// at startup catches anything that was in flight during a crash.
type ExpiryWorker struct {
	attempts *service.AttemptService
	store    *repository.StudentExamRepository
	queue    *ExpiryQueue
	log      zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(
	attempts *service.AttemptService,
	store *repository.StudentExamRepository,
	queue *ExpiryQueue,
	log zerolog.Logger,
) *ExpiryWorker {
	return &ExpiryWorker{
		attempts: attempts,
		store:    store,
		queue:    queue,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start runs the recovery sweep and then the polling loop. Call in a
// goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")
	w.sweep(ctx)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick expires every attempt whose deadline has passed.
func (w *ExpiryWorker) tick(ctx context.Context) {
	due, err := w.queue.Due(ctx, time.Now(), 100)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("read due deadlines failed")
		}
		return
	}

	for _, id := range due {
		if err := w.attempts.Expire(ctx, id); err != nil {
			w.log.Error().Err(err).Int64("assignment_id", id).Msg("expire failed")
			continue
		}
		// Expire is idempotent, so removing after the call is safe even
		// if we crash in between: the next tick retries harmlessly.
		if err := w.queue.Cancel(ctx, id); err != nil {
			w.log.Error().Err(err).Int64("assignment_id", id).Msg("dequeue deadline failed")
		}
	}
}

// sweep expires overdue attempts straight from the database. Covers
// deadlines lost with Redis state.
func (w *ExpiryWorker) sweep(ctx context.Context) {
	ids, err := w.store.ListOverdue(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("overdue sweep query failed")
		return
	}
	if len(ids) == 0 {
		return
	}

	w.log.Info().Int("count", len(ids)).Msg("expiring overdue attempts from sweep")
	for _, id := range ids {
		if err := w.attempts.Expire(ctx, id); err != nil {
			w.log.Error().Err(err).Int64("assignment_id", id).Msg("sweep expire failed")
			continue
		}
		_ = w.queue.Cancel(ctx, id)
	}
}
