package summarization

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/neilberkman/lectern/internal/core/models"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule sweeps pending sessions every five minutes
const DefaultSchedule = "@every 5m"

// PendingLister returns sessions that still have no summary, oldest first
type PendingLister interface {
	ListPendingSessions(limit int) ([]models.Session, error)
}

// Worker handles background summarization of sessions
type Worker struct {
	pending   PendingLister
	generator *Generator
	batchSize int

	running sync.Mutex
}

// NewWorker creates a new background summarization worker
func NewWorker(pending PendingLister, generator *Generator, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Worker{
		pending:   pending,
		generator: generator,
		batchSize: batchSize,
	}
}

// Start runs a sweep immediately and then on schedule until ctx is done
func (w *Worker) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { w.sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid summarize schedule %q: %w", schedule, err)
	}

	log.Printf("[summarize] worker started (schedule %s, batch %d)", schedule, w.batchSize)
	w.sweep(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Printf("[summarize] worker stopped")
	return nil
}

// sweep skips the run if the previous one is still going
func (w *Worker) sweep(ctx context.Context) {
	if !w.running.TryLock() {
		return
	}
	defer w.running.Unlock()

	done, failed, err := w.ProcessPending(ctx)
	if err != nil {
		log.Printf("[summarize] sweep failed: %v", err)
		return
	}
	if done > 0 || failed > 0 {
		log.Printf("[summarize] sweep: %d succeeded, %d failed", done, failed)
	}
}

// ProcessPending summarizes one batch of pending sessions
func (w *Worker) ProcessPending(ctx context.Context) (succeeded, failed int, err error) {
	sessions, err := w.pending.ListPendingSessions(w.batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("list pending sessions: %w", err)
	}

	for i, s := range sessions {
		if ctx.Err() != nil {
			return succeeded, failed, ctx.Err()
		}
		if _, err := w.generator.SummarizeSession(ctx, s.ClassID, s.SessionID); err != nil {
			log.Printf("[summarize] [%d/%d] %s/%s failed: %v", i+1, len(sessions), s.ClassID, s.SessionID, err)
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed, nil
}
