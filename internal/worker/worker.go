package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/catering/dashboard/internal/orchestrator"
	"github.com/catering/dashboard/internal/results"
)

// Runner is the part of the coordinator the worker drives.
type Runner interface {
	RunAll(ctx context.Context, verbose bool) (*results.RunResponse, error)
}

// Worker triggers a full run on a fixed interval.
type Worker struct {
	runner   Runner
	interval time.Duration
}

func NewWorker(runner Runner, interval time.Duration) *Worker {
	return &Worker{
		runner:   runner,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	log.Printf("Starting scheduled test runs every %s...", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping worker...")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	resp, err := w.runner.RunAll(ctx, false)
	switch {
	case errors.Is(err, orchestrator.ErrRunInProgress):
		log.Println("Worker: a run is already in progress, skipping this tick")
	case err != nil:
		log.Printf("Worker: scheduled run failed: %v", err)
	default:
		log.Printf("Worker: scheduled run %s finished: %d passed, %d failed", resp.RunID, resp.Summary.Passed, resp.Summary.Failed)
	}
}
