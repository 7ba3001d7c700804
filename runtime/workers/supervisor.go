package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"campus-chat/contract"
	"campus-chat/errors"
)

// Crash-looping workers back off exponentially from restartInterval up to
// maxBackoffFactor times it; a worker that stayed up past backoffResetAfter
// starts over from the base interval.
const (
	maxBackoffFactor  = 8
	backoffResetAfter = time.Minute
)

// Supervisor Own a context and a Cancel function
// Run each worker in a goroutine
// Check panics and errors
// Restart workers automatically
// Shutdown properly if parent context is canceled
// Wait for the end of all goroutines via WaitGroup
type Supervisor struct {
	Cancel          context.CancelFunc // To stop the context
	wg              *sync.WaitGroup    // Wait for the end of goroutines
	log             *slog.Logger
	restartInterval time.Duration
	workers         []contract.Worker
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

// Run Create a local cancellation trigger tied to the parent ctx
//
//	// If the parent (main) cancels, we Cancel.
//	// If WE call s.Cancel(), only our children Cancel.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs a worker under supervision.
// The worker is executed in a dedicated goroutine. If its Run method panics,
// the supervisor recovers, restarts the worker, and keeps the supervision
// loop alive. A failure in one worker must not stop the supervisor itself.
// This provides fault isolation and basic self-healing behavior.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	log := s.log.With("worker", contract.GetWorkerName(worker))

	go func() {
		defer s.wg.Done()

		backoff := s.restartInterval
		for {
			if ctx.Err() != nil {
				log.Info("Stopping worker")
				return
			}

			startedAt := time.Now()
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				// Execute the children goroutine
				// Restarted after a crash
				// Not restarting the entire goroutine
				return worker.Run(ctx)
			}()

			if err == nil {
				// Terminated properly, never restart !
				log.Info("Worker finished")
				return
			}

			if ctx.Err() != nil {
				log.Info("Worker stopped (context canceled)")
				return
			}

			// A worker that held up for a while is not crash-looping;
			// its next restart goes back to the base interval.
			if time.Since(startedAt) > backoffResetAfter {
				backoff = s.restartInterval
			}

			log.Warn("Worker crashed, restarting", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				// Context canceled: priority stop.
				// Exit immediately without waiting for the restart delay.
				return
			case <-time.After(backoff):
				// Delay elapsed and context is still active.
				// Proceed with the worker restart.
			}

			if backoff < maxBackoffFactor*s.restartInterval {
				backoff *= 2
			}
		}
	}()
}

// Stop Cancel all goroutines listening channel for Ctx.Done
// Supervisor will wait for all goroutines to finish
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
