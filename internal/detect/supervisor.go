package detect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/observability"
	"github.com/your-org/vigil/internal/store"
)

// Job is one footage item queued for detection.
type Job struct {
	FootageID  string
	InputPath  string
	OutputPath string
}

// Supervisor runs a bounded worker pool over queued jobs. Each worker spawns
// the detector, waits for it, and applies the terminal transition to the
// record store. It is the sole writer of a record's annotated artifact and
// status fields.
type Supervisor struct {
	runner         *Runner
	footage        *store.FootageStore
	identities     *store.IdentityStore
	metadataSuffix string
	workers        int

	// OnTransition, when set, is called after every terminal transition with
	// the event name and the updated record. Used to feed the WS hub.
	OnTransition func(event string, f *models.Footage)

	jobs chan Job
	quit chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	active map[string]struct{}
}

func NewSupervisor(runner *Runner, footage *store.FootageStore, identities *store.IdentityStore, metadataSuffix string, workers int) *Supervisor {
	if workers <= 0 {
		workers = 1
	}
	return &Supervisor{
		runner:         runner,
		footage:        footage,
		identities:     identities,
		metadataSuffix: metadataSuffix,
		workers:        workers,
		jobs:           make(chan Job, 256),
		quit:           make(chan struct{}),
		active:         make(map[string]struct{}),
	}
}

// Start launches the worker pool. Workers drain remaining queued jobs only
// until ctx is cancelled; in-flight detector processes are killed with it.
func (s *Supervisor) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		close(s.quit)
	}()
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-s.jobs:
					s.process(ctx, job)
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited after context cancellation.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Submit queues a job for processing. It never blocks the caller: the
// admission response must not wait on detector capacity. A submission that
// overflows the buffer is handed off to a goroutine that gives up once the
// pool shuts down.
func (s *Supervisor) Submit(job Job) {
	select {
	case s.jobs <- job:
	default:
		go func() {
			select {
			case s.jobs <- job:
			case <-s.quit:
			}
		}()
	}
}

// ActiveCount returns the number of detector processes currently running.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *Supervisor) process(ctx context.Context, job Job) {
	s.mu.Lock()
	s.active[job.FootageID] = struct{}{}
	s.mu.Unlock()
	observability.ActiveDetections.Inc()

	defer func() {
		s.mu.Lock()
		delete(s.active, job.FootageID)
		s.mu.Unlock()
		observability.ActiveDetections.Dec()
	}()

	slog.Info("starting detection", "footage_id", job.FootageID, "input", job.InputPath)
	start := time.Now()

	err := s.runner.Run(ctx, job.FootageID, job.InputPath, job.OutputPath)
	observability.DetectionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.DetectionsFinished.WithLabelValues("failed").Inc()
		slog.Error("detection failed", "footage_id", job.FootageID, "error", err)

		updated, storeErr := s.footage.MarkFailed(job.FootageID, err.Error())
		s.finish(job.FootageID, "footage_failed", updated, storeErr)
		return
	}

	persons := loadPersons(MetadataPath(job.OutputPath, s.metadataSuffix))
	persons = crossReference(persons, s.identities)

	observability.DetectionsFinished.WithLabelValues("completed").Inc()
	slog.Info("detection completed",
		"footage_id", job.FootageID,
		"duration", time.Since(start).String(),
		"persons", len(persons),
	)

	updated, storeErr := s.footage.MarkCompleted(job.FootageID, persons)
	s.finish(job.FootageID, "footage_completed", updated, storeErr)
}

func (s *Supervisor) finish(footageID, event string, updated *models.Footage, storeErr error) {
	if storeErr != nil {
		slog.Error("apply terminal transition", "footage_id", footageID, "error", storeErr)
		return
	}
	if updated == nil {
		// Record deleted while the detector was running.
		slog.Info("footage deleted during processing, dropping result", "footage_id", footageID)
		return
	}
	if s.OnTransition != nil {
		s.OnTransition(event, updated)
	}
}
