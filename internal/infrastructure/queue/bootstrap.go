// Package queue runs the one-shot jobs scheduled at process start.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylelab/platform/internal/api/metrics"
)

// Job is a unit of startup work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Handle tracks a bootstrap run.
type Handle struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	failed []string
}

// Wait blocks until every job has finished.
func (h *Handle) Wait() {
	h.wg.Wait()
}

// Failed returns the names of the jobs that returned an error. Only
// meaningful after Wait.
func (h *Handle) Failed() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.failed...)
}

// Bootstrap runs jobs once, in order, on a background goroutine. A failing
// job is logged and counted and does not stop the remaining jobs or the
// process. When suppress is set nothing runs.
func Bootstrap(ctx context.Context, suppress bool, log zerolog.Logger, jobs ...Job) *Handle {
	h := &Handle{}
	if suppress {
		log.Info().Int("jobs", len(jobs)).Msg("queue suppressed, skipping startup jobs")
		return h
	}
	if len(jobs) == 0 {
		return h
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for _, job := range jobs {
			h.run(ctx, log, job)
		}
	}()
	return h
}

func (h *Handle) run(ctx context.Context, log zerolog.Logger, job Job) {
	name := job.Name()
	start := time.Now()
	defer func() {
		metrics.QueueJobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("job", name).Msg("startup job panicked")
			h.markFailed(name)
		}
	}()

	if err := job.Run(ctx); err != nil {
		log.Error().Err(err).Str("job", name).Msg("startup job failed")
		h.markFailed(name)
		return
	}
	metrics.QueueJobsTotal.WithLabelValues(name, "ok").Inc()
	log.Info().Str("job", name).Dur("took", time.Since(start)).Msg("startup job finished")
}

func (h *Handle) markFailed(name string) {
	metrics.QueueJobsTotal.WithLabelValues(name, "failed").Inc()
	h.mu.Lock()
	h.failed = append(h.failed, name)
	h.mu.Unlock()
}
