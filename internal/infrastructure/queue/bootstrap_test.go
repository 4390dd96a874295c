package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type stubJob struct {
	name  string
	err   error
	panic bool

	mu   sync.Mutex
	runs int
	log  *[]string
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(context.Context) error {
	j.mu.Lock()
	j.runs++
	if j.log != nil {
		*j.log = append(*j.log, j.name)
	}
	j.mu.Unlock()
	if j.panic {
		panic("boom")
	}
	return j.err
}

func TestBootstrap_RunsJobsInOrder(t *testing.T) {
	var order []string
	first := &stubJob{name: "first", log: &order}
	second := &stubJob{name: "second", log: &order}

	h := Bootstrap(context.Background(), false, zerolog.Nop(), first, second)
	h.Wait()

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected run order: %v", order)
	}
	if len(h.Failed()) != 0 {
		t.Fatalf("expected no failures, got %v", h.Failed())
	}
}

func TestBootstrap_FailuresAreNotFatal(t *testing.T) {
	failing := &stubJob{name: "failing", err: errors.New("mongo down")}
	panicking := &stubJob{name: "panicking", panic: true}
	after := &stubJob{name: "after"}

	h := Bootstrap(context.Background(), false, zerolog.Nop(), failing, panicking, after)
	h.Wait()

	if after.runs != 1 {
		t.Fatalf("expected later jobs to keep running")
	}
	failed := h.Failed()
	if len(failed) != 2 || failed[0] != "failing" || failed[1] != "panicking" {
		t.Fatalf("unexpected failures: %v", failed)
	}
}

func TestBootstrap_Suppressed(t *testing.T) {
	job := &stubJob{name: "site_settings"}

	h := Bootstrap(context.Background(), true, zerolog.Nop(), job)
	h.Wait()

	if job.runs != 0 {
		t.Fatalf("suppressed bootstrap must not run jobs")
	}
}
