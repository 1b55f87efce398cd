package api

import (
	"context"
	"sync"

	"github.com/tactilab/dotplate/pkg/observability"
)

// jobTable tracks the in-flight mesh build per client so a newer request
// can cancel an older one. Spec builds are cheap and never tracked.
type jobTable struct {
	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	cancel context.CancelFunc
}

func newJobTable() *jobTable {
	return &jobTable{jobs: make(map[string]*job)}
}

// begin registers a build for the client, canceling any build the same
// client already has in flight. The returned release must be called when
// the build finishes; it removes the entry only if it still owns it.
func (t *jobTable) begin(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel}

	t.mu.Lock()
	if prev, ok := t.jobs[key]; ok {
		prev.cancel()
		observability.API().OnJobSuperseded(ctx, key)
	}
	t.jobs[key] = j
	t.mu.Unlock()

	release := func() {
		t.mu.Lock()
		if t.jobs[key] == j {
			delete(t.jobs, key)
		}
		t.mu.Unlock()
		cancel()
	}
	return ctx, release
}
