package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tkarrer/deckhand/pkg/update"
)

// maxJobs bounds the in-memory job registry; when full, the oldest finished
// job is evicted to make room.
const maxJobs = 64

// checkTimeout bounds how long one background update check may run.
const checkTimeout = 30 * time.Second

// jobRegistry holds asynchronous update-check jobs for polling.
// The browser starts a check with POST and polls its status by id, which is
// why results are kept after completion instead of being consumed.
type jobRegistry struct {
	mu    sync.RWMutex
	jobs  map[string]update.Status
	order []string
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]update.Status)}
}

// start launches an asynchronous update check and returns its job id.
func (r *jobRegistry) start(checker *update.Checker, refresh bool) string {
	id := uuid.NewString()
	r.put(id, update.Status{State: update.StateChecking, Progress: 0.1})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		result, err := checker.Check(ctx, refresh)
		if err != nil {
			r.put(id, update.Status{
				State:     update.StateFailed,
				Message:   err.Error(),
				Progress:  1,
				CheckedAt: time.Now().UTC(),
			})
			return
		}

		state := update.StateUpToDate
		if result.Available {
			state = update.StateAvailable
		}
		r.put(id, update.Status{
			State:     state,
			Progress:  1,
			Release:   result.Release,
			CheckedAt: result.CheckedAt,
		})
	}()

	return id
}

// get returns the status for a job id.
func (r *jobRegistry) get(id string) (update.Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.jobs[id]
	return status, ok
}

func (r *jobRegistry) put(id string, status update.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; !exists {
		r.order = append(r.order, id)
		if len(r.order) > maxJobs {
			r.evictLocked()
		}
	}
	r.jobs[id] = status
}

// evictLocked removes the oldest terminal job, or the oldest job outright
// when everything is still running. Caller holds the write lock.
func (r *jobRegistry) evictLocked() {
	for i, id := range r.order {
		if r.jobs[id].State.Terminal() {
			delete(r.jobs, id)
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
	delete(r.jobs, r.order[0])
	r.order = r.order[1:]
}
