// Package registry guarantees at-most-one active runner per task:
// registering a second runner for the same task_id cancels the first.
package registry

import (
	"context"
	"sync"
)

// Registry maps task_id to the cancel function of its active runner.
type Registry struct {
	mu      sync.Mutex
	handles map[string]context.CancelFunc
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{handles: make(map[string]context.CancelFunc)}
}

// Register stores cancel as the active handle for taskID, first invoking
// and discarding any prior handle for the same key. The caller's cancel
// must unblock every in-progress suspension in the prior runner; Register
// only guarantees it is called.
func (r *Registry) Register(taskID string, cancel context.CancelFunc) {
	r.mu.Lock()
	prev, had := r.handles[taskID]
	r.handles[taskID] = cancel
	r.mu.Unlock()

	if had {
		prev()
	}
}

// Clear removes whatever handle is stored for taskID, including one stored
// by a newer runner; it does not check which runner registered it. It does
// not invoke cancel; the runner calls Clear itself on normal exit, after
// which there is nothing left to cancel.
func (r *Registry) Clear(taskID string) {
	r.mu.Lock()
	delete(r.handles, taskID)
	r.mu.Unlock()
}

// Cancel cancels and clears the handle for taskID, if any is registered.
// It is idempotent: calling it twice is a no-op the second time.
func (r *Registry) Cancel(taskID string) {
	r.mu.Lock()
	cancel, ok := r.handles[taskID]
	if ok {
		delete(r.handles, taskID)
	}
	r.mu.Unlock()

	if ok {
		cancel()
	}
}

// Active reports whether taskID currently has a registered handle.
func (r *Registry) Active(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[taskID]
	return ok
}
