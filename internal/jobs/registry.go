package jobs

import (
	"sync"

	"github.com/foliolabs/foliosync/internal/models"
)

// Registry tracks which job types currently have a live poller. It is the
// system's only mutual-exclusion guarantee: one poller per job type, nothing
// keyed by entity id.
type Registry struct {
	mu     sync.Mutex
	active map[models.JobType]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		active: make(map[models.JobType]struct{}),
	}
}

// TryAcquire marks the job type as active and returns true, or returns false
// if a job of that type is already being tracked. A false return is a normal
// outcome, not an error.
func (r *Registry) TryAcquire(jobType models.JobType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.active[jobType]; exists {
		return false
	}
	r.active[jobType] = struct{}{}
	return true
}

// Release frees the slot for the job type. Releasing an untracked type is a
// no-op.
func (r *Registry) Release(jobType models.JobType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active, jobType)
}

// Active reports whether a job of the given type is currently tracked.
func (r *Registry) Active(jobType models.JobType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.active[jobType]
	return exists
}

// ActiveCount returns the number of tracked job types.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.active)
}
