package jobs

import (
	"sort"
	"sync"
)

// Tracker holds the set of statement ids believed busy because an in-flight
// job affects them. Ids enter when a job is submitted or observed starting and
// leave on terminal outcome or when the statement disappears from the
// authoritative list.
type Tracker struct {
	mu   sync.RWMutex
	busy map[int64]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		busy: make(map[int64]struct{}),
	}
}

func (t *Tracker) MarkBusy(ids ...int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		t.busy[id] = struct{}{}
	}
}

func (t *Tracker) ClearBusy(ids ...int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		delete(t.busy, id)
	}
}

func (t *Tracker) IsBusy(id int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, exists := t.busy[id]
	return exists
}

// BusyIDs returns the tracked ids in ascending order.
func (t *Tracker) BusyIDs() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int64, 0, len(t.busy))
	for id := range t.busy {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.busy)
}
