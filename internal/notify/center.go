package notify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/foliolabs/foliosync/internal/models"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Handle identifies a notification for later updates or removal.
type Handle string

type Notification struct {
	Handle   Handle
	Message  string
	Severity Severity
	Key      models.JobType
}

// Center is the process-wide registry of user-visible progress messages.
// An entry counts as active only while it has info severity; updating it to
// success or error leaves it visible but no longer active, which is what lets
// the job registry and the center agree on whether a job type is running.
type Center struct {
	mu      sync.RWMutex
	entries []Notification
	subs    []chan struct{}
}

func NewCenter() *Center {
	return &Center{}
}

// Create adds a notification and returns its handle. The key is an optional
// job-type correlation key used by ClearByKey and IsActive.
func (c *Center) Create(message string, severity Severity, key models.JobType) Handle {
	handle := Handle(uuid.NewString())

	c.mu.Lock()
	c.entries = append(c.entries, Notification{
		Handle:   handle,
		Message:  message,
		Severity: severity,
		Key:      key,
	})
	c.mu.Unlock()

	c.notifySubscribers()
	return handle
}

// Update rewrites the message and severity of an existing entry. Updating an
// unknown handle is a no-op.
func (c *Center) Update(handle Handle, message string, severity Severity) {
	c.mu.Lock()
	for i := range c.entries {
		if c.entries[i].Handle == handle {
			c.entries[i].Message = message
			c.entries[i].Severity = severity
			break
		}
	}
	c.mu.Unlock()

	c.notifySubscribers()
}

// Clear removes the entry with the given handle.
func (c *Center) Clear(handle Handle) {
	c.mu.Lock()
	for i := range c.entries {
		if c.entries[i].Handle == handle {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.notifySubscribers()
}

// ClearByKey removes every entry carrying the given correlation key.
func (c *Center) ClearByKey(key models.JobType) {
	c.mu.Lock()
	kept := c.entries[:0]
	for _, entry := range c.entries {
		if entry.Key != key {
			kept = append(kept, entry)
		}
	}
	c.entries = kept
	c.mu.Unlock()

	c.notifySubscribers()
}

// IsActive reports whether a non-terminal entry exists for the given key.
func (c *Center) IsActive(key models.JobType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.entries {
		if entry.Key == key && entry.Severity == SeverityInfo {
			return true
		}
	}
	return false
}

// List returns a snapshot of all entries in creation order.
func (c *Center) List() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make([]Notification, len(c.entries))
	copy(snapshot, c.entries)
	return snapshot
}

// Subscribe returns a channel that receives a signal whenever the entry set
// changes. Signals are coalesced; a slow receiver misses intermediate states
// but always sees a final one.
func (c *Center) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	return ch
}

func (c *Center) notifySubscribers() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
