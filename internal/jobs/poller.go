package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/foliolabs/foliosync/internal/client"
	"github.com/foliolabs/foliosync/internal/logger"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

// ErrAlreadyRunning is returned when a job of the same type is already being
// tracked. Callers surface it as a message, not a failure.
var ErrAlreadyRunning = errors.New("a job of this type is already running")

type OutcomeState string

const (
	OutcomeFinished OutcomeState = "finished"
	OutcomeFailed   OutcomeState = "failed"
	// OutcomeExpired means the backend no longer knows the job id; the job
	// record aged out and the user should retry the operation.
	OutcomeExpired OutcomeState = "expired"
)

// Outcome is delivered exactly once on the channel returned by StartPoller,
// after registry and tracker bookkeeping has been cleaned up. Receivers can
// assume a consistent snapshot is safe to re-fetch.
type Outcome struct {
	State  OutcomeState
	Result json.RawMessage
	Err    string
}

type PollerParams struct {
	JobID       models.JobID
	JobType     models.JobType
	Description string
	// StatementIDs are the statement ids this job affects; empty for global
	// operations such as a bulk reprocess.
	StatementIDs []int64
}

// StartPoller begins polling the job until a terminal outcome and returns a
// channel that delivers that outcome once and is then closed. If the context
// is cancelled first, bookkeeping is cleaned up and the channel is closed
// without an outcome.
func (c *Coordinator) StartPoller(ctx context.Context, params PollerParams) (<-chan Outcome, error) {
	if params.JobID == "" {
		return nil, errors.New("job id cannot be empty")
	}
	if params.JobType == "" {
		return nil, errors.New("job type cannot be empty")
	}

	if !c.registry.TryAcquire(params.JobType) {
		c.center.Create(fmt.Sprintf("%s is already running", params.Description), notify.SeverityInfo, "")
		logger.Info("Rejected duplicate job %s (%s)", params.JobType, params.JobID)
		return nil, ErrAlreadyRunning
	}

	handle := c.center.Create(params.Description, notify.SeverityInfo, params.JobType)
	c.tracker.MarkBusy(params.StatementIDs...)

	outcomes := make(chan Outcome, 1)
	go c.poll(ctx, params, handle, outcomes)

	logger.Debug("Started poller for job %s (%s)", params.JobID, params.JobType)
	return outcomes, nil
}

func (c *Coordinator) poll(ctx context.Context, params PollerParams, handle notify.Handle, outcomes chan<- Outcome) {
	defer close(outcomes)

	// First check runs immediately; waiting a full interval before the first
	// status fetch makes short jobs feel stuck.
	if done := c.check(params, handle, outcomes); done {
		return
	}

	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.cleanup(params)
			c.center.Clear(handle)
			logger.Debug("Poller for job %s torn down: %v", params.JobID, ctx.Err())
			return
		case <-ticker.C:
			if done := c.check(params, handle, outcomes); done {
				return
			}
		}
	}
}

// check performs one status fetch and returns true once a terminal outcome
// has been delivered.
func (c *Coordinator) check(params PollerParams, handle notify.Handle, outcomes chan<- Outcome) bool {
	status, err := c.status.JobStatus(params.JobID)
	if err != nil {
		if client.IsNotFound(err) {
			c.cleanup(params)
			c.center.Update(handle, fmt.Sprintf("%s: job expired, please retry", params.Description), notify.SeverityError)
			logger.Warn("Job %s (%s) expired on the backend", params.JobID, params.JobType)
			outcomes <- Outcome{State: OutcomeExpired, Err: "job expired"}
			return true
		}

		// Transient transport failure; skip this cycle and keep polling.
		logger.Error("Failed to fetch status for job %s: %v", params.JobID, err)
		return false
	}

	switch status.State {
	case models.JobStateQueued, models.JobStateRunning:
		if status.Meta.Stage != "" {
			c.center.Update(handle, fmt.Sprintf("%s: %s", params.Description, status.Meta.Stage), notify.SeverityInfo)
		}
		return false

	case models.JobStateFinished:
		c.cleanup(params)
		c.center.Update(handle, fmt.Sprintf("%s completed", params.Description), notify.SeveritySuccess)
		logger.Info("Job %s (%s) finished", params.JobID, params.JobType)
		outcomes <- Outcome{State: OutcomeFinished, Result: status.Result}
		return true

	case models.JobStateFailed:
		message := lastMeaningfulLine(status.Error)
		c.cleanup(params)
		c.center.Update(handle, fmt.Sprintf("%s failed: %s", params.Description, message), notify.SeverityError)
		logger.Error("Job %s (%s) failed: %s", params.JobID, params.JobType, message)
		outcomes <- Outcome{State: OutcomeFailed, Err: message}
		return true

	default:
		logger.Warn("Job %s reported unknown status %q", params.JobID, status.State)
		return false
	}
}

// cleanup runs before the outcome is delivered so that receivers observe
// released slots and an empty busy set.
func (c *Coordinator) cleanup(params PollerParams) {
	c.tracker.ClearBusy(params.StatementIDs...)
	c.registry.Release(params.JobType)
}
