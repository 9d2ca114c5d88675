package jobs

import (
	"fmt"
	"time"

	"github.com/foliolabs/foliosync/internal/client"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

// StatusClient fetches the status of a single job by id.
type StatusClient interface {
	JobStatus(id models.JobID) (*models.JobStatus, error)
}

// APIStatusClient implements StatusClient against the backend job endpoint.
type APIStatusClient struct {
	api *client.APIClient
}

func NewAPIStatusClient(api *client.APIClient) *APIStatusClient {
	return &APIStatusClient{api: api}
}

func (c *APIStatusClient) JobStatus(id models.JobID) (*models.JobStatus, error) {
	var response models.JobStatusResponse
	if err := c.api.Get(fmt.Sprintf("/jobs/%s", id), &response); err != nil {
		return nil, err
	}
	return &response.Result, nil
}

// Coordinator bundles the job registry, the busy-statement tracker and the
// notification center, and owns every poller's lifecycle. It is created once
// and injected wherever jobs are started, so tests can run isolated instances.
type Coordinator struct {
	status   StatusClient
	registry *Registry
	tracker  *Tracker
	center   *notify.Center

	// PollInterval is the delay between status checks. The first check runs
	// immediately, before the first interval elapses.
	PollInterval time.Duration
}

func NewCoordinator(status StatusClient, center *notify.Center) *Coordinator {
	return &Coordinator{
		status:       status,
		registry:     NewRegistry(),
		tracker:      NewTracker(),
		center:       center,
		PollInterval: 4 * time.Second,
	}
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) Tracker() *Tracker {
	return c.tracker
}

func (c *Coordinator) Notifications() *notify.Center {
	return c.center
}
