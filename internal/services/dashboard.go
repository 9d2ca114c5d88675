package services

import (
	"context"

	"github.com/foliolabs/foliosync/internal/client"
	"github.com/foliolabs/foliosync/internal/config"
	"github.com/foliolabs/foliosync/internal/jobs"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
	"github.com/foliolabs/foliosync/internal/positions"
	"github.com/foliolabs/foliosync/internal/statements"
)

// DashboardService wires configuration, the API client, the job coordinator
// and the per-domain services together. One instance exists per process; the
// coordinator inside it is what makes duplicate detection hold across every
// command and view.
type DashboardService struct {
	config     *config.Config
	client     *client.APIClient
	center     *notify.Center
	coord      *jobs.Coordinator
	statements *statements.Service
	positions  *positions.Service

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDashboardService creates the full service graph from configuration.
func NewDashboardService(cfg *config.Config) *DashboardService {
	apiClient := client.NewAPIClient(cfg)
	center := notify.NewCenter()

	coord := jobs.NewCoordinator(jobs.NewAPIStatusClient(apiClient), center)
	coord.PollInterval = cfg.JobPollInterval

	statementService := statements.NewService(apiClient, coord)
	statementService.RefreshInterval = cfg.RefreshInterval

	positionService := positions.NewService(apiClient, center)
	positionService.Reconciler().Delay = cfg.PriceRetryDelay
	positionService.Reconciler().MaxCycles = cfg.PriceRetryCycles

	ctx, cancel := context.WithCancel(context.Background())

	return &DashboardService{
		config:     cfg,
		client:     apiClient,
		center:     center,
		coord:      coord,
		statements: statementService,
		positions:  positionService,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Context returns the service lifetime context; every poller and watch loop
// started through this service is torn down when it is cancelled.
func (s *DashboardService) Context() context.Context {
	return s.ctx
}

// Cleanup tears down all polling started through this service.
func (s *DashboardService) Cleanup() {
	s.cancel()
	s.positions.Reconciler().Cancel()
}

// WaitForAPIReady waits for the backend API to become ready.
func (s *DashboardService) WaitForAPIReady() bool {
	return s.client.WaitForAPIReady()
}

// GetConfig returns the current configuration.
func (s *DashboardService) GetConfig() *config.Config {
	return s.config
}

// Notifications returns the process-wide notification center.
func (s *DashboardService) Notifications() *notify.Center {
	return s.center
}

// Coordinator returns the job coordinator.
func (s *DashboardService) Coordinator() *jobs.Coordinator {
	return s.coord
}

// Statements returns the statement service.
func (s *DashboardService) Statements() *statements.Service {
	return s.statements
}

// Positions returns the position service.
func (s *DashboardService) Positions() *positions.Service {
	return s.positions
}

// RefreshPositions refreshes positions through the reconciliation loop.
func (s *DashboardService) RefreshPositions(filters models.PositionFilters) ([]models.Position, error) {
	return s.positions.Refresh(s.ctx, filters)
}
