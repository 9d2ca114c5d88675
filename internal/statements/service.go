package statements

import (
	"context"
	"fmt"
	"time"

	"github.com/foliolabs/foliosync/internal/client"
	"github.com/foliolabs/foliosync/internal/jobs"
	"github.com/foliolabs/foliosync/internal/logger"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

// Service submits statement operations to the backend and hands the returned
// job id to the coordinator for polling.
type Service struct {
	api      *client.APIClient
	coord    *jobs.Coordinator
	observer *Observer

	// RefreshInterval is the delay between full-list fetches in Watch.
	RefreshInterval time.Duration
}

func NewService(api *client.APIClient, coord *jobs.Coordinator) *Service {
	return &Service{
		api:             api,
		coord:           coord,
		observer:        NewObserver(coord),
		RefreshInterval: 3 * time.Second,
	}
}

// ListStatements fetches the full statement list.
func (s *Service) ListStatements() ([]models.Statement, error) {
	var response models.StatementsResponse
	if err := s.api.Get("/statements", &response); err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	return response.Result, nil
}

// ListAccounts fetches the known accounts.
func (s *Service) ListAccounts() ([]models.Account, error) {
	var response models.AccountsResponse
	if err := s.api.Get("/accounts", &response); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return response.Result, nil
}

// ProcessStatement submits processing of a single statement.
func (s *Service) ProcessStatement(ctx context.Context, id int64) (<-chan jobs.Outcome, error) {
	return s.submit(ctx, submission{
		endpoint:     fmt.Sprintf("/statements/%d/process", id),
		jobType:      models.JobType(fmt.Sprintf("statement-process-%d", id)),
		description:  fmt.Sprintf("Processing statement %d", id),
		statementIDs: []int64{id},
	})
}

// ReprocessStatement submits reprocessing of a single statement.
func (s *Service) ReprocessStatement(ctx context.Context, id int64) (<-chan jobs.Outcome, error) {
	return s.submit(ctx, submission{
		endpoint:     fmt.Sprintf("/statements/%d/reprocess", id),
		jobType:      models.JobType(fmt.Sprintf("statement-reprocess-%d", id)),
		description:  fmt.Sprintf("Reprocessing statement %d", id),
		statementIDs: []int64{id},
	})
}

// ReprocessAll submits a bulk reprocess of every statement. The job affects
// ids the backend chooses, so none are marked busy up front; the observer
// picks up per-statement transitions from the list refresh.
func (s *Service) ReprocessAll(ctx context.Context) (<-chan jobs.Outcome, error) {
	return s.submit(ctx, submission{
		endpoint:    "/statements/reprocess",
		jobType:     "reprocess-all",
		description: "Reprocessing all statements",
	})
}

// ReassignAccount moves a statement to another account and reprocesses it.
func (s *Service) ReassignAccount(ctx context.Context, id, accountID int64) (<-chan jobs.Outcome, error) {
	return s.submit(ctx, submission{
		method:       "PUT",
		endpoint:     fmt.Sprintf("/statements/%d/account", id),
		body:         map[string]int64{"account_id": accountID},
		jobType:      models.JobType(fmt.Sprintf("statement-reassign-%d", id)),
		description:  fmt.Sprintf("Reassigning statement %d", id),
		statementIDs: []int64{id},
	})
}

// ConvertTransactions converts a statement's raw entries into transactions.
func (s *Service) ConvertTransactions(ctx context.Context, id int64) (<-chan jobs.Outcome, error) {
	return s.submit(ctx, submission{
		endpoint:     fmt.Sprintf("/statements/%d/convert", id),
		jobType:      models.JobType(fmt.Sprintf("statement-convert-%d", id)),
		description:  fmt.Sprintf("Converting transactions for statement %d", id),
		statementIDs: []int64{id},
	})
}

// UploadStatement uploads a statement file for the given account and tracks
// the processing job the backend starts for it.
func (s *Service) UploadStatement(ctx context.Context, path, account string) (<-chan jobs.Outcome, error) {
	jobType := models.JobType("statement-upload")
	description := fmt.Sprintf("Importing %s", path)

	if s.coord.Registry().Active(jobType) {
		s.coord.Notifications().Create(fmt.Sprintf("%s is already running", description), notify.SeverityInfo, "")
		return nil, jobs.ErrAlreadyRunning
	}

	var response models.JobSubmissionResponse
	err := s.api.UploadFile("/statements", "file", path, map[string]string{"account": account}, &response)
	if err != nil {
		s.coord.Notifications().Create(fmt.Sprintf("%s failed: %v", description, err), notify.SeverityError, "")
		return nil, fmt.Errorf("failed to upload statement: %w", err)
	}

	return s.coord.StartPoller(ctx, jobs.PollerParams{
		JobID:       response.Result.JobID,
		JobType:     jobType,
		Description: description,
	})
}

type submission struct {
	method       string
	endpoint     string
	body         interface{}
	jobType      models.JobType
	description  string
	statementIDs []int64
}

// submit performs the synchronous submission call and starts a poller for the
// returned job id. A backend rejection before any job exists surfaces as an
// immediate error notification; no poller starts.
func (s *Service) submit(ctx context.Context, sub submission) (<-chan jobs.Outcome, error) {
	if s.coord.Registry().Active(sub.jobType) {
		s.coord.Notifications().Create(fmt.Sprintf("%s is already running", sub.description), notify.SeverityInfo, "")
		logger.Info("Skipping submission, %s already running", sub.jobType)
		return nil, jobs.ErrAlreadyRunning
	}

	var response models.JobSubmissionResponse
	var err error
	switch sub.method {
	case "PUT":
		err = s.api.Put(sub.endpoint, sub.body, &response)
	default:
		err = s.api.Post(sub.endpoint, sub.body, &response)
	}
	if err != nil {
		s.coord.Notifications().Create(fmt.Sprintf("%s failed: %v", sub.description, err), notify.SeverityError, "")
		return nil, fmt.Errorf("failed to submit %s: %w", sub.jobType, err)
	}

	return s.coord.StartPoller(ctx, jobs.PollerParams{
		JobID:        response.Result.JobID,
		JobType:      sub.jobType,
		Description:  sub.description,
		StatementIDs: sub.statementIDs,
	})
}

// Watch refreshes the statement list on a fixed interval, feeding each result
// to the transition observer. onRefresh, if set, receives every fetched list
// and runs after reconciliation. Watch blocks until the context is cancelled.
func (s *Service) Watch(ctx context.Context, onRefresh func([]models.Statement)) error {
	refresh := func() {
		list, err := s.ListStatements()
		if err != nil {
			logger.Error("Failed to refresh statements: %v", err)
			return
		}

		s.observer.Observe(list)
		if onRefresh != nil {
			onRefresh(list)
		}
	}

	refresh()

	ticker := time.NewTicker(s.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			refresh()
		}
	}
}
