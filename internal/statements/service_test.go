package statements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/foliolabs/foliosync/internal/client"
	"github.com/foliolabs/foliosync/internal/config"
	"github.com/foliolabs/foliosync/internal/jobs"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

// fakeBackend serves job submission and status endpoints with a scripted
// sequence of job states.
type fakeBackend struct {
	mu          sync.Mutex
	states      []models.JobStatus
	statusCalls int
	submissions int
	failSubmit  bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	submit := func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.submissions++
		fail := b.failSubmit
		b.mu.Unlock()

		if fail {
			http.Error(w, "import module offline", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"result":{"job_id":"job-1"}}`)
	}

	mux.HandleFunc("POST /api/1/statements/{id}/process", submit)
	mux.HandleFunc("POST /api/1/statements/{id}/reprocess", submit)
	mux.HandleFunc("POST /api/1/statements/reprocess", submit)
	mux.HandleFunc("PUT /api/1/statements/{id}/account", submit)
	mux.HandleFunc("POST /api/1/statements/{id}/convert", submit)

	mux.HandleFunc("GET /api/1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		i := b.statusCalls
		if i >= len(b.states) {
			i = len(b.states) - 1
		}
		b.statusCalls++
		state := b.states[i]
		b.mu.Unlock()

		response := models.JobStatusResponse{Result: state}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return mux
}

func newTestService(t *testing.T, backend *fakeBackend) (*Service, *jobs.Coordinator) {
	t.Helper()

	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	api := client.NewAPIClient(cfg)

	coord := jobs.NewCoordinator(jobs.NewAPIStatusClient(api), notify.NewCenter())
	coord.PollInterval = 5 * time.Millisecond

	return NewService(api, coord), coord
}

func TestService_ProcessStatement(t *testing.T) {
	backend := &fakeBackend{states: []models.JobStatus{
		{State: models.JobStateRunning, Meta: models.JobMeta{Stage: "parsing"}},
		{State: models.JobStateFinished, Result: json.RawMessage(`{"positions_created":3}`)},
	}}
	svc, coord := newTestService(t, backend)

	outcomes, err := svc.ProcessStatement(context.Background(), 42)
	if err != nil {
		t.Fatalf("ProcessStatement() error = %v", err)
	}

	select {
	case outcome := <-outcomes:
		if outcome.State != jobs.OutcomeFinished {
			t.Errorf("outcome state = %q, want finished", outcome.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the job outcome")
	}

	if coord.Registry().Active("statement-process-42") {
		t.Error("registry slot should be free after completion")
	}
	if coord.Tracker().IsBusy(42) {
		t.Error("statement 42 should not be busy after completion")
	}
}

func TestService_SubmissionFailure(t *testing.T) {
	backend := &fakeBackend{failSubmit: true}
	svc, coord := newTestService(t, backend)

	_, err := svc.ProcessStatement(context.Background(), 7)
	if err == nil {
		t.Fatal("expected an error when submission is rejected")
	}

	if coord.Registry().ActiveCount() != 0 {
		t.Error("a rejected submission must not hold a registry slot")
	}
	if coord.Tracker().Len() != 0 {
		t.Error("a rejected submission must not mark statements busy")
	}

	entries := coord.Notifications().List()
	if len(entries) != 1 || entries[0].Severity != notify.SeverityError {
		t.Errorf("expected a single error notification, got %v", entries)
	}
}

func TestService_DuplicateSubmissionSkipsBackendCall(t *testing.T) {
	backend := &fakeBackend{states: []models.JobStatus{
		{State: models.JobStateRunning},
	}}
	svc, coord := newTestService(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if _, err := svc.ReprocessAll(ctx); err != nil {
		t.Fatalf("first ReprocessAll() error = %v", err)
	}

	_, err := svc.ReprocessAll(ctx)
	if !errors.Is(err, jobs.ErrAlreadyRunning) {
		t.Fatalf("second ReprocessAll() error = %v, want ErrAlreadyRunning", err)
	}

	backend.mu.Lock()
	submissions := backend.submissions
	backend.mu.Unlock()
	if submissions != 1 {
		t.Errorf("backend received %d submissions, want 1", submissions)
	}

	if !coord.Registry().Active("reprocess-all") {
		t.Error("first job should still hold the registry slot")
	}
}

func TestService_ReassignUsesPut(t *testing.T) {
	backend := &fakeBackend{states: []models.JobStatus{
		{State: models.JobStateFinished, Result: json.RawMessage(`{}`)},
	}}
	svc, _ := newTestService(t, backend)

	outcomes, err := svc.ReassignAccount(context.Background(), 5, 2)
	if err != nil {
		t.Fatalf("ReassignAccount() error = %v", err)
	}

	select {
	case outcome := <-outcomes:
		if outcome.State != jobs.OutcomeFinished {
			t.Errorf("outcome state = %q, want finished", outcome.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the job outcome")
	}
}

func TestService_ListStatements(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/1/statements", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":[{"id":1,"account":"isa","period":"2026-07","status":"completed"},{"id":2,"account":"isa","period":"2026-08","status":"pending"}]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	api := client.NewAPIClient(cfg)
	svc := NewService(api, jobs.NewCoordinator(nil, notify.NewCenter()))

	list, err := svc.ListStatements()
	if err != nil {
		t.Fatalf("ListStatements() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListStatements() returned %d statements, want 2", len(list))
	}
	if list[1].Status != models.StatementStatePending {
		t.Errorf("second statement status = %q, want pending", list[1].Status)
	}
}
