package positions

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foliolabs/foliosync/internal/client"
	"github.com/foliolabs/foliosync/internal/config"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

func TestService_GetPositions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/1/positions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("account"); got != "isa" {
			t.Errorf("account query = %q, want isa", got)
		}
		if got := r.URL.Query().Get("date"); got != "2026-08-31" {
			t.Errorf("date query = %q, want 2026-08-31", got)
		}
		fmt.Fprint(w, `{"result":[{"ticker":"VWRL","account":"isa","quantity":"12","price_pending":true}]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	svc := NewService(client.NewAPIClient(cfg), notify.NewCenter())

	list, err := svc.GetPositions(context.Background(), models.PositionFilters{Account: "isa", Date: "2026-08-31"})
	if err != nil {
		t.Fatalf("GetPositions() error = %v", err)
	}
	if len(list) != 1 || !list[0].PricePending {
		t.Errorf("GetPositions() = %v, want one pending position", list)
	}
}

func TestService_RefreshDrivesReconciliation(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/1/positions", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"result":[{"ticker":"VWRL","price_pending":true}]}`)
			return
		}
		fmt.Fprint(w, `{"result":[{"ticker":"VWRL","price":"101.50"}]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	svc := NewService(client.NewAPIClient(cfg), notify.NewCenter())
	svc.Reconciler().Delay = 5 * time.Millisecond

	list, err := svc.Refresh(context.Background(), models.PositionFilters{})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !list[0].PricePending {
		t.Fatal("first refresh should report the pending price")
	}
	if !svc.Reconciler().Armed() {
		t.Fatal("refresh with pending prices should arm the reconciler")
	}

	if !waitFor(t, 2*time.Second, func() bool { return !svc.Reconciler().Armed() }) {
		t.Fatal("reconciler did not settle after the price resolved")
	}
}

func TestService_RefreshCancelsPreviousCycle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/1/positions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":[{"ticker":"VWRL","price":"101.50"}]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	svc := NewService(client.NewAPIClient(cfg), notify.NewCenter())
	svc.Reconciler().Delay = time.Hour

	// Simulate a cycle left armed by an earlier pending fetch.
	svc.Reconciler().Reconcile(context.Background(), models.PositionFilters{},
		[]models.Position{{Ticker: "VWRL", PricePending: true}})
	if !svc.Reconciler().Armed() {
		t.Fatal("precondition: reconciler should be armed")
	}

	if _, err := svc.Refresh(context.Background(), models.PositionFilters{Account: "other"}); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if svc.Reconciler().Armed() {
		t.Error("a competing refresh must cancel the previous cycle")
	}
}
