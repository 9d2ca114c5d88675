package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/foliolabs/foliosync/internal/config"
	"github.com/foliolabs/foliosync/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *APIClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	return NewAPIClient(cfg)
}

func TestAPIClient(t *testing.T) {
	t.Run("decodes the response envelope", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/1/statements" {
				t.Errorf("request path = %q, want /api/1/statements", r.URL.Path)
			}
			fmt.Fprint(w, `{"result":[{"id":1,"account":"brokerage","period":"2026-08","status":"completed"}],"message":""}`)
		}))

		var response models.StatementsResponse
		if err := c.Get("/statements", &response); err != nil {
			t.Fatalf("Get() error = %v", err)
		}

		if len(response.Result) != 1 {
			t.Fatalf("decoded %d statements, want 1", len(response.Result))
		}
		if response.Result[0].Status != models.StatementStateCompleted {
			t.Errorf("status = %q, want completed", response.Result[0].Status)
		}
	})

	t.Run("posts a json body", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			fmt.Fprint(w, `{"result":{"job_id":"job-1"}}`)
		}))

		var response models.JobSubmissionResponse
		if err := c.Post("/statements/1/process", map[string]string{}, &response); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
		if response.Result.JobID != "job-1" {
			t.Errorf("job id = %q, want job-1", response.Result.JobID)
		}
	})

	t.Run("non-200 surfaces a status error", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		err := c.Get("/statements", nil)
		if err == nil {
			t.Fatal("expected an error for a 500 response")
		}

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("error %v is not a StatusError", err)
		}
		if statusErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("status code = %d, want 500", statusErr.StatusCode)
		}
		if IsNotFound(err) {
			t.Error("a 500 must not be reported as not-found")
		}
	})

	t.Run("not found is detectable", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))

		err := c.Get("/jobs/job-gone", nil)
		if !IsNotFound(err) {
			t.Errorf("IsNotFound() = false for %v", err)
		}
	})

	t.Run("uploads multipart files", func(t *testing.T) {
		content := "date;ticker;amount\n2026-08-01;VWRL;100\n"

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("failed to parse multipart form: %v", err)
			}
			if got := r.FormValue("account"); got != "brokerage" {
				t.Errorf("account field = %q, want brokerage", got)
			}

			file, _, err := r.FormFile("file")
			if err != nil {
				t.Fatalf("missing file part: %v", err)
			}
			defer file.Close()

			buf := new(strings.Builder)
			if _, err := io.Copy(buf, file); err != nil {
				t.Fatalf("failed to read file part: %v", err)
			}
			if buf.String() != content {
				t.Errorf("uploaded content mismatch: %q", buf.String())
			}

			fmt.Fprint(w, `{"result":{"job_id":"job-up"}}`)
		}))

		dir := t.TempDir()
		path := dir + "/statement.csv"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write temp file: %v", err)
		}

		var response models.JobSubmissionResponse
		err := c.UploadFile("/statements", "file", path, map[string]string{"account": "brokerage"}, &response)
		if err != nil {
			t.Fatalf("UploadFile() error = %v", err)
		}
		if response.Result.JobID != "job-up" {
			t.Errorf("job id = %q, want job-up", response.Result.JobID)
		}
	})
}

func TestBuildURLWithParams(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		params   map[string]string
		want     string
	}{
		{
			name:     "no params returns endpoint unchanged",
			endpoint: "/positions",
			want:     "/positions",
		},
		{
			name:     "params are encoded",
			endpoint: "/positions",
			params:   map[string]string{"account": "my brokerage"},
			want:     "/positions?account=my+brokerage",
		},
		{
			name:     "existing query params are preserved",
			endpoint: "/positions?date=2026-08-31",
			params:   map[string]string{"account": "isa"},
			want:     "/positions?account=isa&date=2026-08-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildURLWithParams(tt.endpoint, tt.params)
			if !sameURL(got, tt.want) {
				t.Errorf("BuildURLWithParams() = %q, want %q", got, tt.want)
			}
		})
	}
}

// sameURL compares endpoints ignoring query parameter order.
func sameURL(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	if ua.Path != ub.Path {
		return false
	}
	qa, _ := url.ParseQuery(ua.RawQuery)
	qb, _ := url.ParseQuery(ub.RawQuery)
	if len(qa) != len(qb) {
		return false
	}
	for key := range qa {
		if qa.Get(key) != qb.Get(key) {
			return false
		}
	}
	return true
}
