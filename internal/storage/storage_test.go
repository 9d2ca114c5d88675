package storage

import (
	"testing"
	"time"
)

func TestLastRefreshRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Run("missing file reads as zero", func(t *testing.T) {
		ts, err := GetLastRefresh("brokerage")
		if err != nil {
			t.Fatalf("GetLastRefresh() error = %v", err)
		}
		if ts != 0 {
			t.Errorf("GetLastRefresh() = %d, want 0", ts)
		}
	})

	t.Run("saved timestamp is read back", func(t *testing.T) {
		now := time.Now().Unix()
		if err := SaveLastRefresh("brokerage", now); err != nil {
			t.Fatalf("SaveLastRefresh() error = %v", err)
		}

		ts, err := GetLastRefresh("brokerage")
		if err != nil {
			t.Fatalf("GetLastRefresh() error = %v", err)
		}
		if ts != now {
			t.Errorf("GetLastRefresh() = %d, want %d", ts, now)
		}
	})

	t.Run("accounts are independent", func(t *testing.T) {
		if err := SaveLastRefresh("isa", 100); err != nil {
			t.Fatalf("SaveLastRefresh() error = %v", err)
		}

		ts, err := GetLastRefresh("pension")
		if err != nil {
			t.Fatalf("GetLastRefresh() error = %v", err)
		}
		if ts != 0 {
			t.Errorf("GetLastRefresh() = %d, want 0 for an unseen account", ts)
		}
	})
}
