package notify

import (
	"testing"
	"time"
)

func TestCenter(t *testing.T) {
	t.Run("create and update", func(t *testing.T) {
		c := NewCenter()

		handle := c.Create("Processing statement 1", SeverityInfo, "statement-process-1")

		entries := c.List()
		if len(entries) != 1 {
			t.Fatalf("List() returned %d entries, want 1", len(entries))
		}
		if entries[0].Handle != handle {
			t.Error("listed entry should carry the returned handle")
		}
		if entries[0].Severity != SeverityInfo {
			t.Errorf("severity = %q, want %q", entries[0].Severity, SeverityInfo)
		}

		c.Update(handle, "Statement 1 processed", SeveritySuccess)

		entries = c.List()
		if entries[0].Message != "Statement 1 processed" {
			t.Errorf("message = %q after update", entries[0].Message)
		}
		if entries[0].Severity != SeveritySuccess {
			t.Errorf("severity = %q, want %q", entries[0].Severity, SeveritySuccess)
		}
	})

	t.Run("update of unknown handle is a no-op", func(t *testing.T) {
		c := NewCenter()
		c.Create("one", SeverityInfo, "")

		c.Update("missing-handle", "changed", SeverityError)

		if entries := c.List(); entries[0].Message != "one" {
			t.Errorf("message = %q, want %q", entries[0].Message, "one")
		}
	})

	t.Run("is active tracks non-terminal entries only", func(t *testing.T) {
		c := NewCenter()

		handle := c.Create("Reprocessing all statements", SeverityInfo, "reprocess-all")

		if !c.IsActive("reprocess-all") {
			t.Error("IsActive should be true while the entry is info")
		}

		c.Update(handle, "Reprocessing completed", SeveritySuccess)

		if c.IsActive("reprocess-all") {
			t.Error("IsActive should be false once the entry is terminal")
		}
		if len(c.List()) != 1 {
			t.Error("terminal entries stay visible")
		}
	})

	t.Run("clear by key removes every matching entry", func(t *testing.T) {
		c := NewCenter()

		c.Create("one", SeverityInfo, "statement-process-1")
		c.Create("two", SeverityError, "statement-process-1")
		c.Create("other", SeverityInfo, "statement-process-2")

		c.ClearByKey("statement-process-1")

		entries := c.List()
		if len(entries) != 1 {
			t.Fatalf("List() returned %d entries, want 1", len(entries))
		}
		if entries[0].Key != "statement-process-2" {
			t.Errorf("surviving entry key = %q, want %q", entries[0].Key, "statement-process-2")
		}
	})

	t.Run("clear removes a single entry", func(t *testing.T) {
		c := NewCenter()

		first := c.Create("one", SeverityInfo, "")
		c.Create("two", SeverityInfo, "")

		c.Clear(first)

		entries := c.List()
		if len(entries) != 1 || entries[0].Message != "two" {
			t.Errorf("List() = %v, want only the second entry", entries)
		}
	})

	t.Run("subscribers are signalled on change", func(t *testing.T) {
		c := NewCenter()
		sub := c.Subscribe()

		c.Create("one", SeverityInfo, "")

		select {
		case <-sub:
		case <-time.After(time.Second):
			t.Fatal("expected a change signal after Create")
		}
	})
}
