package statements

import (
	"fmt"
	"sync"

	"github.com/foliolabs/foliosync/internal/jobs"
	"github.com/foliolabs/foliosync/internal/logger"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

// Observer detects terminal-state transitions on statements that no local
// poller is driving, e.g. a bulk job that completed server-side where the
// periodic list refresh is the only signal. Each refresh is compared against
// the immediately previous one, so a qualifying transition notifies exactly
// once and never re-fires after the status has stabilized.
type Observer struct {
	coord *jobs.Coordinator

	mu     sync.Mutex
	seeded bool
	prev   map[int64]models.StatementState
}

func NewObserver(coord *jobs.Coordinator) *Observer {
	return &Observer{
		coord: coord,
		prev:  make(map[int64]models.StatementState),
	}
}

// Observe reconciles one full-list refresh. The first call only seeds the
// status map; statements already terminal at startup must not raise a storm
// of notifications.
func (o *Observer) Observe(list []models.Statement) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.seeded {
		for _, stmt := range list {
			o.prev[stmt.ID] = stmt.Status
		}
		o.seeded = true
		return
	}

	seen := make(map[int64]struct{}, len(list))
	for _, stmt := range list {
		seen[stmt.ID] = struct{}{}

		previous, known := o.prev[stmt.ID]
		o.prev[stmt.ID] = stmt.Status

		if known && previous == stmt.Status {
			continue
		}

		switch stmt.Status {
		case models.StatementStateCompleted:
			o.coord.Notifications().Create(
				fmt.Sprintf("Statement %s %s processed", stmt.Account, stmt.Period),
				notify.SeveritySuccess, "")
			o.coord.Tracker().ClearBusy(stmt.ID)
			logger.Info("Statement %d transitioned to completed", stmt.ID)

		case models.StatementStateFailed:
			message := fmt.Sprintf("Statement %s %s failed", stmt.Account, stmt.Period)
			if stmt.ErrorMessage != "" {
				message = fmt.Sprintf("%s: %s", message, stmt.ErrorMessage)
			}
			o.coord.Notifications().Create(message, notify.SeverityError, "")
			o.coord.Tracker().ClearBusy(stmt.ID)
			logger.Info("Statement %d transitioned to failed", stmt.ID)
		}
	}

	// Statements deleted on the backend must not stay busy forever.
	for id := range o.prev {
		if _, exists := seen[id]; !exists {
			delete(o.prev, id)
			o.coord.Tracker().ClearBusy(id)
		}
	}
}
