package positions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/foliolabs/foliosync/internal/logger"
	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

// FetchFunc fetches the position list for the given filters.
type FetchFunc func(ctx context.Context, filters models.PositionFilters) ([]models.Position, error)

// Reconciler re-fetches the position list while any position reports a pending
// price, so the view eventually shows resolved prices without a manual
// refresh. At most one timer is armed at a time; re-arming only happens while
// pending records are still observed, so the loop stops on its own once every
// price resolves or flips to failed. A hard cycle cap guards against a price
// that never resolves upstream.
type Reconciler struct {
	fetch  FetchFunc
	center *notify.Center

	// Delay between a pending observation and the next fetch.
	Delay time.Duration
	// MaxCycles bounds consecutive re-arms; 0 disables the cap.
	MaxCycles int

	mu       sync.Mutex
	timer    *time.Timer
	cycles   int
	capped   bool
	onResult func([]models.Position)
}

func NewReconciler(fetch FetchFunc, center *notify.Center) *Reconciler {
	return &Reconciler{
		fetch:     fetch,
		center:    center,
		Delay:     5 * time.Second,
		MaxCycles: 60,
	}
}

// SetOnResult registers a callback receiving every list fetched by the loop.
func (r *Reconciler) SetOnResult(fn func([]models.Position)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onResult = fn
}

// Reconcile is the decision point entered after every fetch: arm a one-shot
// timer when pending prices remain and none is armed, cancel any armed timer
// when none remain. Invoking it twice without the timer firing arms nothing
// extra.
func (r *Reconciler) Reconcile(ctx context.Context, filters models.PositionFilters, list []models.Position) {
	pending := pendingTickers(list)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(pending) == 0 {
		r.disarmLocked()
		r.cycles = 0
		r.capped = false
		return
	}

	if r.timer != nil {
		return
	}

	if r.MaxCycles > 0 && r.cycles >= r.MaxCycles {
		if !r.capped {
			r.capped = true
			logger.Warn("Prices still pending for %s after %d checks, stopping automatic refresh",
				strings.Join(pending, ", "), r.cycles)
			r.center.Create(
				fmt.Sprintf("Prices for %s are still pending, refresh manually to retry", strings.Join(pending, ", ")),
				notify.SeverityInfo, "")
		}
		return
	}

	r.armLocked(ctx, filters)
}

// Cancel disarms any armed timer and resets the cycle count. Every externally
// triggered re-fetch (filter change, manual refresh) must call it before
// issuing its own fetch so two reconciliation cycles never race.
func (r *Reconciler) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disarmLocked()
	r.cycles = 0
	r.capped = false
}

// Armed reports whether a reconciliation timer is currently pending.
func (r *Reconciler) Armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.timer != nil
}

func (r *Reconciler) armLocked(ctx context.Context, filters models.PositionFilters) {
	r.cycles++
	r.timer = time.AfterFunc(r.Delay, func() {
		r.refetch(ctx, filters)
	})
}

func (r *Reconciler) disarmLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Reconciler) refetch(ctx context.Context, filters models.PositionFilters) {
	r.mu.Lock()
	r.timer = nil
	onResult := r.onResult
	r.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	list, err := r.fetch(ctx, filters)
	if err != nil {
		// A transport blip does not end the loop; try again next cycle.
		logger.Error("Price reconciliation fetch failed: %v", err)

		r.mu.Lock()
		if r.timer == nil && (r.MaxCycles == 0 || r.cycles < r.MaxCycles) {
			r.armLocked(ctx, filters)
		}
		r.mu.Unlock()
		return
	}

	if onResult != nil {
		onResult(list)
	}

	r.Reconcile(ctx, filters, list)
}

func pendingTickers(list []models.Position) []string {
	var pending []string
	for _, position := range list {
		if position.PricePending {
			pending = append(pending, position.Ticker)
		}
	}
	return pending
}
