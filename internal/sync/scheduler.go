package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultDebounce = 200 * time.Millisecond

// RefreshFunc performs the actual per-shelf refresh. It runs on a scheduler
// goroutine, at most once concurrently per key.
type RefreshFunc func(ctx context.Context, key string)

// RefreshScheduler coalesces per-shelf refresh requests. Requests are
// deduplicated into a FIFO of pending keys; a debounce timer drains one key
// per tick and re-arms while anything remains queued. A key already in
// flight is never dispatched a second time concurrently; it goes back to the
// tail of the queue so every distinct request still runs after the current
// fetch completes.
type RefreshScheduler struct {
	mu         sync.Mutex
	pending    []string
	pendingSet map[string]struct{}
	inFlight   map[string]struct{}
	timer      *time.Timer
	debounce   time.Duration
	refresh    RefreshFunc
	logger     *slog.Logger
	stopped    bool
}

// RefreshSchedulerConfig configures a new scheduler.
type RefreshSchedulerConfig struct {
	Refresh  RefreshFunc
	Debounce time.Duration
	Logger   *slog.Logger
}

// NewRefreshScheduler creates a scheduler. Refresh is required.
func NewRefreshScheduler(cfg RefreshSchedulerConfig) *RefreshScheduler {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{
		pendingSet: make(map[string]struct{}),
		inFlight:   make(map[string]struct{}),
		debounce:   debounce,
		refresh:    cfg.Refresh,
		logger:     logger,
	}
}

// RequestRefresh queues a refresh for key. Requests for a key already queued
// or in flight coalesce into the single pending entry.
func (rs *RefreshScheduler) RequestRefresh(ctx context.Context, key string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.stopped {
		return
	}
	if _, queued := rs.pendingSet[key]; queued {
		rs.logger.Debug("refresh request coalesced", "shelf", key)
		return
	}
	rs.pending = append(rs.pending, key)
	rs.pendingSet[key] = struct{}{}
	rs.armLocked(ctx)
}

// InFlight reports whether a refresh for key is currently executing.
func (rs *RefreshScheduler) InFlight(key string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	_, ok := rs.inFlight[key]
	return ok
}

// PendingCount returns the number of queued keys.
func (rs *RefreshScheduler) PendingCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.pending)
}

// Stop cancels the pending queue and prevents further dispatches. Refreshes
// already running are not interrupted.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.stopped = true
	rs.pending = nil
	rs.pendingSet = make(map[string]struct{})
	if rs.timer != nil {
		rs.timer.Stop()
		rs.timer = nil
	}
}

// armLocked starts the debounce timer if it is not already running.
// Callers must hold rs.mu.
func (rs *RefreshScheduler) armLocked(ctx context.Context) {
	if rs.timer != nil {
		return
	}
	rs.timer = time.AfterFunc(rs.debounce, func() {
		rs.drain(ctx)
	})
}

// drain dispatches the first pending key and re-arms for the rest.
func (rs *RefreshScheduler) drain(ctx context.Context) {
	rs.mu.Lock()
	rs.timer = nil
	if rs.stopped || len(rs.pending) == 0 {
		rs.mu.Unlock()
		return
	}
	if ctx.Err() != nil {
		rs.mu.Unlock()
		return
	}

	key := rs.pending[0]
	rs.pending = rs.pending[1:]

	if _, busy := rs.inFlight[key]; busy {
		// Still fetching this shelf; push the request behind the rest so it
		// runs once the current fetch finishes.
		rs.pending = append(rs.pending, key)
		rs.armLocked(ctx)
		rs.mu.Unlock()
		return
	}

	delete(rs.pendingSet, key)
	rs.inFlight[key] = struct{}{}
	if len(rs.pending) > 0 {
		rs.armLocked(ctx)
	}
	rs.mu.Unlock()

	go func() {
		rs.logger.Debug("dispatching shelf refresh", "shelf", key)
		rs.refresh(ctx, key)

		rs.mu.Lock()
		delete(rs.inFlight, key)
		if !rs.stopped && len(rs.pending) > 0 {
			rs.armLocked(ctx)
		}
		rs.mu.Unlock()
	}()
}
