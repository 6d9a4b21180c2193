package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/mheiman/openlibrary-reader-sub000/internal/auth"
	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

const (
	defaultStalenessThreshold = 5 * time.Minute
	defaultLoginRetryDelay    = 1 * time.Second
	defaultLoginRetryAttempts = 1
)

// SettingsJanitor removes per-book side records (reading settings, visual
// adjustments) whose work is no longer on any shelf.
type SettingsJanitor interface {
	CleanOrphanSettings(keep map[string]struct{}) (int, error)
}

// EngineConfig wires an Engine. Repo, Lists, Works and AuthSource are
// required; the rest default.
type EngineConfig struct {
	Repo       ShelfRepository
	Lists      ListService
	Works      WorkResolver
	Prefs      PreferenceStore
	Janitor    SettingsJanitor
	AuthSource *auth.Source
	Logger     *slog.Logger

	// StalenessThreshold bounds how old a shelf may be before
	// RefreshShelfIfStale refetches it.
	StalenessThreshold time.Duration
	// Debounce is the refresh scheduler's drain interval.
	Debounce time.Duration
	// LoginRetryDelay and LoginRetryAttempts shape the one retry allowed on
	// a forced refresh that fails right after login, while the server is
	// still propagating the new session. Empirical, not load-bearing.
	LoginRetryDelay    time.Duration
	LoginRetryAttempts uint
	// DisableRedirectScan turns the background redirect repair pass off.
	DisableRedirectScan bool
}

// Engine owns the sync state store and drives every load, refresh and
// mutation against the remote service. All operations read the latest store
// value at call time; none hold a captured snapshot across an await.
type Engine struct {
	store     *Store
	repo      ShelfRepository
	lists     ListService
	works     WorkResolver
	prefs     PreferenceStore
	janitor   SettingsJanitor
	scheduler *RefreshScheduler
	resolver  *RedirectResolver
	logger    *slog.Logger

	stalenessThreshold time.Duration
	loginRetryDelay    time.Duration
	loginRetryAttempts uint
	redirectScan       bool

	// ctx scopes background work (resolver passes, fire-and-forget
	// reconciliation, auth handling); Dispose cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	authSource *auth.Source
	authEvents chan auth.State
}

// NewEngine constructs the engine, subscribes to the auth source and starts
// the auth event consumer. Call Dispose when done.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sync")

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:              NewStore(),
		repo:               cfg.Repo,
		lists:              cfg.Lists,
		works:              cfg.Works,
		prefs:              cfg.Prefs,
		janitor:            cfg.Janitor,
		logger:             logger,
		stalenessThreshold: cfg.StalenessThreshold,
		loginRetryDelay:    cfg.LoginRetryDelay,
		loginRetryAttempts: cfg.LoginRetryAttempts,
		redirectScan:       !cfg.DisableRedirectScan,
		ctx:                ctx,
		cancel:             cancel,
		authSource:         cfg.AuthSource,
		authEvents:         make(chan auth.State, 8),
	}
	if e.stalenessThreshold <= 0 {
		e.stalenessThreshold = defaultStalenessThreshold
	}
	if e.loginRetryDelay <= 0 {
		e.loginRetryDelay = defaultLoginRetryDelay
	}
	if e.loginRetryAttempts == 0 {
		e.loginRetryAttempts = defaultLoginRetryAttempts
	}

	e.scheduler = NewRefreshScheduler(RefreshSchedulerConfig{
		Refresh:  e.refreshShelfNow,
		Debounce: cfg.Debounce,
		Logger:   logger,
	})
	e.resolver = NewRedirectResolver(RedirectResolverConfig{
		Store:  e.store,
		Repo:   cfg.Repo,
		Works:  cfg.Works,
		Logger: logger,
	})

	if e.authSource != nil {
		// The callback runs inside Source.Set; hand the event to the
		// consumer goroutine instead of reacting inline so a reaction that
		// itself changes auth state cannot re-enter the notification.
		e.authSource.OnChange(func(state auth.State) {
			select {
			case e.authEvents <- state:
			default:
				logger.Warn("auth event dropped, queue full", "state", state.String())
			}
		})
		go e.authLoop()
	}

	return e
}

// State returns the current snapshot.
func (e *Engine) State() State {
	return e.store.Get()
}

// Subscribe registers fn for every published snapshot.
func (e *Engine) Subscribe(fn func(State)) string {
	return e.store.Subscribe(fn)
}

// Unsubscribe removes a subscriber.
func (e *Engine) Unsubscribe(id string) {
	e.store.Unsubscribe(id)
}

// Dispose tears the engine down. In-flight network calls are not
// interrupted; their results are dropped by the store's disposed guard.
func (e *Engine) Dispose() {
	e.cancel()
	e.scheduler.Stop()
	e.store.Dispose()
}

// Initialize runs the first shelf load and a loan refresh concurrently, then
// kicks off a redirect repair pass and an orphaned-settings cleanup in the
// background.
func (e *Engine) Initialize(ctx context.Context) {
	loansCh := make(chan map[string]types.Loan, 1)
	go func() {
		loansCh <- e.fetchLoans(ctx, false)
	}()
	e.LoadShelves(ctx, false)
	e.applyLoans(<-loansCh)

	e.scheduleRedirectPass()
	go e.cleanupOrphanSettings()
}

// scheduleRedirectPass kicks off a background redirect repair pass, unless
// scanning is disabled by configuration.
func (e *Engine) scheduleRedirectPass() {
	if !e.redirectScan {
		return
	}
	go e.resolver.Run(e.ctx)
}

// isAuthenticated reports whether operations that need a session may run.
// With no auth source wired (tests, one-shot CLI use) the engine assumes yes.
func (e *Engine) isAuthenticated() bool {
	if e.authSource == nil {
		return true
	}
	return e.authSource.IsAuthenticated()
}

// authLoop consumes auth transitions one at a time. Processing strictly
// serially is the re-entrancy guard: a new transition arriving while a
// handler runs waits in the channel rather than interleaving.
func (e *Engine) authLoop() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case state := <-e.authEvents:
			e.handleAuthTransition(state)
		}
	}
}

func (e *Engine) handleAuthTransition(state auth.State) {
	e.logger.Info("auth transition", "state", state.String())
	switch state {
	case auth.StateAuthenticated:
		// Only the edge into Authenticated triggers a load, and only when
		// nothing is loaded yet; a re-login with data on screen keeps it and
		// revalidates instead.
		if e.store.Get().IsLoaded() {
			e.RefreshShelves(e.ctx)
			return
		}
		e.LoadShelves(e.ctx, true)
	case auth.StateUnauthenticated:
		e.repo.ClearCache()
		e.store.Set(InitialState())
	case auth.StateInitial, auth.StateLoading:
		// Transitional; nothing to do until the machine settles.
	}
}

// cleanupOrphanSettings drops cached per-book side records for works no
// longer present on any shelf. Best effort.
func (e *Engine) cleanupOrphanSettings() {
	if e.janitor == nil {
		return
	}
	state := e.store.Get()
	if !state.IsLoaded() {
		return
	}
	keep := make(map[string]struct{})
	for _, shelf := range state.Shelves {
		for _, b := range shelf.Books {
			keep[b.WorkID] = struct{}{}
		}
	}
	removed, err := e.janitor.CleanOrphanSettings(keep)
	if err != nil {
		e.logger.Warn("orphan settings cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		e.logger.Info("cleaned orphan settings", "removed", removed)
	}
}

// applyLoans stamps loan-derived availability onto every book whose edition
// has an active loan.
func (e *Engine) applyLoans(loans map[string]types.Loan) {
	if len(loans) == 0 {
		return
	}
	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		next := current.clone()
		for i := range next.Shelves {
			for j := range next.Shelves[i].Books {
				b := &next.Shelves[i].Books[j]
				if b.EditionID == "" {
					continue
				}
				if _, ok := loans[b.EditionID]; ok {
					b.Availability = types.AvailabilityBorrowed
				}
			}
		}
		return next
	})
}

// fetchLoans fetches current entitlements. Failures are logged only; loan
// data is auxiliary and must never interrupt a load.
func (e *Engine) fetchLoans(ctx context.Context, forceRefresh bool) map[string]types.Loan {
	if !e.isAuthenticated() {
		return nil
	}
	loans, err := e.repo.GetUserLoans(ctx, forceRefresh)
	if err != nil {
		e.logger.Warn("loan refresh failed", "error", err)
		return nil
	}
	return loans
}
