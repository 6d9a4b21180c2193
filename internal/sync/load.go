package sync

import (
	"context"

	"github.com/avast/retry-go/v4"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// LoadShelves loads or refreshes all shelves. With a Loaded state already
// present the old data stays visible while the fetch runs
// (stale-while-revalidate). forceRefresh with no data takes the progressive
// path so the user sees shelves appear one by one instead of a spinner.
func (e *Engine) LoadShelves(ctx context.Context, forceRefresh bool) {
	if !e.isAuthenticated() {
		return
	}

	hadData := false
	e.store.Mutate(func(current State) State {
		if current.IsLoaded() {
			hadData = true
			next := current.clone()
			next.IsRefreshing = true
			return next
		}
		return LoadingState()
	})

	if forceRefresh && !hadData {
		e.progressiveLoad(ctx)
		return
	}

	needLists := e.store.Get().BookLists == nil

	shelvesCh := make(chan fetchResult[[]types.Shelf], 1)
	go func() {
		shelves, err := e.repo.GetShelves(ctx, forceRefresh)
		shelvesCh <- fetchResult[[]types.Shelf]{shelves, err}
	}()

	var listsCh chan fetchResult[[]types.BookList]
	if needLists {
		listsCh = make(chan fetchResult[[]types.BookList], 1)
		go func() {
			lists, err := e.lists.GetBookLists(ctx)
			listsCh <- fetchResult[[]types.BookList]{lists, err}
		}()
	}

	shelvesRes := <-shelvesCh
	var listsRes fetchResult[[]types.BookList]
	if listsCh != nil {
		listsRes = <-listsCh
	}

	if shelvesRes.err != nil {
		e.failLoad(shelvesRes.err, hadData)
		return
	}
	if listsRes.err != nil {
		// Lists are secondary; keep whatever was there and log.
		e.logger.Warn("book list fetch failed", "error", listsRes.err)
	}

	e.store.Mutate(func(current State) State {
		next := current.clone()
		next.Phase = PhaseLoaded
		next.Message = ""
		next.Shelves = shelvesRes.value
		next.IsRefreshing = false
		if listsRes.err == nil && listsRes.value != nil {
			next.BookLists = listsRes.value
		}
		return next
	})

	if needLists && listsRes.err == nil {
		e.restoreListSelection(ctx)
	}
}

// RefreshShelves refetches shelves, lists and loans concurrently, preserving
// existing data on any failure.
func (e *Engine) RefreshShelves(ctx context.Context) {
	if !e.isAuthenticated() {
		return
	}

	hadData := false
	e.store.Mutate(func(current State) State {
		if current.IsLoaded() {
			hadData = true
			next := current.clone()
			next.IsRefreshing = true
			return next
		}
		return LoadingState()
	})

	shelvesCh := make(chan fetchResult[[]types.Shelf], 1)
	listsCh := make(chan fetchResult[[]types.BookList], 1)
	loansCh := make(chan map[string]types.Loan, 1)
	go func() {
		shelves, err := e.repo.GetShelves(ctx, true)
		shelvesCh <- fetchResult[[]types.Shelf]{shelves, err}
	}()
	go func() {
		lists, err := e.lists.GetBookLists(ctx)
		listsCh <- fetchResult[[]types.BookList]{lists, err}
	}()
	go func() {
		loansCh <- e.fetchLoans(ctx, true)
	}()

	shelvesRes := <-shelvesCh
	listsRes := <-listsCh
	loans := <-loansCh

	if shelvesRes.err != nil {
		e.failLoad(shelvesRes.err, hadData)
		return
	}
	if listsRes.err != nil {
		e.logger.Warn("book list fetch failed", "error", listsRes.err)
	}

	e.store.Mutate(func(current State) State {
		next := current.clone()
		next.Phase = PhaseLoaded
		next.Message = ""
		next.Shelves = shelvesRes.value
		next.IsRefreshing = false
		if listsRes.err == nil && listsRes.value != nil {
			next.BookLists = listsRes.value
		}
		return next
	})
	e.applyLoans(loans)

	if listsRes.err == nil {
		e.restoreListSelection(ctx)
	}
}

// RefreshShelf queues a coalesced refresh for one shelf.
func (e *Engine) RefreshShelf(ctx context.Context, key string) {
	e.scheduler.RequestRefresh(ctx, key)
}

// RefreshShelfIfStale refreshes the shelf only when its last sync is older
// than the staleness threshold. Unknown keys refresh unconditionally.
func (e *Engine) RefreshShelfIfStale(ctx context.Context, key string) {
	shelf, ok := e.store.Get().ShelfByKey(key)
	if ok && !shelf.IsStale(e.stalenessThreshold) {
		return
	}
	e.RefreshShelf(ctx, key)
}

// refreshShelfNow is the scheduler's dispatch target: fetch one shelf in
// full and swap only that entry into the latest snapshot.
func (e *Engine) refreshShelfNow(ctx context.Context, key string) {
	if !e.isAuthenticated() {
		return
	}

	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		next := current.clone()
		next.IsRefreshing = true
		return next
	})

	shelf, err := e.repo.GetShelf(ctx, key, true)
	if err != nil {
		e.logger.Warn("shelf refresh failed", "shelf", key, "error", err)
		e.store.Mutate(func(current State) State {
			if !current.IsLoaded() {
				return current
			}
			next := current.clone()
			next.IsRefreshing = false
			return next
		})
		return
	}

	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		next := current.withShelfReplaced(shelf)
		next.IsRefreshing = false
		return next
	})

	e.scheduleRedirectPass()
}

// progressiveLoad is the forced-refresh-with-no-data path: fetch the
// configured shelf keys, then each shelf in order, publishing an
// intermediate Loaded snapshot after every shelf so the UI fills in
// progressively. Lists load concurrently and merge into the final emission.
func (e *Engine) progressiveLoad(ctx context.Context) {
	listsCh := make(chan fetchResult[[]types.BookList], 1)
	go func() {
		lists, err := e.lists.GetBookLists(ctx)
		listsCh <- fetchResult[[]types.BookList]{lists, err}
	}()

	// The first request after a credential exchange can race the server's
	// session propagation; allow one retry after a short delay before
	// giving up.
	keys, err := retry.DoWithData(
		func() ([]string, error) {
			return e.repo.GetConfiguredShelfKeys(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(e.loginRetryAttempts+1),
		retry.Delay(e.loginRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return !IsAuthError(err) }),
	)
	if err != nil {
		<-listsCh
		e.failLoad(err, false)
		return
	}

	var loaded []types.Shelf
	failures := 0
	for _, key := range keys {
		shelf, err := e.repo.GetShelf(ctx, key, true)
		if err != nil {
			failures++
			e.logger.Warn("progressive shelf load failed", "shelf", key, "error", err)
			continue
		}
		loaded = append(loaded, shelf)

		snapshot := make([]types.Shelf, len(loaded))
		copy(snapshot, loaded)
		e.store.Mutate(func(current State) State {
			next := current.clone()
			next.Phase = PhaseLoaded
			next.Message = ""
			next.Shelves = snapshot
			next.BookLists = nil
			next.IsRefreshing = true
			return next
		})
	}

	listsRes := <-listsCh

	if len(keys) > 0 && failures == len(keys) {
		e.store.Set(ErrorState("failed to load shelves"))
		return
	}
	if listsRes.err != nil {
		e.logger.Warn("book list fetch failed", "error", listsRes.err)
	}

	e.store.Mutate(func(current State) State {
		next := current.clone()
		next.Phase = PhaseLoaded
		next.Message = ""
		next.IsRefreshing = false
		if listsRes.err == nil {
			next.BookLists = listsRes.value
		}
		return next
	})

	if listsRes.err == nil {
		e.restoreListSelection(ctx)
	}

	e.scheduleRedirectPass()
}

// failLoad routes a load failure per the taxonomy: auth failures never
// surface (the auth layer redirects to login), and existing data is never
// replaced by an error.
func (e *Engine) failLoad(err error, hadData bool) {
	if IsAuthError(err) {
		e.logger.Info("load aborted, not authenticated", "error", err)
		e.store.Mutate(func(current State) State {
			if current.IsLoaded() {
				next := current.clone()
				next.IsRefreshing = false
				return next
			}
			return InitialState()
		})
		return
	}

	e.logger.Error("shelf load failed", "error", err)
	e.store.Mutate(func(current State) State {
		if current.IsLoaded() {
			next := current.clone()
			next.IsRefreshing = false
			return next
		}
		return ErrorState(err.Error())
	})
}

type fetchResult[T any] struct {
	value T
	err   error
}
