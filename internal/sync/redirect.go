package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// RedirectResolver is the background repair pass for books whose canonical
// work record moved server-side. It scans the current snapshot for redirect
// candidates, resolves each through the work collaborator (which follows at
// most one redirect hop), and publishes a single consolidated state update
// after the whole scan. Remote reconciliation of each fix is fire-and-forget
// and allowed to leave the server briefly behind local state on error.
type RedirectResolver struct {
	store  *Store
	repo   ShelfRepository
	works  WorkResolver
	logger *slog.Logger

	running atomic.Bool
}

// RedirectResolverConfig configures a resolver.
type RedirectResolverConfig struct {
	Store  *Store
	Repo   ShelfRepository
	Works  WorkResolver
	Logger *slog.Logger
}

// NewRedirectResolver creates a resolver.
func NewRedirectResolver(cfg RedirectResolverConfig) *RedirectResolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RedirectResolver{
		store:  cfg.Store,
		repo:   cfg.Repo,
		works:  cfg.Works,
		logger: logger.With("component", "redirect"),
	}
}

type redirectFix struct {
	shelfKey  string
	oldWorkID string
	updated   types.Book
}

// Run executes one scan pass. A pass already in progress makes Run a no-op;
// passes are best effort and the next trigger will catch anything missed.
func (r *RedirectResolver) Run(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	defer r.running.Store(false)

	snapshot := r.store.Get()
	if !snapshot.IsLoaded() {
		return
	}

	var fixes []redirectFix
	for _, shelf := range snapshot.Shelves {
		for _, book := range shelf.Books {
			if ctx.Err() != nil {
				return
			}
			if !book.NeedsRedirectCheck() {
				continue
			}
			fix, ok := r.resolveCandidate(ctx, shelf.Key, book)
			if !ok {
				continue
			}
			fixes = append(fixes, fix)
			go r.reconcileRemote(ctx, fix.shelfKey, book, fix.updated)
		}
	}

	if len(fixes) == 0 {
		return
	}

	// One consolidated emission against the latest snapshot, so concurrent
	// user mutations published during the scan are not clobbered.
	r.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		next := current.clone()
		for _, fix := range fixes {
			for i := range next.Shelves {
				if next.Shelves[i].Key != fix.shelfKey {
					continue
				}
				if idx := next.Shelves[i].IndexOfWork(fix.oldWorkID); idx >= 0 {
					next.Shelves[i].Books[idx] = fix.updated
				}
			}
		}
		return next
	})
	r.logger.Info("redirect pass repaired books", "count", len(fixes))
}

// resolveCandidate asks the work collaborator for the book's current record.
// Only an actual redirect (a changed work identity) produces a fix.
func (r *RedirectResolver) resolveCandidate(ctx context.Context, shelfKey string, book types.Book) (redirectFix, bool) {
	res, err := r.works.ResolveWorkRedirect(ctx, book.WorkID)
	if err != nil {
		r.logger.Debug("redirect resolution failed", "work", book.WorkID, "error", err)
		return redirectFix{}, false
	}
	if res.NewWorkID == "" || res.NewWorkID == book.WorkID {
		return redirectFix{}, false
	}

	updated := book
	updated.WorkID = res.NewWorkID
	updated.Title = res.Title
	updated.Authors = res.Authors
	if res.CoverID != "" || res.CoverURL != "" {
		updated.CoverID = res.CoverID
		updated.CoverURL = res.CoverURL
	}
	// Resolved record without covers keeps whatever cover data we had.

	r.logger.Info("resolved redirected work",
		"shelf", shelfKey,
		"old_work", book.WorkID,
		"new_work", res.NewWorkID,
	)
	return redirectFix{shelfKey: shelfKey, oldWorkID: book.WorkID, updated: updated}, true
}

// reconcileRemote moves the shelf's remote membership from the old work to
// the new one. Failures are logged and dropped; a later pass or refresh
// converges the remote side eventually.
func (r *RedirectResolver) reconcileRemote(ctx context.Context, shelfKey string, old, updated types.Book) {
	if err := r.repo.RemoveBookFromShelf(ctx, old, shelfKey); err != nil {
		r.logger.Warn("remote redirect cleanup failed",
			"shelf", shelfKey, "work", old.WorkID, "error", err)
		return
	}
	if err := r.repo.MoveBookToShelf(ctx, updated, shelfKey); err != nil {
		r.logger.Warn("remote redirect re-add failed",
			"shelf", shelfKey, "work", updated.WorkID, "error", err)
	}
}
