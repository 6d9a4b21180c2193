package sync

import (
	"context"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// SelectList makes the list at url the currently displayed one and resolves
// its seeds into display items. On resolution failure the list stays
// selected with an empty item set, which is distinct from nothing selected.
func (e *Engine) SelectList(ctx context.Context, url string, forceRefresh bool) {
	if !e.isAuthenticated() {
		return
	}

	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		next := current.clone()
		next.SelectedListURL = url
		next.ListItems = nil
		next.IsLoadingListItems = true
		return next
	})

	if e.prefs != nil {
		if err := e.prefs.SetSelectedListURL(url); err != nil {
			e.logger.Warn("persisting list selection failed", "error", err)
		}
	}

	items, err := e.lists.GetListSeeds(ctx, url, forceRefresh)
	if err != nil {
		e.logger.Warn("list seed resolution failed", "list", url, "error", err)
		items = nil
	}

	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() || current.SelectedListURL != url {
			// Selection moved on while we were fetching; drop the result.
			return current
		}
		next := current.clone()
		next.ListItems = items
		next.IsLoadingListItems = false
		return next
	})
}

// ClearListSelection empties the displayed-list slot.
func (e *Engine) ClearListSelection() {
	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		next := current.clone()
		next.SelectedListURL = ""
		next.ListItems = nil
		next.IsLoadingListItems = false
		return next
	})
	if e.prefs != nil {
		if err := e.prefs.SetSelectedListURL(""); err != nil {
			e.logger.Warn("clearing list selection failed", "error", err)
		}
	}
}

// RefreshCurrentList re-resolves the currently displayed list, if any.
func (e *Engine) RefreshCurrentList(ctx context.Context) {
	url := e.store.Get().SelectedListURL
	if url == "" {
		return
	}
	e.SelectList(ctx, url, true)
}

// AddBookToList adds the book as a seed of the list at listURL, then
// refreshes list metadata; when the mutated list is on display its contents
// reload too.
func (e *Engine) AddBookToList(ctx context.Context, book types.Book, listURL string) error {
	if !e.isAuthenticated() {
		return nil
	}
	if err := e.lists.AddSeed(ctx, listURL, book); err != nil {
		e.surfaceMutationError("add book to list", err)
		return err
	}
	e.afterListMutation(ctx, listURL)
	return nil
}

// RemoveBookFromCurrentList removes the book from the currently displayed
// list. No-op when nothing is selected.
func (e *Engine) RemoveBookFromCurrentList(ctx context.Context, book types.Book) error {
	url := e.store.Get().SelectedListURL
	if url == "" || !e.isAuthenticated() {
		return nil
	}
	if err := e.lists.RemoveSeed(ctx, url, book); err != nil {
		e.surfaceMutationError("remove book from list", err)
		return err
	}
	e.afterListMutation(ctx, url)
	return nil
}

// afterListMutation refreshes list metadata (seed counts) and reloads the
// displayed list when it was the one mutated.
func (e *Engine) afterListMutation(ctx context.Context, listURL string) {
	lists, err := e.lists.GetBookLists(ctx)
	if err != nil {
		e.logger.Warn("list metadata refresh failed", "error", err)
	} else {
		e.store.Mutate(func(current State) State {
			if !current.IsLoaded() {
				return current
			}
			next := current.clone()
			next.BookLists = lists
			return next
		})
	}

	if e.store.Get().SelectedListURL == listURL {
		e.SelectList(ctx, listURL, true)
	}
}

// restoreListSelection re-selects the list persisted from a previous
// session, provided it still exists and nothing else got selected meanwhile.
func (e *Engine) restoreListSelection(ctx context.Context) {
	if e.prefs == nil {
		return
	}
	url, err := e.prefs.SelectedListURL()
	if err != nil {
		e.logger.Warn("reading persisted list selection failed", "error", err)
		return
	}
	if url == "" {
		return
	}
	state := e.store.Get()
	if !state.IsLoaded() || state.SelectedListURL != "" {
		return
	}
	if _, ok := state.ListByURL(url); !ok {
		return
	}
	e.SelectList(ctx, url, false)
}
