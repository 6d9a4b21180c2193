package sync

import (
	"context"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// MoveBookToShelf moves a book onto targetKey (or off every shelf when
// targetKey is RemoveFromAllShelves). The remote call runs first; only after
// it succeeds is the local state rewritten, so a failure leaves local and
// remote consistent. Returns whether the move succeeded.
func (e *Engine) MoveBookToShelf(ctx context.Context, book types.Book, targetKey string) bool {
	if !e.isAuthenticated() {
		return false
	}

	if err := e.repo.MoveBookToShelf(ctx, book, targetKey); err != nil {
		e.surfaceMutationError("move book", err)
		return false
	}

	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		return applyMove(current, book, targetKey)
	})
	return true
}

// applyMove enforces the one-shelf-per-work invariant in a single pass over
// the snapshot: the target shelf gains (or re-keys) the book, every other
// shelf drops any entry with the same work identity.
func applyMove(current State, book types.Book, targetKey string) State {
	next := current.clone()
	for i := range next.Shelves {
		shelf := &next.Shelves[i]
		if shelf.Key == targetKey {
			if idx := shelf.IndexOfWork(book.WorkID); idx >= 0 {
				// Same work, possibly a new edition; keep its position.
				shelf.Books[idx] = book
			} else {
				shelf.Books = append(shelf.Books, book)
				shelf.TotalCount++
				types.SortBooks(shelf.Books, shelf.SortOrder, shelf.SortAscending)
			}
			continue
		}
		if idx := shelf.IndexOfWork(book.WorkID); idx >= 0 {
			shelf.Books = append(shelf.Books[:idx], shelf.Books[idx+1:]...)
			shelf.TotalCount--
		}
	}
	return next
}

// RemoveBookFromShelf removes the book from the named shelf, remotely then
// locally.
func (e *Engine) RemoveBookFromShelf(ctx context.Context, book types.Book, key string) error {
	if !e.isAuthenticated() {
		return nil
	}

	if err := e.repo.RemoveBookFromShelf(ctx, book, key); err != nil {
		e.surfaceMutationError("remove book", err)
		return err
	}

	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		next := current.clone()
		for i := range next.Shelves {
			shelf := &next.Shelves[i]
			if shelf.Key != key {
				continue
			}
			if idx := shelf.IndexOfWork(book.WorkID); idx >= 0 {
				shelf.Books = append(shelf.Books[:idx], shelf.Books[idx+1:]...)
				shelf.TotalCount--
			}
		}
		return next
	})
	return nil
}

// UpdateShelfSort changes a shelf's sort remotely, then re-orders the local
// entry to match.
func (e *Engine) UpdateShelfSort(ctx context.Context, key string, order types.SortOrder, ascending bool) error {
	if !e.isAuthenticated() {
		return nil
	}

	if err := e.repo.UpdateShelfSort(ctx, key, order, ascending); err != nil {
		e.surfaceMutationError("update shelf sort", err)
		return err
	}

	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		next := current.clone()
		for i := range next.Shelves {
			shelf := &next.Shelves[i]
			if shelf.Key != key {
				continue
			}
			shelf.SortOrder = order
			shelf.SortAscending = ascending
			types.SortBooks(shelf.Books, order, ascending)
		}
		return next
	})
	return nil
}

// UpdateShelfVisibility toggles whether a shelf shows in the UI. The
// repository returns the updated shelf, which replaces the local entry.
func (e *Engine) UpdateShelfVisibility(ctx context.Context, key string, visible bool) error {
	if !e.isAuthenticated() {
		return nil
	}

	shelf, err := e.repo.UpdateShelfVisibility(ctx, key, visible)
	if err != nil {
		e.surfaceMutationError("update shelf visibility", err)
		return err
	}

	e.store.Mutate(func(current State) State {
		if !current.IsLoaded() {
			return current
		}
		return current.withShelfReplaced(shelf)
	})
	return nil
}

// surfaceMutationError publishes an Error state for user-invoked mutation
// failures. Auth failures are logged only; the auth layer owns recovery.
func (e *Engine) surfaceMutationError(op string, err error) {
	if IsAuthError(err) {
		e.logger.Info("mutation aborted, not authenticated", "op", op, "error", err)
		return
	}
	e.logger.Error("mutation failed", "op", op, "error", err)
	e.store.Set(ErrorState(err.Error()))
}
