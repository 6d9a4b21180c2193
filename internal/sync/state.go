// Package sync owns the shelf synchronization engine: the single state
// snapshot shared with the UI layer, the operations that mutate it against
// the remote service, per-shelf refresh coalescing, and the background
// redirect repair pass.
package sync

import (
	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// Phase discriminates the state variant.
type Phase int

const (
	// PhaseInitial means nothing has been loaded yet.
	PhaseInitial Phase = iota
	// PhaseLoading means the first load is in progress and no data exists.
	PhaseLoading
	// PhaseLoaded is the steady state; refreshes keep this phase and set
	// IsRefreshing instead of reverting to PhaseLoading.
	PhaseLoaded
	// PhaseError means a load failed with no prior data to fall back on.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is one immutable snapshot of synchronization state. The payload
// fields are meaningful only in the phase that carries them: Shelves through
// IsLoadingListItems belong to PhaseLoaded, Message to PhaseError.
// Subscribers must never mutate a snapshot they receive.
type State struct {
	Phase Phase

	Shelves            []types.Shelf
	BookLists          []types.BookList
	IsRefreshing       bool
	SelectedListURL    string
	ListItems          []types.DisplayItem
	IsLoadingListItems bool

	Message string
}

// InitialState returns the empty pre-load state.
func InitialState() State {
	return State{Phase: PhaseInitial}
}

// LoadingState returns the first-load-in-progress state.
func LoadingState() State {
	return State{Phase: PhaseLoading}
}

// ErrorState returns a failed-load state with the given message.
func ErrorState(message string) State {
	return State{Phase: PhaseError, Message: message}
}

// IsLoaded reports whether the snapshot carries data.
func (s State) IsLoaded() bool {
	return s.Phase == PhaseLoaded
}

// ShelfByKey returns the shelf with the given key and whether it exists.
func (s State) ShelfByKey(key string) (types.Shelf, bool) {
	for _, sh := range s.Shelves {
		if sh.Key == key {
			return sh, true
		}
	}
	return types.Shelf{}, false
}

// ListByURL returns the list with the given URL and whether it exists.
func (s State) ListByURL(url string) (types.BookList, bool) {
	for _, l := range s.BookLists {
		if l.URL == url {
			return l, true
		}
	}
	return types.BookList{}, false
}

// clone returns a deep enough copy of the snapshot that callers can replace
// shelf entries and book slices without aliasing the published value.
func (s State) clone() State {
	out := s
	if s.Shelves != nil {
		out.Shelves = make([]types.Shelf, len(s.Shelves))
		for i, sh := range s.Shelves {
			books := make([]types.Book, len(sh.Books))
			copy(books, sh.Books)
			sh.Books = books
			out.Shelves[i] = sh
		}
	}
	if s.BookLists != nil {
		out.BookLists = make([]types.BookList, len(s.BookLists))
		copy(out.BookLists, s.BookLists)
	}
	if s.ListItems != nil {
		out.ListItems = make([]types.DisplayItem, len(s.ListItems))
		copy(out.ListItems, s.ListItems)
	}
	return out
}

// withShelfReplaced returns a copy of the snapshot with the shelf matching
// updated.Key swapped out. Shelves without that key are untouched.
func (s State) withShelfReplaced(updated types.Shelf) State {
	out := s.clone()
	for i, sh := range out.Shelves {
		if sh.Key == updated.Key {
			out.Shelves[i] = updated
			break
		}
	}
	return out
}
