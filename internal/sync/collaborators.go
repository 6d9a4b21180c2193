package sync

import (
	"context"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// RemoveFromAllShelves is the MoveBookToShelf target that takes a book off
// every shelf instead of moving it to one.
const RemoveFromAllShelves = "__remove__"

// ShelfRepository fetches and mutates shelf data against the remote service,
// optionally serving reads from a local cache when forceRefresh is false.
type ShelfRepository interface {
	GetShelves(ctx context.Context, forceRefresh bool) ([]types.Shelf, error)
	GetShelf(ctx context.Context, key string, forceRefresh bool) (types.Shelf, error)
	GetConfiguredShelfKeys(ctx context.Context) ([]string, error)
	GetUserLoans(ctx context.Context, forceRefresh bool) (map[string]types.Loan, error)
	MoveBookToShelf(ctx context.Context, book types.Book, targetKey string) error
	RemoveBookFromShelf(ctx context.Context, book types.Book, key string) error
	UpdateShelfSort(ctx context.Context, key string, order types.SortOrder, ascending bool) error
	UpdateShelfVisibility(ctx context.Context, key string, visible bool) (types.Shelf, error)
	ClearCache()
}

// ListService fetches and mutates curated lists and resolves their seeds
// into display items.
type ListService interface {
	GetBookLists(ctx context.Context) ([]types.BookList, error)
	GetListSeeds(ctx context.Context, listURL string, forceRefresh bool) ([]types.DisplayItem, error)
	AddSeed(ctx context.Context, listURL string, book types.Book) error
	RemoveSeed(ctx context.Context, listURL string, book types.Book) error
}

// WorkResolution is the outcome of a single-hop redirect check. NewWorkID is
// empty when the work was fetched in place (no redirect).
type WorkResolution struct {
	NewWorkID string
	Title     string
	Authors   []string
	CoverID   string
	CoverURL  string
}

// WorkResolver fetches a work record, following at most one redirect hop.
type WorkResolver interface {
	ResolveWorkRedirect(ctx context.Context, workID string) (WorkResolution, error)
}

// PreferenceStore persists the single "currently selected list URL" value
// across sessions.
type PreferenceStore interface {
	SelectedListURL() (string, error)
	SetSelectedListURL(url string) error
}
