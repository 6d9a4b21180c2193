package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/mheiman/openlibrary-reader-sub000/internal/cache"
	syncpkg "github.com/mheiman/openlibrary-reader-sub000/internal/sync"
	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// Repository implements sync.ShelfRepository over the HTTP client, with an
// in-memory memo and an optional persistent cache in front of non-forced
// reads. The cache is an optimization only; cache failures are logged and
// the call proceeds against the network.
type Repository struct {
	client *Client
	cache  *cache.Store
	logger *slog.Logger

	mu      sync.Mutex
	shelves []types.Shelf
	loans   map[string]types.Loan
}

// NewRepository creates a repository. cacheStore may be nil.
func NewRepository(client *Client, cacheStore *cache.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		client: client,
		cache:  cacheStore,
		logger: logger.With("component", "repository"),
	}
}

// GetShelves returns all shelves with their full book lists. Non-forced
// reads are served from memory, then from the persistent cache, before
// going to the network.
func (r *Repository) GetShelves(ctx context.Context, forceRefresh bool) ([]types.Shelf, error) {
	if !forceRefresh {
		r.mu.Lock()
		if r.shelves != nil {
			out := cloneShelves(r.shelves)
			r.mu.Unlock()
			return out, nil
		}
		r.mu.Unlock()

		if r.cache != nil {
			cached, err := r.cache.LoadShelves()
			if err != nil {
				r.logger.Warn("shelf cache read failed", "error", (&syncpkg.CacheError{Err: err}).Error())
			} else if cached != nil {
				r.mu.Lock()
				r.shelves = cloneShelves(cached)
				r.mu.Unlock()
				return cached, nil
			}
		}
	}

	var envelope shelvesEnvelope
	if err := r.client.get(ctx, "/shelves", &envelope); err != nil {
		return nil, fmt.Errorf("fetching shelves: %w", err)
	}

	shelves := make([]types.Shelf, 0, len(envelope.Shelves))
	for _, ws := range envelope.Shelves {
		shelf := ws.toShelf()
		books, err := r.fetchAllBooks(ctx, shelf.Key, shelf.TotalCount)
		if err != nil {
			return nil, fmt.Errorf("fetching shelf %s: %w", shelf.Key, err)
		}
		shelf.Books = books
		shelf.TotalCount = len(books)
		shelf.LastSyncedAt = time.Now()
		shelves = append(shelves, shelf)
	}
	sort.SliceStable(shelves, func(i, j int) bool {
		return shelves[i].DisplayOrder < shelves[j].DisplayOrder
	})

	r.mu.Lock()
	r.shelves = cloneShelves(shelves)
	r.mu.Unlock()

	if r.cache != nil {
		if err := r.cache.SaveShelves(shelves); err != nil {
			r.logger.Warn("shelf cache write failed", "error", (&syncpkg.CacheError{Err: err}).Error())
		}
	}
	return shelves, nil
}

// GetShelf returns one shelf with every page of its books fetched. A shelf
// is never represented by a partial page.
func (r *Repository) GetShelf(ctx context.Context, key string, forceRefresh bool) (types.Shelf, error) {
	if !forceRefresh {
		r.mu.Lock()
		for _, s := range r.shelves {
			if s.Key == key {
				out := s
				out.Books = append([]types.Book(nil), s.Books...)
				r.mu.Unlock()
				return out, nil
			}
		}
		r.mu.Unlock()
	}

	var ws wireShelf
	if err := r.client.get(ctx, "/shelves/"+url.PathEscape(key), &ws); err != nil {
		return types.Shelf{}, fmt.Errorf("fetching shelf %s: %w", key, err)
	}
	shelf := ws.toShelf()
	books, err := r.fetchAllBooks(ctx, key, shelf.TotalCount)
	if err != nil {
		return types.Shelf{}, fmt.Errorf("fetching shelf %s books: %w", key, err)
	}
	shelf.Books = books
	shelf.TotalCount = len(books)
	shelf.LastSyncedAt = time.Now()

	r.mu.Lock()
	for i := range r.shelves {
		if r.shelves[i].Key == key {
			r.shelves[i] = shelf
			break
		}
	}
	r.mu.Unlock()
	return shelf, nil
}

// fetchAllBooks pages through a shelf until the accumulated count reaches
// the server-reported total or a page comes back empty.
func (r *Repository) fetchAllBooks(ctx context.Context, key string, total int) ([]types.Book, error) {
	var books []types.Book
	for page := 1; ; page++ {
		var p shelfPage
		path := fmt.Sprintf("/shelves/%s/books?page=%d&limit=%d",
			url.PathEscape(key), page, r.client.pageSize)
		if err := r.client.get(ctx, path, &p); err != nil {
			return nil, err
		}
		if p.Total > 0 {
			total = p.Total
		}
		if len(p.Entries) == 0 {
			break
		}
		for _, wb := range p.Entries {
			books = append(books, wb.toBook())
		}
		if total > 0 && len(books) >= total {
			break
		}
	}
	return books, nil
}

// GetConfiguredShelfKeys returns the shelf keys in display order.
func (r *Repository) GetConfiguredShelfKeys(ctx context.Context) ([]string, error) {
	var envelope keysEnvelope
	if err := r.client.get(ctx, "/shelves/keys", &envelope); err != nil {
		return nil, fmt.Errorf("fetching shelf keys: %w", err)
	}
	return envelope.Keys, nil
}

// GetUserLoans returns the user's current entitlements keyed by edition.
func (r *Repository) GetUserLoans(ctx context.Context, forceRefresh bool) (map[string]types.Loan, error) {
	if !forceRefresh {
		r.mu.Lock()
		if r.loans != nil {
			out := make(map[string]types.Loan, len(r.loans))
			for k, v := range r.loans {
				out[k] = v
			}
			r.mu.Unlock()
			return out, nil
		}
		r.mu.Unlock()
	}

	var envelope loansEnvelope
	if err := r.client.get(ctx, "/loans", &envelope); err != nil {
		return nil, fmt.Errorf("fetching loans: %w", err)
	}
	loans := make(map[string]types.Loan, len(envelope.Loans))
	for _, wl := range envelope.Loans {
		loans[wl.EditionID] = types.Loan{
			EditionID: wl.EditionID,
			LoanedAt:  wl.LoanedAt,
			ExpiresAt: wl.ExpiresAt,
		}
	}

	r.mu.Lock()
	r.loans = loans
	r.mu.Unlock()
	return loans, nil
}

type moveRequest struct {
	WorkID    string `json:"work_id"`
	EditionID string `json:"edition_id,omitempty"`
	Target    string `json:"target,omitempty"`
	Remove    bool   `json:"remove,omitempty"`
}

// MoveBookToShelf moves the book's shelf membership server-side. The
// RemoveFromAllShelves sentinel maps to the API's remove flag.
func (r *Repository) MoveBookToShelf(ctx context.Context, book types.Book, targetKey string) error {
	req := moveRequest{WorkID: book.WorkID, EditionID: book.EditionID}
	if targetKey == syncpkg.RemoveFromAllShelves {
		req.Remove = true
	} else {
		req.Target = targetKey
	}
	if err := r.client.post(ctx, "/shelves/move", req, nil); err != nil {
		return fmt.Errorf("moving book %s: %w", book.WorkID, err)
	}
	return nil
}

// RemoveBookFromShelf removes the book from the named shelf server-side.
func (r *Repository) RemoveBookFromShelf(ctx context.Context, book types.Book, key string) error {
	path := fmt.Sprintf("/shelves/%s/books/%s", url.PathEscape(key), url.PathEscape(book.WorkID))
	if err := r.client.delete(ctx, path); err != nil {
		return fmt.Errorf("removing book %s from %s: %w", book.WorkID, key, err)
	}
	return nil
}

type shelfPatch struct {
	SortOrder     *string `json:"sort_order,omitempty"`
	SortAscending *bool   `json:"sort_ascending,omitempty"`
	Visible       *bool   `json:"visible,omitempty"`
}

// UpdateShelfSort persists a shelf's sort settings.
func (r *Repository) UpdateShelfSort(ctx context.Context, key string, order types.SortOrder, ascending bool) error {
	o := string(order)
	patch := shelfPatch{SortOrder: &o, SortAscending: &ascending}
	if err := r.client.patch(ctx, "/shelves/"+url.PathEscape(key), patch, nil); err != nil {
		return fmt.Errorf("updating shelf %s sort: %w", key, err)
	}
	return nil
}

// UpdateShelfVisibility toggles a shelf's visibility and returns the updated
// shelf, with books carried over from the last fetch.
func (r *Repository) UpdateShelfVisibility(ctx context.Context, key string, visible bool) (types.Shelf, error) {
	var ws wireShelf
	patch := shelfPatch{Visible: &visible}
	if err := r.client.patch(ctx, "/shelves/"+url.PathEscape(key), patch, &ws); err != nil {
		return types.Shelf{}, fmt.Errorf("updating shelf %s visibility: %w", key, err)
	}
	shelf := ws.toShelf()

	r.mu.Lock()
	for i := range r.shelves {
		if r.shelves[i].Key == key {
			shelf.Books = append([]types.Book(nil), r.shelves[i].Books...)
			shelf.TotalCount = r.shelves[i].TotalCount
			shelf.LastSyncedAt = r.shelves[i].LastSyncedAt
			r.shelves[i].IsVisible = visible
			break
		}
	}
	r.mu.Unlock()
	return shelf, nil
}

// ClearCache drops the in-memory memo and the persistent snapshot.
func (r *Repository) ClearCache() {
	r.mu.Lock()
	r.shelves = nil
	r.loans = nil
	r.mu.Unlock()

	if r.cache != nil {
		if err := r.cache.Clear(); err != nil {
			r.logger.Warn("cache clear failed", "error", (&syncpkg.CacheError{Err: err}).Error())
		}
	}
}

func cloneShelves(shelves []types.Shelf) []types.Shelf {
	out := make([]types.Shelf, len(shelves))
	for i, s := range shelves {
		books := make([]types.Book, len(s.Books))
		copy(books, s.Books)
		s.Books = books
		out[i] = s
	}
	return out
}
