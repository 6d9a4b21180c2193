package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/mheiman/openlibrary-reader-sub000/internal/cache"
	syncpkg "github.com/mheiman/openlibrary-reader-sub000/internal/sync"
	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// ListService implements sync.ListService. Seed resolutions are memoized
// per list URL so re-selecting a list does not refetch unless forced.
type ListService struct {
	client *Client
	cache  *cache.Store
	logger *slog.Logger

	mu    sync.Mutex
	seeds map[string][]types.DisplayItem
}

// NewListService creates a list service. cacheStore may be nil.
func NewListService(client *Client, cacheStore *cache.Store, logger *slog.Logger) *ListService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListService{
		client: client,
		cache:  cacheStore,
		logger: logger.With("component", "lists"),
		seeds:  make(map[string][]types.DisplayItem),
	}
}

// GetBookLists returns the user's curated lists. Successful fetches are
// written through to the persistent cache; a fetch failure falls back to
// the last cached snapshot when one exists.
func (s *ListService) GetBookLists(ctx context.Context) ([]types.BookList, error) {
	var envelope listsEnvelope
	if err := s.client.get(ctx, "/lists", &envelope); err != nil {
		if s.cache != nil {
			cached, cacheErr := s.cache.LoadLists()
			if cacheErr == nil && cached != nil {
				s.logger.Warn("list fetch failed, serving cached snapshot", "error", err)
				return cached, nil
			}
		}
		return nil, fmt.Errorf("fetching lists: %w", err)
	}
	lists := make([]types.BookList, 0, len(envelope.Lists))
	for _, wl := range envelope.Lists {
		lists = append(lists, types.BookList{
			URL:        wl.URL,
			Name:       wl.Name,
			SeedCount:  wl.SeedCount,
			LastUpdate: wl.LastUpdate,
		})
	}
	if s.cache != nil {
		if err := s.cache.SaveLists(lists); err != nil {
			s.logger.Warn("list cache write failed", "error", (&syncpkg.CacheError{Err: err}).Error())
		}
	}
	return lists, nil
}

// GetListSeeds resolves a list's seeds into display items.
func (s *ListService) GetListSeeds(ctx context.Context, listURL string, forceRefresh bool) ([]types.DisplayItem, error) {
	if !forceRefresh {
		s.mu.Lock()
		if items, ok := s.seeds[listURL]; ok {
			out := make([]types.DisplayItem, len(items))
			copy(out, items)
			s.mu.Unlock()
			return out, nil
		}
		s.mu.Unlock()
	}

	var envelope seedsEnvelope
	path := "/lists/seeds?list=" + url.QueryEscape(listURL)
	if err := s.client.get(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("resolving list seeds: %w", err)
	}
	items := make([]types.DisplayItem, 0, len(envelope.Items))
	for _, wi := range envelope.Items {
		items = append(items, types.DisplayItem{
			Kind:     wi.Kind,
			Key:      wi.Key,
			Title:    wi.Title,
			Byline:   wi.Byline,
			CoverURL: wi.CoverURL,
		})
	}

	s.mu.Lock()
	s.seeds[listURL] = items
	s.mu.Unlock()

	out := make([]types.DisplayItem, len(items))
	copy(out, items)
	return out, nil
}

type seedRequest struct {
	List   string `json:"list"`
	WorkID string `json:"work_id"`
}

// AddSeed adds a work seed to a list.
func (s *ListService) AddSeed(ctx context.Context, listURL string, book types.Book) error {
	req := seedRequest{List: listURL, WorkID: book.WorkID}
	if err := s.client.post(ctx, "/lists/seeds", req, nil); err != nil {
		return fmt.Errorf("adding seed to %s: %w", listURL, err)
	}
	s.invalidate(listURL)
	return nil
}

// RemoveSeed removes a work seed from a list.
func (s *ListService) RemoveSeed(ctx context.Context, listURL string, book types.Book) error {
	req := seedRequest{List: listURL, WorkID: book.WorkID}
	if err := s.client.post(ctx, "/lists/seeds/remove", req, nil); err != nil {
		return fmt.Errorf("removing seed from %s: %w", listURL, err)
	}
	s.invalidate(listURL)
	return nil
}

func (s *ListService) invalidate(listURL string) {
	s.mu.Lock()
	delete(s.seeds, listURL)
	s.mu.Unlock()
}
