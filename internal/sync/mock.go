package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// MockRepository is an in-memory ShelfRepository for tests. Configure the
// canned data and errors, then inspect the recorded calls.
type MockRepository struct {
	mu sync.Mutex

	Shelves    []types.Shelf
	ShelvesErr error
	ShelfByKey map[string]types.Shelf
	ShelfErr   map[string]error
	Keys       []string
	KeysErr    error
	// KeysFailures makes the first N GetConfiguredShelfKeys calls fail with
	// KeysErr before succeeding, for exercising the post-login retry. With
	// KeysFailures zero, a set KeysErr fails every call.
	KeysFailures  int
	Loans         map[string]types.Loan
	LoansErr      error
	MoveErr       error
	RemoveErr     error
	SortErr       error
	VisibilityErr error
	// Latency delays every fetch, to widen windows for coalescing tests.
	Latency time.Duration

	GetShelvesCalls int
	GetShelfCalls   map[string]int
	KeysCalls       int
	MoveCalls       []MockMoveCall
	RemoveCalls     []MockRemoveCall
	SortCalls       int
	ClearCacheCalls int
}

// MockMoveCall records one MoveBookToShelf invocation.
type MockMoveCall struct {
	WorkID    string
	TargetKey string
}

// MockRemoveCall records one RemoveBookFromShelf invocation.
type MockRemoveCall struct {
	WorkID   string
	ShelfKey string
}

func (m *MockRepository) sleep() {
	if m.Latency > 0 {
		time.Sleep(m.Latency)
	}
}

func (m *MockRepository) GetShelves(ctx context.Context, forceRefresh bool) ([]types.Shelf, error) {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetShelvesCalls++
	if m.ShelvesErr != nil {
		return nil, m.ShelvesErr
	}
	out := make([]types.Shelf, len(m.Shelves))
	copy(out, m.Shelves)
	return out, nil
}

func (m *MockRepository) GetShelf(ctx context.Context, key string, forceRefresh bool) (types.Shelf, error) {
	m.sleep()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetShelfCalls == nil {
		m.GetShelfCalls = make(map[string]int)
	}
	m.GetShelfCalls[key]++
	if err := m.ShelfErr[key]; err != nil {
		return types.Shelf{}, err
	}
	shelf, ok := m.ShelfByKey[key]
	if !ok {
		return types.Shelf{}, fmt.Errorf("no such shelf: %s", key)
	}
	return shelf, nil
}

func (m *MockRepository) GetConfiguredShelfKeys(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeysCalls++
	if m.KeysErr != nil {
		err := m.KeysErr
		if m.KeysFailures > 0 {
			m.KeysFailures--
			if m.KeysFailures == 0 {
				m.KeysErr = nil
			}
		}
		return nil, err
	}
	return m.Keys, nil
}

func (m *MockRepository) GetUserLoans(ctx context.Context, forceRefresh bool) (map[string]types.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoansErr != nil {
		return nil, m.LoansErr
	}
	return m.Loans, nil
}

func (m *MockRepository) MoveBookToShelf(ctx context.Context, book types.Book, targetKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MoveCalls = append(m.MoveCalls, MockMoveCall{WorkID: book.WorkID, TargetKey: targetKey})
	return m.MoveErr
}

func (m *MockRepository) RemoveBookFromShelf(ctx context.Context, book types.Book, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalls = append(m.RemoveCalls, MockRemoveCall{WorkID: book.WorkID, ShelfKey: key})
	return m.RemoveErr
}

func (m *MockRepository) UpdateShelfSort(ctx context.Context, key string, order types.SortOrder, ascending bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SortCalls++
	return m.SortErr
}

func (m *MockRepository) UpdateShelfVisibility(ctx context.Context, key string, visible bool) (types.Shelf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VisibilityErr != nil {
		return types.Shelf{}, m.VisibilityErr
	}
	shelf := m.ShelfByKey[key]
	shelf.IsVisible = visible
	return shelf, nil
}

func (m *MockRepository) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCacheCalls++
}

// MockListService is an in-memory ListService for tests.
type MockListService struct {
	mu sync.Mutex

	Lists    []types.BookList
	ListsErr error
	Seeds    map[string][]types.DisplayItem
	SeedsErr error
	AddErr   error
	RemErr   error

	GetListsCalls int
	GetSeedsCalls map[string]int
	AddCalls      []MockSeedCall
	RemoveCalls   []MockSeedCall
}

// MockSeedCall records one seed mutation.
type MockSeedCall struct {
	ListURL string
	WorkID  string
}

func (m *MockListService) GetBookLists(ctx context.Context) ([]types.BookList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetListsCalls++
	if m.ListsErr != nil {
		return nil, m.ListsErr
	}
	out := make([]types.BookList, len(m.Lists))
	copy(out, m.Lists)
	return out, nil
}

func (m *MockListService) GetListSeeds(ctx context.Context, listURL string, forceRefresh bool) ([]types.DisplayItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetSeedsCalls == nil {
		m.GetSeedsCalls = make(map[string]int)
	}
	m.GetSeedsCalls[listURL]++
	if m.SeedsErr != nil {
		return nil, m.SeedsErr
	}
	return m.Seeds[listURL], nil
}

func (m *MockListService) AddSeed(ctx context.Context, listURL string, book types.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls = append(m.AddCalls, MockSeedCall{ListURL: listURL, WorkID: book.WorkID})
	return m.AddErr
}

func (m *MockListService) RemoveSeed(ctx context.Context, listURL string, book types.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalls = append(m.RemoveCalls, MockSeedCall{ListURL: listURL, WorkID: book.WorkID})
	return m.RemErr
}

// MockWorkResolver resolves redirects from a canned table.
type MockWorkResolver struct {
	mu sync.Mutex

	Resolutions map[string]WorkResolution
	Err         error

	Calls []string
}

func (m *MockWorkResolver) ResolveWorkRedirect(ctx context.Context, workID string) (WorkResolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, workID)
	if m.Err != nil {
		return WorkResolution{}, m.Err
	}
	return m.Resolutions[workID], nil
}

// MockPrefs is an in-memory PreferenceStore.
type MockPrefs struct {
	mu sync.Mutex

	URL    string
	GetErr error
	SetErr error

	SetCalls []string
}

func (m *MockPrefs) SelectedListURL() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.URL, m.GetErr
}

func (m *MockPrefs) SetSelectedListURL(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls = append(m.SetCalls, url)
	if m.SetErr != nil {
		return m.SetErr
	}
	m.URL = url
	return nil
}
