package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

func listEngine(t *testing.T, lists *MockListService, prefs *MockPrefs) *Engine {
	t.Helper()
	e := newTestEngine(t, EngineConfig{
		Repo:  &MockRepository{},
		Lists: lists,
		Works: &MockWorkResolver{},
		Prefs: prefs,
	})
	e.store.Set(State{
		Phase:   PhaseLoaded,
		Shelves: testShelves(),
		BookLists: []types.BookList{
			{URL: "/lists/OL1L", Name: "Favorites", SeedCount: 2},
			{URL: "/lists/OL2L", Name: "Space Opera", SeedCount: 1},
		},
	})
	return e
}

// TestEngine_SelectList tests selecting a list: items resolve and the
// choice persists.
func TestEngine_SelectList(t *testing.T) {
	lists := &MockListService{
		Seeds: map[string][]types.DisplayItem{
			"/lists/OL1L": {
				{Kind: "work", Key: "OL1W", Title: "Dune"},
				{Kind: "author", Key: "OL23A", Title: "Ursula K. Le Guin"},
			},
		},
	}
	prefs := &MockPrefs{}
	e := listEngine(t, lists, prefs)

	e.SelectList(context.Background(), "/lists/OL1L", false)

	state := e.State()
	if state.SelectedListURL != "/lists/OL1L" {
		t.Errorf("SelectedListURL = %q, want %q", state.SelectedListURL, "/lists/OL1L")
	}
	if len(state.ListItems) != 2 {
		t.Errorf("len(ListItems) = %d, want 2", len(state.ListItems))
	}
	if state.IsLoadingListItems {
		t.Error("IsLoadingListItems = true, want false")
	}
	if prefs.URL != "/lists/OL1L" {
		t.Errorf("persisted URL = %q, want %q", prefs.URL, "/lists/OL1L")
	}
}

// TestEngine_SelectListSeedFailure tests that a failed seed resolution keeps
// the list selected with no items.
func TestEngine_SelectListSeedFailure(t *testing.T) {
	lists := &MockListService{SeedsErr: &NetworkError{Err: errors.New("timeout")}}
	e := listEngine(t, lists, &MockPrefs{})

	e.SelectList(context.Background(), "/lists/OL1L", false)

	state := e.State()
	if state.SelectedListURL != "/lists/OL1L" {
		t.Errorf("SelectedListURL = %q, want %q", state.SelectedListURL, "/lists/OL1L")
	}
	if len(state.ListItems) != 0 {
		t.Errorf("len(ListItems) = %d, want 0", len(state.ListItems))
	}
	if state.IsLoadingListItems {
		t.Error("IsLoadingListItems = true, want false")
	}
}

// TestEngine_ClearListSelection tests deselection.
func TestEngine_ClearListSelection(t *testing.T) {
	lists := &MockListService{
		Seeds: map[string][]types.DisplayItem{
			"/lists/OL1L": {{Kind: "work", Key: "OL1W", Title: "Dune"}},
		},
	}
	prefs := &MockPrefs{}
	e := listEngine(t, lists, prefs)

	ctx := context.Background()
	e.SelectList(ctx, "/lists/OL1L", false)
	e.ClearListSelection()

	state := e.State()
	if state.SelectedListURL != "" {
		t.Errorf("SelectedListURL = %q, want empty", state.SelectedListURL)
	}
	if state.ListItems != nil {
		t.Errorf("ListItems = %v, want nil", state.ListItems)
	}
	if prefs.URL != "" {
		t.Errorf("persisted URL = %q, want empty", prefs.URL)
	}
}

// TestEngine_AddBookToList tests that a seed addition refreshes list
// metadata and reloads the displayed list.
func TestEngine_AddBookToList(t *testing.T) {
	lists := &MockListService{
		Lists: []types.BookList{{URL: "/lists/OL1L", Name: "Favorites", SeedCount: 3}},
		Seeds: map[string][]types.DisplayItem{
			"/lists/OL1L": {{Kind: "work", Key: "OL1W", Title: "Dune"}},
		},
	}
	e := listEngine(t, lists, &MockPrefs{})

	ctx := context.Background()
	e.SelectList(ctx, "/lists/OL1L", false)

	book := types.Book{WorkID: "OL7W", Title: "Solaris"}
	if err := e.AddBookToList(ctx, book, "/lists/OL1L"); err != nil {
		t.Fatalf("AddBookToList() error = %v", err)
	}

	state := e.State()
	list, ok := state.ListByURL("/lists/OL1L")
	if !ok {
		t.Fatal("list missing after mutation")
	}
	if list.SeedCount != 3 {
		t.Errorf("SeedCount = %d, want 3 (metadata refreshed)", list.SeedCount)
	}

	lists.mu.Lock()
	defer lists.mu.Unlock()
	if len(lists.AddCalls) != 1 || lists.AddCalls[0].WorkID != "OL7W" {
		t.Errorf("AddCalls = %v, want one call for OL7W", lists.AddCalls)
	}
	// Displayed list reloads: initial select plus post-mutation refresh.
	if lists.GetSeedsCalls["/lists/OL1L"] != 2 {
		t.Errorf("GetSeedsCalls = %d, want 2", lists.GetSeedsCalls["/lists/OL1L"])
	}
}

// TestEngine_RemoveBookFromCurrentList tests removal from the displayed
// list, and the no-op when nothing is selected.
func TestEngine_RemoveBookFromCurrentList(t *testing.T) {
	lists := &MockListService{
		Seeds: map[string][]types.DisplayItem{"/lists/OL2L": {}},
	}
	e := listEngine(t, lists, &MockPrefs{})

	ctx := context.Background()
	book := types.Book{WorkID: "OL2W"}

	// Nothing selected yet.
	if err := e.RemoveBookFromCurrentList(ctx, book); err != nil {
		t.Fatalf("RemoveBookFromCurrentList() error = %v", err)
	}
	lists.mu.Lock()
	if len(lists.RemoveCalls) != 0 {
		t.Errorf("RemoveCalls = %v, want none with no selection", lists.RemoveCalls)
	}
	lists.mu.Unlock()

	e.SelectList(ctx, "/lists/OL2L", false)
	if err := e.RemoveBookFromCurrentList(ctx, book); err != nil {
		t.Fatalf("RemoveBookFromCurrentList() error = %v", err)
	}

	lists.mu.Lock()
	defer lists.mu.Unlock()
	if len(lists.RemoveCalls) != 1 || lists.RemoveCalls[0].ListURL != "/lists/OL2L" {
		t.Errorf("RemoveCalls = %v, want one call for /lists/OL2L", lists.RemoveCalls)
	}
}

// TestEngine_RestoreListSelection tests that a persisted selection is
// restored after load when the list still exists.
func TestEngine_RestoreListSelection(t *testing.T) {
	repo := &MockRepository{Shelves: testShelves()}
	lists := &MockListService{
		Lists: []types.BookList{{URL: "/lists/OL1L", Name: "Favorites"}},
		Seeds: map[string][]types.DisplayItem{
			"/lists/OL1L": {{Kind: "work", Key: "OL1W", Title: "Dune"}},
		},
	}
	prefs := &MockPrefs{URL: "/lists/OL1L"}
	e := newTestEngine(t, EngineConfig{
		Repo:  repo,
		Lists: lists,
		Works: &MockWorkResolver{},
		Prefs: prefs,
	})

	e.LoadShelves(context.Background(), false)

	state := e.State()
	if state.SelectedListURL != "/lists/OL1L" {
		t.Errorf("SelectedListURL = %q, want %q", state.SelectedListURL, "/lists/OL1L")
	}
	if len(state.ListItems) != 1 {
		t.Errorf("len(ListItems) = %d, want 1", len(state.ListItems))
	}
}

// TestEngine_RestoreListSelectionSkipsMissingList tests that a persisted URL
// pointing at a deleted list is ignored.
func TestEngine_RestoreListSelectionSkipsMissingList(t *testing.T) {
	repo := &MockRepository{Shelves: testShelves()}
	lists := &MockListService{
		Lists: []types.BookList{{URL: "/lists/OL2L", Name: "Space Opera"}},
	}
	prefs := &MockPrefs{URL: "/lists/gone"}
	e := newTestEngine(t, EngineConfig{
		Repo:  repo,
		Lists: lists,
		Works: &MockWorkResolver{},
		Prefs: prefs,
	})

	e.LoadShelves(context.Background(), false)

	if got := e.State().SelectedListURL; got != "" {
		t.Errorf("SelectedListURL = %q, want empty", got)
	}
}
