package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

func loadedEngine(t *testing.T, repo *MockRepository) *Engine {
	t.Helper()
	e := newTestEngine(t, EngineConfig{Repo: repo, Lists: &MockListService{}, Works: &MockWorkResolver{}})
	e.store.Set(State{Phase: PhaseLoaded, Shelves: testShelves()})
	return e
}

// TestEngine_MoveBookToShelf tests a cross-shelf move: the work lands on the
// target and leaves its old shelf.
func TestEngine_MoveBookToShelf(t *testing.T) {
	repo := &MockRepository{}
	e := loadedEngine(t, repo)

	book := types.Book{WorkID: "OL2W", Title: "Hyperion", Authors: []string{"Dan Simmons"}}
	if ok := e.MoveBookToShelf(context.Background(), book, "currently-reading"); !ok {
		t.Fatal("MoveBookToShelf() = false, want true")
	}

	state := e.State()
	target, _ := state.ShelfByKey("currently-reading")
	if target.IndexOfWork("OL2W") < 0 {
		t.Error("target shelf does not hold the moved work")
	}
	if target.TotalCount != 2 {
		t.Errorf("target TotalCount = %d, want 2", target.TotalCount)
	}
	origin, _ := state.ShelfByKey("want-to-read")
	if origin.IndexOfWork("OL2W") >= 0 {
		t.Error("origin shelf still holds the moved work")
	}
	if origin.TotalCount != 0 {
		t.Errorf("origin TotalCount = %d, want 0", origin.TotalCount)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.MoveCalls) != 1 || repo.MoveCalls[0].TargetKey != "currently-reading" {
		t.Errorf("MoveCalls = %v, want one call targeting currently-reading", repo.MoveCalls)
	}
}

// TestEngine_MoveBookSameWorkKeepsPosition tests that re-shelving an edition
// of a work already on the target replaces it in place.
func TestEngine_MoveBookSameWorkKeepsPosition(t *testing.T) {
	repo := &MockRepository{}
	e := loadedEngine(t, repo)

	// Same work, different edition.
	book := types.Book{WorkID: "OL1W", EditionID: "OL1M-2", Title: "Dune (Reissue)"}
	e.MoveBookToShelf(context.Background(), book, "currently-reading")

	shelf, _ := e.State().ShelfByKey("currently-reading")
	if shelf.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1 (replacement, not addition)", shelf.TotalCount)
	}
	idx := shelf.IndexOfWork("OL1W")
	if idx != 0 {
		t.Fatalf("IndexOfWork = %d, want 0 (position kept)", idx)
	}
	if shelf.Books[idx].EditionID != "OL1M-2" {
		t.Errorf("EditionID = %q, want %q", shelf.Books[idx].EditionID, "OL1M-2")
	}
}

// TestEngine_MoveBookRemoveFromAll tests the remove-everywhere target.
func TestEngine_MoveBookRemoveFromAll(t *testing.T) {
	repo := &MockRepository{}
	e := loadedEngine(t, repo)

	book := types.Book{WorkID: "OL1W"}
	e.MoveBookToShelf(context.Background(), book, RemoveFromAllShelves)

	for _, shelf := range e.State().Shelves {
		if shelf.IndexOfWork("OL1W") >= 0 {
			t.Errorf("shelf %q still holds OL1W", shelf.Key)
		}
	}
}

// TestEngine_MoveBookRemoteFailure tests that a failed remote move leaves
// shelves untouched and surfaces an error.
func TestEngine_MoveBookRemoteFailure(t *testing.T) {
	repo := &MockRepository{
		MoveErr: &ServerError{StatusCode: 502, Err: errors.New("bad gateway")},
	}
	e := loadedEngine(t, repo)

	book := types.Book{WorkID: "OL2W"}
	if ok := e.MoveBookToShelf(context.Background(), book, "currently-reading"); ok {
		t.Fatal("MoveBookToShelf() = true, want false")
	}
	if got := e.State().Phase; got != PhaseError {
		t.Errorf("Phase = %v, want %v", got, PhaseError)
	}
}

// TestEngine_MoveBookAuthFailureSilent tests that auth failures on a move
// are logged but never become an Error state.
func TestEngine_MoveBookAuthFailureSilent(t *testing.T) {
	repo := &MockRepository{
		MoveErr: &AuthError{Err: errors.New("session expired")},
	}
	e := loadedEngine(t, repo)

	book := types.Book{WorkID: "OL2W"}
	if ok := e.MoveBookToShelf(context.Background(), book, "currently-reading"); ok {
		t.Fatal("MoveBookToShelf() = true, want false")
	}

	state := e.State()
	if state.Phase != PhaseLoaded {
		t.Errorf("Phase = %v, want %v", state.Phase, PhaseLoaded)
	}
	origin, _ := state.ShelfByKey("want-to-read")
	if origin.IndexOfWork("OL2W") < 0 {
		t.Error("book moved locally despite remote failure")
	}
}

// TestEngine_RemoveBookFromShelf tests removal from one shelf.
func TestEngine_RemoveBookFromShelf(t *testing.T) {
	repo := &MockRepository{}
	e := loadedEngine(t, repo)

	book := types.Book{WorkID: "OL1W"}
	if err := e.RemoveBookFromShelf(context.Background(), book, "currently-reading"); err != nil {
		t.Fatalf("RemoveBookFromShelf() error = %v", err)
	}

	shelf, _ := e.State().ShelfByKey("currently-reading")
	if shelf.IndexOfWork("OL1W") >= 0 {
		t.Error("shelf still holds the removed work")
	}
	if shelf.TotalCount != 0 {
		t.Errorf("TotalCount = %d, want 0", shelf.TotalCount)
	}
}

// TestEngine_UpdateShelfSort tests that a sort change reorders local books.
func TestEngine_UpdateShelfSort(t *testing.T) {
	repo := &MockRepository{}
	e := newTestEngine(t, EngineConfig{Repo: repo, Lists: &MockListService{}, Works: &MockWorkResolver{}})
	e.store.Set(State{Phase: PhaseLoaded, Shelves: []types.Shelf{{
		Key: "finished",
		Books: []types.Book{
			{WorkID: "OL1W", Title: "Zen"},
			{WorkID: "OL2W", Title: "Anathem"},
		},
		TotalCount: 2,
	}}})

	if err := e.UpdateShelfSort(context.Background(), "finished", types.SortByTitle, true); err != nil {
		t.Fatalf("UpdateShelfSort() error = %v", err)
	}

	shelf, _ := e.State().ShelfByKey("finished")
	if shelf.Books[0].Title != "Anathem" {
		t.Errorf("Books[0].Title = %q, want %q", shelf.Books[0].Title, "Anathem")
	}
	if shelf.SortOrder != types.SortByTitle || !shelf.SortAscending {
		t.Errorf("sort = %v asc=%v, want title asc", shelf.SortOrder, shelf.SortAscending)
	}
}

// TestEngine_UpdateShelfVisibility tests that the repository's updated shelf
// replaces the local entry.
func TestEngine_UpdateShelfVisibility(t *testing.T) {
	repo := &MockRepository{ShelfByKey: shelvesByKey(testShelves())}
	e := loadedEngine(t, repo)

	if err := e.UpdateShelfVisibility(context.Background(), "want-to-read", true); err != nil {
		t.Fatalf("UpdateShelfVisibility() error = %v", err)
	}

	shelf, _ := e.State().ShelfByKey("want-to-read")
	if !shelf.IsVisible {
		t.Error("IsVisible = false, want true")
	}
}
