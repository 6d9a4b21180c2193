package openlibrary

import (
	"strconv"
	"time"

	"github.com/mheiman/openlibrary-reader-sub000/internal/types"
)

// Wire types for the shelf service's JSON API.

type shelvesEnvelope struct {
	Shelves []wireShelf `json:"shelves"`
}

type wireShelf struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	SortOrder     string `json:"sort_order"`
	SortAscending bool   `json:"sort_ascending"`
	Visible       bool   `json:"visible"`
	DisplayOrder  int    `json:"display_order"`
	TotalCount    int    `json:"total_count"`
}

func (w wireShelf) toShelf() types.Shelf {
	return types.Shelf{
		Key:           w.Key,
		Name:          w.Name,
		SortOrder:     types.SortOrder(w.SortOrder),
		SortAscending: w.SortAscending,
		IsVisible:     w.Visible,
		DisplayOrder:  w.DisplayOrder,
		TotalCount:    w.TotalCount,
	}
}

type shelfPage struct {
	Total   int        `json:"total"`
	Entries []wireBook `json:"entries"`
}

type wireBook struct {
	WorkID       string    `json:"work_id"`
	EditionID    string    `json:"edition_id"`
	Title        string    `json:"title"`
	Authors      []string  `json:"authors"`
	Covers       []int64   `json:"covers"`
	CoverURL     string    `json:"cover_url"`
	AddedDate    time.Time `json:"added_date"`
	LastModified time.Time `json:"last_modified"`
}

func (w wireBook) toBook() types.Book {
	return types.Book{
		WorkID:       w.WorkID,
		EditionID:    w.EditionID,
		Title:        w.Title,
		Authors:      w.Authors,
		CoverID:      firstCover(w.Covers),
		CoverURL:     w.CoverURL,
		Availability: types.AvailabilityUnknown,
		AddedDate:    w.AddedDate,
		LastModified: w.LastModified,
	}
}

func firstCover(covers []int64) string {
	for _, c := range covers {
		if c > 0 {
			return strconv.FormatInt(c, 10)
		}
	}
	return ""
}

type keysEnvelope struct {
	Keys []string `json:"keys"`
}

type loansEnvelope struct {
	Loans []wireLoan `json:"loans"`
}

type wireLoan struct {
	EditionID string    `json:"edition_id"`
	LoanedAt  time.Time `json:"loaned_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type listsEnvelope struct {
	Lists []wireList `json:"lists"`
}

type wireList struct {
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	SeedCount  int       `json:"seed_count"`
	LastUpdate time.Time `json:"last_update"`
}

type seedsEnvelope struct {
	Items []wireSeedItem `json:"items"`
}

type wireSeedItem struct {
	Kind     string `json:"kind"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	Byline   string `json:"byline"`
	CoverURL string `json:"cover_url"`
}

// redirectTypeKey is the type marker on a work record whose canonical
// identity moved.
const redirectTypeKey = "/type/redirect"

type wireWork struct {
	Key  string `json:"key"`
	Type struct {
		Key string `json:"key"`
	} `json:"type"`
	// Location is the target reference when Type.Key is /type/redirect.
	Location string   `json:"location"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Covers   []int64  `json:"covers"`
	CoverURL string   `json:"cover_url"`
}

func (w wireWork) isRedirect() bool {
	return w.Type.Key == redirectTypeKey && w.Location != ""
}
