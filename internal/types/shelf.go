package types

import (
	"sort"
	"strings"
	"time"
)

// SortOrder names a shelf's configured sort.
type SortOrder string

const (
	SortByTitle        SortOrder = "title"
	SortByAuthor       SortOrder = "author"
	SortByAddedDate    SortOrder = "added"
	SortByLastModified SortOrder = "modified"
)

// Shelf is a named, server-backed reading-status collection.
// TotalCount is the server-reported size and may exceed len(Books) only
// while a progressive load is still filling the shelf in.
type Shelf struct {
	Key           string    `json:"key" yaml:"key"`
	Name          string    `json:"name" yaml:"name"`
	Books         []Book    `json:"books" yaml:"books"`
	TotalCount    int       `json:"total_count" yaml:"total_count"`
	SortOrder     SortOrder `json:"sort_order" yaml:"sort_order"`
	SortAscending bool      `json:"sort_ascending" yaml:"sort_ascending"`
	IsVisible     bool      `json:"is_visible" yaml:"is_visible"`
	DisplayOrder  int       `json:"display_order" yaml:"display_order"`
	LastSyncedAt  time.Time `json:"last_synced_at" yaml:"last_synced_at"`
}

// IsStale reports whether the shelf has not been synced within threshold.
func (s Shelf) IsStale(threshold time.Duration) bool {
	return time.Since(s.LastSyncedAt) > threshold
}

// IndexOfWork returns the position of the book with the given work identity,
// or -1 when the shelf does not hold it.
func (s Shelf) IndexOfWork(workID string) int {
	for i, b := range s.Books {
		if b.WorkID == workID {
			return i
		}
	}
	return -1
}

// SortBooks orders books per the given sort, stably so that equal keys keep
// their server-delivered order.
func SortBooks(books []Book, order SortOrder, ascending bool) {
	less := func(a, b Book) bool {
		switch order {
		case SortByAuthor:
			return firstAuthor(a) < firstAuthor(b)
		case SortByAddedDate:
			return a.AddedDate.Before(b.AddedDate)
		case SortByLastModified:
			return a.LastModified.Before(b.LastModified)
		default:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	}
	sort.SliceStable(books, func(i, j int) bool {
		if ascending {
			return less(books[i], books[j])
		}
		return less(books[j], books[i])
	})
}

func firstAuthor(b Book) string {
	if len(b.Authors) == 0 {
		return ""
	}
	return strings.ToLower(b.Authors[0])
}
