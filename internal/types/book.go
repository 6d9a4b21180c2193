package types

import (
	"strings"
	"time"
)

// Availability describes whether a book can currently be read.
type Availability string

const (
	AvailabilityUnknown    Availability = "unknown"
	AvailabilityAvailable  Availability = "available"
	AvailabilityBorrowed   Availability = "borrowed"
	AvailabilityCheckedOut Availability = "checked_out"
)

// Book is a single shelving record. WorkID is the canonical,
// edition-independent identity and is the key used to locate a book across
// shelves. EditionID names a specific printing and may be empty when the
// server only knows the work.
type Book struct {
	EditionID    string       `json:"edition_id,omitempty" yaml:"edition_id,omitempty"`
	WorkID       string       `json:"work_id" yaml:"work_id"`
	Title        string       `json:"title" yaml:"title"`
	Authors      []string     `json:"authors,omitempty" yaml:"authors,omitempty"`
	CoverID      string       `json:"cover_id,omitempty" yaml:"cover_id,omitempty"`
	CoverURL     string       `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	Availability Availability `json:"availability,omitempty" yaml:"availability,omitempty"`
	AddedDate    time.Time    `json:"added_date,omitempty" yaml:"added_date,omitempty"`
	LastModified time.Time    `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

// placeholderTitles are values the remote service substitutes when a record
// has lost its metadata, typically after a work merge.
var placeholderTitles = map[string]struct{}{
	"":              {},
	"unknown title": {},
	"untitled":      {},
}

// NeedsRedirectCheck reports whether this book looks like its canonical
// record moved server-side: a work identity is present but every piece of
// metadata that normally comes with one is missing.
func (b Book) NeedsRedirectCheck() bool {
	if b.WorkID == "" {
		return false
	}
	if _, placeholder := placeholderTitles[strings.ToLower(strings.TrimSpace(b.Title))]; !placeholder {
		return false
	}
	return len(b.Authors) == 0 && b.CoverID == "" && b.CoverURL == ""
}

// HasCover reports whether any cover reference is present.
func (b Book) HasCover() bool {
	return b.CoverID != "" || b.CoverURL != ""
}
