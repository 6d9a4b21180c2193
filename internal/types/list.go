package types

import "time"

// BookList is a user-curated collection. URL is the identity. Lists hold
// opaque seed references (works or authors) that are resolved separately;
// only the resolved display items are carried in engine state.
type BookList struct {
	URL        string    `json:"url" yaml:"url"`
	Name       string    `json:"name" yaml:"name"`
	SeedCount  int       `json:"seed_count" yaml:"seed_count"`
	LastUpdate time.Time `json:"last_update" yaml:"last_update"`
}

// DisplayItem is one resolved list seed, ready for presentation.
type DisplayItem struct {
	Kind     string `json:"kind" yaml:"kind"` // "work" or "author"
	Key      string `json:"key" yaml:"key"`
	Title    string `json:"title" yaml:"title"`
	Byline   string `json:"byline,omitempty" yaml:"byline,omitempty"`
	CoverURL string `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
}

// Loan is a current entitlement for a specific edition.
type Loan struct {
	EditionID string    `json:"edition_id" yaml:"edition_id"`
	LoanedAt  time.Time `json:"loaned_at" yaml:"loaned_at"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}
