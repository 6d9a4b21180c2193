package openlibrary

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestWorkResolver_NoRedirect tests that a current record resolves with an
// empty new identity.
func TestWorkResolver_NoRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"key": "/works/OL1W", "type": {"key": "/type/work"}, "title": "Dune", "authors": ["Frank Herbert"]}`)
	}))
	defer srv.Close()

	resolver := NewWorkResolver(testClient(t, srv), nil)
	res, err := resolver.ResolveWorkRedirect(context.Background(), "OL1W")
	if err != nil {
		t.Fatalf("ResolveWorkRedirect() error = %v", err)
	}
	if res.NewWorkID != "" {
		t.Errorf("NewWorkID = %q, want empty", res.NewWorkID)
	}
	if res.Title != "Dune" {
		t.Errorf("Title = %q, want Dune", res.Title)
	}
}

// TestWorkResolver_FollowsOneHop tests a redirected record: the target is
// fetched once and its metadata returned under the new identity.
func TestWorkResolver_FollowsOneHop(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/works/OL9W":
			fmt.Fprint(w, `{"key": "/works/OL9W", "type": {"key": "/type/redirect"}, "location": "/works/OL9bW"}`)
		case "/works/OL9bW":
			fmt.Fprint(w, `{"key": "/works/OL9bW", "type": {"key": "/type/work"}, "title": "Ficciones", "authors": ["Jorge Luis Borges"], "covers": [1234]}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	resolver := NewWorkResolver(testClient(t, srv), nil)
	res, err := resolver.ResolveWorkRedirect(context.Background(), "OL9W")
	if err != nil {
		t.Fatalf("ResolveWorkRedirect() error = %v", err)
	}
	if res.NewWorkID != "OL9bW" {
		t.Errorf("NewWorkID = %q, want OL9bW", res.NewWorkID)
	}
	if res.Title != "Ficciones" {
		t.Errorf("Title = %q, want Ficciones", res.Title)
	}
	if res.CoverID != "1234" {
		t.Errorf("CoverID = %q, want 1234", res.CoverID)
	}
	if len(paths) != 2 {
		t.Errorf("requests = %v, want exactly the record and its target", paths)
	}
}

// TestWorkResolver_SelfRedirectIgnored tests that a redirect pointing back
// at itself resolves in place.
func TestWorkResolver_SelfRedirectIgnored(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"key": "/works/OL9W", "type": {"key": "/type/redirect"}, "location": "/works/OL9W"}`)
	}))
	defer srv.Close()

	resolver := NewWorkResolver(testClient(t, srv), nil)
	res, err := resolver.ResolveWorkRedirect(context.Background(), "OL9W")
	if err != nil {
		t.Fatalf("ResolveWorkRedirect() error = %v", err)
	}
	if res.NewWorkID != "" {
		t.Errorf("NewWorkID = %q, want empty", res.NewWorkID)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
}

// TestWorkIDFromLocation tests target reference parsing.
func TestWorkIDFromLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/works/OL123W", "OL123W"},
		{"/works/OL123W/", "OL123W"},
		{"OL123W", "OL123W"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := workIDFromLocation(tt.in); got != tt.want {
			t.Errorf("workIDFromLocation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
