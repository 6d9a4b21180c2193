package openlibrary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	syncpkg "github.com/mheiman/openlibrary-reader-sub000/internal/sync"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:  srv.URL,
		Token:    "test-token",
		Timeout:  5 * time.Second,
		Attempts: 2,
		PageSize: 2,
	})
}

// TestClient_BearerToken tests that requests carry the session token.
func TestClient_BearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	var out struct{}
	if err := c.get(context.Background(), "/shelves", &out); err != nil {
		t.Fatalf("get() error = %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-token")
	}
}

// TestClient_AuthErrorMapping tests that 401 and 403 map to auth failures.
func TestClient_AuthErrorMapping(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := testClient(t, srv)
		err := c.get(context.Background(), "/shelves", nil)
		if !syncpkg.IsAuthError(err) {
			t.Errorf("status %d: IsAuthError() = false, want true (err = %v)", status, err)
		}
		srv.Close()
	}
}

// TestClient_ServerErrorEnvelope tests that the server's error message
// survives into the returned error.
func TestClient_ServerErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "shelf is read-only"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	err := c.post(context.Background(), "/shelves/move", map[string]string{}, nil)
	var se *syncpkg.ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want ServerError", err)
	}
	if se.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %d, want %d", se.StatusCode, http.StatusConflict)
	}
	if se.Err.Error() != "shelf is read-only" {
		t.Errorf("message = %q, want %q", se.Err.Error(), "shelf is read-only")
	}
}

// TestClient_RetriesTransportFailures tests that a dropped connection is
// retried and the second attempt succeeds.
func TestClient_RetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("response writer does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("Hijack() error = %v", err)
			}
			conn.Close()
			return
		}
		w.Write([]byte(`{"keys": ["reading"]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	var envelope keysEnvelope
	if err := c.get(context.Background(), "/shelves/keys", &envelope); err != nil {
		t.Fatalf("get() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
	if len(envelope.Keys) != 1 || envelope.Keys[0] != "reading" {
		t.Errorf("keys = %v, want [reading]", envelope.Keys)
	}
}

// TestClient_DoesNotRetryServerErrors tests that HTTP-level failures are not
// retried.
func TestClient_DoesNotRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	if err := c.get(context.Background(), "/shelves", nil); err == nil {
		t.Fatal("get() error = nil, want ServerError")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}
