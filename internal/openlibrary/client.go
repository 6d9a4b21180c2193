// Package openlibrary implements the engine's remote collaborators against
// an OpenLibrary-style shelf service: the shelf repository, the list
// service and single-hop work redirect resolution.
package openlibrary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	syncpkg "github.com/mheiman/openlibrary-reader-sub000/internal/sync"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
	defaultPageSize = 100
)

// Client is the HTTP client shared by the collaborator implementations.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	attempts   uint
	pageSize   int
}

// ClientConfig configures a Client. BaseURL is required.
type ClientConfig struct {
	BaseURL string
	// Token is the bearer session token; requests go out unauthenticated
	// when empty and the server answers 401.
	Token    string
	Timeout  time.Duration
	Attempts uint
	PageSize int
	Logger   *slog.Logger
}

// NewClient creates a client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = defaultAttempts
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "openlibrary"),
		attempts:   attempts,
		pageSize:   pageSize,
	}
}

// get performs a GET with transient-failure retries and decodes the JSON
// response into result.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return retry.Do(
		func() error {
			return c.do(ctx, http.MethodGet, path, nil, result)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(syncpkg.IsNetworkError),
	)
}

// post performs a POST with a JSON body. Mutations are not retried; the
// caller owns idempotency decisions.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) patch(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &syncpkg.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, result)
}

func (c *Client) handleResponse(resp *http.Response, result any) error {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &syncpkg.NetworkError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &syncpkg.AuthError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &syncpkg.ServerError{
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", errResp.Error),
			}
		}
		return &syncpkg.ServerError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", string(respBody)),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &syncpkg.ServerError{
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("failed to decode response: %w", err),
			}
		}
	}
	return nil
}

// errorResponse matches the server's error envelope.
type errorResponse struct {
	Error string `json:"error"`
}
