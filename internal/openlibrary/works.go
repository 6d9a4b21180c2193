package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	syncpkg "github.com/mheiman/openlibrary-reader-sub000/internal/sync"
)

// WorkResolver implements sync.WorkResolver: fetch a work record and, when
// its type marker says the record was redirected, follow the supplied target
// exactly once. Deeper chains are not followed; a target that is itself a
// redirect is reported as resolved with whatever metadata it carries, and a
// later pass picks it up again.
type WorkResolver struct {
	client *Client
	logger *slog.Logger
}

// NewWorkResolver creates a resolver.
func NewWorkResolver(client *Client, logger *slog.Logger) *WorkResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkResolver{
		client: client,
		logger: logger.With("component", "works"),
	}
}

// ResolveWorkRedirect fetches the work at workID. NewWorkID is empty when
// the record is current (no redirect).
func (r *WorkResolver) ResolveWorkRedirect(ctx context.Context, workID string) (syncpkg.WorkResolution, error) {
	var work wireWork
	if err := r.client.get(ctx, "/works/"+url.PathEscape(workID), &work); err != nil {
		return syncpkg.WorkResolution{}, fmt.Errorf("fetching work %s: %w", workID, err)
	}

	if !work.isRedirect() {
		return resolutionFrom("", work), nil
	}

	newID := workIDFromLocation(work.Location)
	if newID == "" || newID == workID {
		return resolutionFrom("", work), nil
	}

	var target wireWork
	if err := r.client.get(ctx, "/works/"+url.PathEscape(newID), &target); err != nil {
		return syncpkg.WorkResolution{}, fmt.Errorf("fetching redirect target %s: %w", newID, err)
	}
	if target.isRedirect() {
		r.logger.Warn("redirect chain deeper than one hop", "work", workID, "target", newID)
	}
	return resolutionFrom(newID, target), nil
}

func resolutionFrom(newID string, work wireWork) syncpkg.WorkResolution {
	return syncpkg.WorkResolution{
		NewWorkID: newID,
		Title:     work.Title,
		Authors:   work.Authors,
		CoverID:   firstCover(work.Covers),
		CoverURL:  work.CoverURL,
	}
}

// workIDFromLocation extracts the work identifier from a redirect target
// reference like "/works/OL123W".
func workIDFromLocation(location string) string {
	location = strings.TrimSuffix(location, "/")
	if i := strings.LastIndex(location, "/"); i >= 0 {
		return location[i+1:]
	}
	return location
}
