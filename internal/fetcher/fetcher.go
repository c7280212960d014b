// Package fetcher resolves a ticket id to a journey snapshot.
//
// Every failure that is not a transport error (non-200 status, undecodable or
// invalid body) is reported as ErrNotFound. Callers collapse both errors into
// the same redirect, so the distinction only matters for logging.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

var (
	// ErrNotFound means the ticket has no journey or the payload was unusable
	ErrNotFound = errors.New("journey not found")
	// ErrNetwork means the request never produced a response
	ErrNetwork = errors.New("network error")
)

// maxBodyBytes bounds how much of a tracking response is read
const maxBodyBytes = 1 << 20

// HTTPFetcher fetches snapshots from GET {baseURL}/api/track/{ticketId}
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher against the given API base URL.
// A zero timeout leaves requests unbounded.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// WithClient swaps the underlying HTTP client
func (f *HTTPFetcher) WithClient(client *http.Client) *HTTPFetcher {
	f.client = client
	return f
}

// TrackURL returns the tracking endpoint for a ticket id
func (f *HTTPFetcher) TrackURL(ticketID string) string {
	return f.baseURL + "/api/track/" + url.PathEscape(ticketID)
}

// Fetch performs a single attempt; there are no retries
func (f *HTTPFetcher) Fetch(ctx context.Context, ticketID string) (models.JourneySnapshot, error) {
	if strings.TrimSpace(ticketID) == "" {
		return models.JourneySnapshot{}, fmt.Errorf("%w: empty ticket id", ErrNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.TrackURL(ticketID), nil)
	if err != nil {
		return models.JourneySnapshot{}, fmt.Errorf("%w: failed to create request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return models.JourneySnapshot{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return models.JourneySnapshot{}, fmt.Errorf("%w: HTTP %d for ticket %q", ErrNotFound, resp.StatusCode, ticketID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.JourneySnapshot{}, fmt.Errorf("%w: failed to read response: %v", ErrNetwork, err)
	}

	return decodeRecord(body)
}

func decodeRecord(body []byte) (models.JourneySnapshot, error) {
	var rec models.TrackingRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return models.JourneySnapshot{}, fmt.Errorf("%w: malformed payload: %v", ErrNotFound, err)
	}
	if err := rec.Validate(); err != nil {
		return models.JourneySnapshot{}, fmt.Errorf("%w: invalid payload: %v", ErrNotFound, err)
	}
	return rec.ToSnapshot(), nil
}
