package mapsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Resources are the stylesheet and script a map surface depends on
type Resources struct {
	Stylesheet string
	Script     string
}

// Loader brings up a map surface. Load returns once, when the surface is
// ready to draw or loading has failed; it may block for as long as the
// resources take to arrive.
type Loader interface {
	Load(ctx context.Context, res Resources) (Surface, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(ctx context.Context, res Resources) (Surface, error)

func (f LoaderFunc) Load(ctx context.Context, res Resources) (Surface, error) {
	return f(ctx, res)
}

// HTTPLoader optionally checks that the map resources are reachable and then
// hands out a fresh recording Scene
type HTTPLoader struct {
	client *http.Client
	probe  bool
}

// NewHTTPLoader creates a loader. With probe disabled the scene is ready immediately.
func NewHTTPLoader(client *http.Client, probe bool) *HTTPLoader {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPLoader{client: client, probe: probe}
}

// Load fetches each configured resource and fails on the first non-200
func (l *HTTPLoader) Load(ctx context.Context, res Resources) (Surface, error) {
	if l.probe {
		for _, url := range []string{res.Stylesheet, res.Script} {
			if url == "" {
				continue
			}
			if err := l.fetch(ctx, url); err != nil {
				return nil, err
			}
		}
	}
	return NewScene(), nil
}

func (l *HTTPLoader) fetch(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}
