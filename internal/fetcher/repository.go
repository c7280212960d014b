package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

// JourneyReader is the read side of the journey store
type JourneyReader interface {
	GetJourneyByTicket(ctx context.Context, ticketID string) (*models.JourneySnapshot, error)
}

// RepositoryFetcher serves snapshots straight from the journey store,
// for servers that host the tracking API themselves
type RepositoryFetcher struct {
	repo JourneyReader
}

// NewRepositoryFetcher wraps a journey store
func NewRepositoryFetcher(repo JourneyReader) *RepositoryFetcher {
	return &RepositoryFetcher{repo: repo}
}

// Fetch follows the same error contract as HTTPFetcher
func (f *RepositoryFetcher) Fetch(ctx context.Context, ticketID string) (models.JourneySnapshot, error) {
	if strings.TrimSpace(ticketID) == "" {
		return models.JourneySnapshot{}, fmt.Errorf("%w: empty ticket id", ErrNotFound)
	}

	journey, err := f.repo.GetJourneyByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, models.ErrJourneyNotFound) {
			return models.JourneySnapshot{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return models.JourneySnapshot{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if journey == nil {
		return models.JourneySnapshot{}, fmt.Errorf("%w: no journey for %q", ErrNotFound, ticketID)
	}

	rec := models.RecordFromSnapshot(*journey)
	if err := rec.Validate(); err != nil {
		return models.JourneySnapshot{}, fmt.Errorf("%w: invalid journey: %v", ErrNotFound, err)
	}
	return rec.ToSnapshot(), nil
}
