package repository

import (
	"context"
	"time"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

// JourneyRepository stores journeys and the live position of their vehicles
type JourneyRepository interface {
	// GetJourneyByTicket returns models.ErrJourneyNotFound when no journey matches
	GetJourneyByTicket(ctx context.Context, ticketID string) (*models.JourneySnapshot, error)
	// SaveJourney inserts or replaces a journey
	SaveJourney(ctx context.Context, journey models.JourneySnapshot) error
	// UpdateVehiclePosition moves every journey riding the given vehicle and
	// returns how many were updated
	UpdateVehiclePosition(ctx context.Context, vehicleKey string, position models.Point, speedKmh float64, at time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ JourneyRepository = (*SQLiteJourneyRepository)(nil)
	_ JourneyRepository = (*PostgresJourneyRepository)(nil)
)

// parseTimeString converts an RFC3339 string to *time.Time
// Returns nil if the input is nil or empty
func parseTimeString(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
