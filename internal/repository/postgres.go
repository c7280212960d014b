package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

// Querier is the subset of pgx used by the repository.
// Both *pgxpool.Pool and pgxmock pools satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS journeys (
		ticket_id      TEXT PRIMARY KEY,
		name           TEXT NOT NULL DEFAULT '',
		reverse        BOOLEAN NOT NULL DEFAULT FALSE,
		origin_x       DOUBLE PRECISION NOT NULL,
		origin_y       DOUBLE PRECISION NOT NULL,
		destination_x  DOUBLE PRECISION NOT NULL,
		destination_y  DOUBLE PRECISION NOT NULL,
		actual_x       DOUBLE PRECISION NOT NULL,
		actual_y       DOUBLE PRECISION NOT NULL,
		speed          DOUBLE PRECISION NOT NULL DEFAULT 0,
		vehicle_key    TEXT NOT NULL DEFAULT '',
		updated_at     TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_journeys_vehicle_key ON journeys(vehicle_key);
`

// PostgresJourneyRepository handles journey storage using PostgreSQL
type PostgresJourneyRepository struct {
	db    Querier
	close func()
}

// NewPostgresJourneyRepository connects a pool and ensures the schema exists
func NewPostgresJourneyRepository(ctx context.Context, databaseURL string) (*PostgresJourneyRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresJourneyRepository{db: pool, close: pool.Close}
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// NewPostgresJourneyRepositoryWith wraps an existing querier
func NewPostgresJourneyRepositoryWith(db Querier) *PostgresJourneyRepository {
	return &PostgresJourneyRepository{db: db}
}

// EnsureSchema creates the journeys table when missing
func (r *PostgresJourneyRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *PostgresJourneyRepository) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}

func (r *PostgresJourneyRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (r *PostgresJourneyRepository) GetJourneyByTicket(ctx context.Context, ticketID string) (*models.JourneySnapshot, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, models.ErrJourneyNotFound
	}

	query := `
		SELECT
			ticket_id,
			name,
			reverse,
			origin_x,
			origin_y,
			destination_x,
			destination_y,
			actual_x,
			actual_y,
			speed,
			vehicle_key,
			updated_at
		FROM journeys
		WHERE ticket_id = $1
	`

	var j models.JourneySnapshot
	err := r.db.QueryRow(ctx, query, ticketID).Scan(
		&j.TicketID,
		&j.DisplayName,
		&j.Reverse,
		&j.Origin.X,
		&j.Origin.Y,
		&j.Destination.X,
		&j.Destination.Y,
		&j.Current.X,
		&j.Current.Y,
		&j.Speed,
		&j.VehicleKey,
		&j.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrJourneyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query journey %s: %w", ticketID, err)
	}

	return &j, nil
}

func (r *PostgresJourneyRepository) SaveJourney(ctx context.Context, j models.JourneySnapshot) error {
	if strings.TrimSpace(j.TicketID) == "" {
		return errors.New("ticket_id cannot be empty")
	}

	updatedAt := j.UpdatedAt
	if updatedAt == nil {
		now := time.Now().UTC()
		updatedAt = &now
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO journeys (
			ticket_id, name, reverse,
			origin_x, origin_y, destination_x, destination_y, actual_x, actual_y,
			speed, vehicle_key, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (ticket_id) DO UPDATE SET
			name = EXCLUDED.name,
			reverse = EXCLUDED.reverse,
			origin_x = EXCLUDED.origin_x,
			origin_y = EXCLUDED.origin_y,
			destination_x = EXCLUDED.destination_x,
			destination_y = EXCLUDED.destination_y,
			actual_x = EXCLUDED.actual_x,
			actual_y = EXCLUDED.actual_y,
			speed = EXCLUDED.speed,
			vehicle_key = EXCLUDED.vehicle_key,
			updated_at = EXCLUDED.updated_at
	`,
		j.TicketID, j.DisplayName, j.Reverse,
		j.Origin.X, j.Origin.Y, j.Destination.X, j.Destination.Y, j.Current.X, j.Current.Y,
		j.Speed, j.VehicleKey, *updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save journey %s: %w", j.TicketID, err)
	}
	return nil
}

func (r *PostgresJourneyRepository) UpdateVehiclePosition(ctx context.Context, vehicleKey string, position models.Point, speedKmh float64, at time.Time) (int64, error) {
	if vehicleKey == "" {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE journeys
		SET actual_x = $1, actual_y = $2, speed = $3, updated_at = $4
		WHERE vehicle_key = $5
	`, position.X, position.Y, speedKmh, at, vehicleKey)
	if err != nil {
		return 0, fmt.Errorf("failed to update vehicle %s: %w", vehicleKey, err)
	}
	return tag.RowsAffected(), nil
}
