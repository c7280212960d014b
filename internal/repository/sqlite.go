package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mini-rodalies-3d/tracker/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteJourneyRepository handles journey storage using SQLite
type SQLiteJourneyRepository struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writes, SQLite allows a single writer
}

// NewSQLiteJourneyRepository opens a SQLite database with WAL mode and
// ensures the schema exists
func NewSQLiteJourneyRepository(dbPath string) (*SQLiteJourneyRepository, error) {
	dsn := dbPath + "?_journal=WAL&_fk=1&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		log.Printf("Warning: failed to set synchronous pragma: %v", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Printf("Connected to SQLite database: %s", dbPath)
	return &SQLiteJourneyRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteJourneyRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteJourneyRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetJourneyByTicket returns the journey for a ticket id
func (r *SQLiteJourneyRepository) GetJourneyByTicket(ctx context.Context, ticketID string) (*models.JourneySnapshot, error) {
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
		WHERE ticket_id = ?
	`

	var j models.JourneySnapshot
	var updatedAtStr *string
	err := r.db.QueryRowContext(ctx, query, ticketID).Scan(
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
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrJourneyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query journey %s: %w", ticketID, err)
	}
	j.UpdatedAt = parseTimeString(updatedAtStr)

	return &j, nil
}

// SaveJourney inserts or replaces a journey
func (r *SQLiteJourneyRepository) SaveJourney(ctx context.Context, j models.JourneySnapshot) error {
	if strings.TrimSpace(j.TicketID) == "" {
		return errors.New("ticket_id cannot be empty")
	}

	query := `
		INSERT INTO journeys (
			ticket_id, name, reverse,
			origin_x, origin_y, destination_x, destination_y, actual_x, actual_y,
			speed, vehicle_key, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticket_id) DO UPDATE SET
			name = excluded.name,
			reverse = excluded.reverse,
			origin_x = excluded.origin_x,
			origin_y = excluded.origin_y,
			destination_x = excluded.destination_x,
			destination_y = excluded.destination_y,
			actual_x = excluded.actual_x,
			actual_y = excluded.actual_y,
			speed = excluded.speed,
			vehicle_key = excluded.vehicle_key,
			updated_at = excluded.updated_at
	`

	updatedAt := j.UpdatedAt
	if updatedAt == nil {
		now := time.Now()
		updatedAt = &now
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err := r.db.ExecContext(ctx, query,
		j.TicketID, j.DisplayName, j.Reverse,
		j.Origin.X, j.Origin.Y, j.Destination.X, j.Destination.Y, j.Current.X, j.Current.Y,
		j.Speed, j.VehicleKey, formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save journey %s: %w", j.TicketID, err)
	}
	return nil
}

// UpdateVehiclePosition moves every journey riding vehicleKey
func (r *SQLiteJourneyRepository) UpdateVehiclePosition(ctx context.Context, vehicleKey string, position models.Point, speedKmh float64, at time.Time) (int64, error) {
	if vehicleKey == "" {
		return 0, nil
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	res, err := r.db.ExecContext(ctx, `
		UPDATE journeys
		SET actual_x = ?, actual_y = ?, speed = ?, updated_at = ?
		WHERE vehicle_key = ?
	`, position.X, position.Y, speedKmh, formatTime(&at), vehicleKey)
	if err != nil {
		return 0, fmt.Errorf("failed to update vehicle %s: %w", vehicleKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count updated journeys: %w", err)
	}
	return n, nil
}
