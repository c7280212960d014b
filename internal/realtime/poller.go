// Package realtime moves journeys along with their vehicles by polling a
// GTFS-RT VehiclePositions feed.
package realtime

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

// metersPerSecondToKmh converts GTFS-RT speeds to the km/h journeys carry
const metersPerSecondToKmh = 3.6

// PositionWriter is the write side of the journey store the poller needs
type PositionWriter interface {
	UpdateVehiclePosition(ctx context.Context, vehicleKey string, position models.Point, speedKmh float64, at time.Time) (int64, error)
}

// VehiclePosition is one vehicle read from the feed
type VehiclePosition struct {
	VehicleKey string
	EntityKey  string
	Position   models.Point
	SpeedKmh   float64
	Timestamp  time.Time
}

// Poller handles real-time polling of a GTFS-RT vehicle positions feed
type Poller struct {
	writer PositionWriter
	url    string
	client *http.Client
}

// NewPoller creates a new poller for the feed at url
func NewPoller(writer PositionWriter, url string) *Poller {
	return &Poller{
		writer: writer,
		url:    url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithClient replaces the HTTP client
func (p *Poller) WithClient(client *http.Client) *Poller {
	p.client = client
	return p
}

// Poll fetches the feed once and updates every journey riding a reported
// vehicle. It returns how many journeys moved.
func (p *Poller) Poll(ctx context.Context) (int64, error) {
	polledAt := time.Now().UTC()

	positions, err := p.fetchVehiclePositions(ctx, polledAt)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch vehicle positions: %w", err)
	}

	if len(positions) == 0 {
		log.Println("realtime: no vehicle positions found")
		return 0, nil
	}

	var moved int64
	for _, pos := range positions {
		for _, key := range []string{pos.VehicleKey, pos.EntityKey} {
			if key == "" {
				continue
			}
			n, err := p.writer.UpdateVehiclePosition(ctx, key, pos.Position, pos.SpeedKmh, pos.Timestamp)
			if err != nil {
				return moved, fmt.Errorf("failed to write position for %s: %w", key, err)
			}
			moved += n
		}
	}

	log.Printf("realtime: polled %d vehicles, moved %d journeys", len(positions), moved)
	return moved, nil
}

// Run polls immediately and then every interval until ctx is cancelled.
// Failed polls are logged and the loop keeps going.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	p.pollOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.pollOnce(ctx)
		case <-ctx.Done():
			log.Println("realtime: polling loop stopped")
			return
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	if _, err := p.Poll(ctx); err != nil {
		log.Printf("realtime: poll error: %v", err)
	}
}

// fetchVehiclePositions fetches and parses the vehicle positions feed
func (p *Poller) fetchVehiclePositions(ctx context.Context, polledAt time.Time) ([]VehiclePosition, error) {
	feed, err := p.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	var positions []VehiclePosition
	for _, entity := range feed.Entity {
		vehicle := entity.GetVehicle()
		if vehicle == nil || vehicle.Position == nil {
			continue
		}

		pos := VehiclePosition{
			Position: models.Point{
				X: float64(vehicle.Position.GetLongitude()),
				Y: float64(vehicle.Position.GetLatitude()),
			},
			SpeedKmh:  float64(vehicle.Position.GetSpeed()) * metersPerSecondToKmh,
			Timestamp: polledAt,
		}

		if vehicle.Vehicle != nil && vehicle.Vehicle.Id != nil {
			pos.VehicleKey = vehicle.Vehicle.GetId()
		}
		if entity.Id != nil {
			pos.EntityKey = "entity:" + entity.GetId()
		}
		if pos.VehicleKey == "" && pos.EntityKey == "" {
			continue
		}

		if vehicle.Timestamp != nil {
			pos.Timestamp = time.Unix(int64(vehicle.GetTimestamp()), 0).UTC()
		}

		positions = append(positions, pos)
	}

	return positions, nil
}

// fetchFeed fetches the GTFS-RT feed
func (p *Poller) fetchFeed(ctx context.Context) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}

	return feed, nil
}
