package models

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrJourneyNotFound is returned by repositories when no journey matches a ticket
var ErrJourneyNotFound = errors.New("journey not found")

var validate = validator.New()

// Point is a planar coordinate: X is longitude, Y is latitude.
// No bounds are enforced at this layer.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// JourneySnapshot is one fetched record describing a ticket's journey at a point in time
type JourneySnapshot struct {
	TicketID    string `json:"ticketId" yaml:"ticketId"`
	DisplayName string `json:"displayName" yaml:"displayName"` // "<Origin> - <Destination>"

	Origin      Point `json:"origin" yaml:"origin"`
	Destination Point `json:"destination" yaml:"destination"`
	Current     Point `json:"current" yaml:"current"`

	// Reverse is carried through untouched for callers
	Reverse bool    `json:"reverse" yaml:"reverse"`
	Speed   float64 `json:"speed" yaml:"speed"`

	// Store-only fields, never part of the tracking payload
	VehicleKey string     `json:"-" yaml:"vehicleKey"`
	UpdatedAt  *time.Time `json:"-" yaml:"-"`
}

// Endpoints splits the display name into origin and destination labels.
// Missing halves fall back to "Origen" and "Destino".
func (j JourneySnapshot) Endpoints() (string, string) {
	origin, destination := "Origen", "Destino"
	parts := strings.SplitN(j.DisplayName, " - ", 3)
	if len(parts) > 0 && parts[0] != "" {
		origin = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		destination = parts[1]
	}
	return origin, destination
}

// TrackingRecord is the JSON body served by GET /api/track/{ticketId}
type TrackingRecord struct {
	TicketID     string  `json:"ticketid" validate:"required"`
	Name         string  `json:"name"`
	Reverse      bool    `json:"reverse"`
	OriginX      float64 `json:"OriginX"`
	OriginY      float64 `json:"OriginY"`
	DestinationX float64 `json:"DestinationX"`
	DestinationY float64 `json:"DestinationY"`
	ActualX      float64 `json:"ActualX"`
	ActualY      float64 `json:"ActualY"`
	Speed        float64 `json:"speed"`
}

// Validate checks the record is well-formed enough to become a snapshot
func (r *TrackingRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if strings.TrimSpace(r.TicketID) == "" {
		return errors.New("ticketid is blank")
	}
	return nil
}

// ToSnapshot converts the wire record into the domain snapshot
func (r *TrackingRecord) ToSnapshot() JourneySnapshot {
	return JourneySnapshot{
		TicketID:    r.TicketID,
		DisplayName: r.Name,
		Origin:      Point{X: r.OriginX, Y: r.OriginY},
		Destination: Point{X: r.DestinationX, Y: r.DestinationY},
		Current:     Point{X: r.ActualX, Y: r.ActualY},
		Reverse:     r.Reverse,
		Speed:       r.Speed,
	}
}

// RecordFromSnapshot builds the wire record for a snapshot
func RecordFromSnapshot(j JourneySnapshot) TrackingRecord {
	return TrackingRecord{
		TicketID:     j.TicketID,
		Name:         j.DisplayName,
		Reverse:      j.Reverse,
		OriginX:      j.Origin.X,
		OriginY:      j.Origin.Y,
		DestinationX: j.Destination.X,
		DestinationY: j.Destination.Y,
		ActualX:      j.Current.X,
		ActualY:      j.Current.Y,
		Speed:        j.Speed,
	}
}
