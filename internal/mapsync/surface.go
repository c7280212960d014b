package mapsync

import "github.com/mini-rodalies-3d/tracker/internal/models"

// LatLng is a map position in latitude/longitude order
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ToLatLng maps a planar point (X longitude, Y latitude) onto the map
func ToLatLng(p models.Point) LatLng {
	return LatLng{Lat: p.Y, Lng: p.X}
}

// Handles returned by a Surface. Zero values mean "none".
type (
	MarkerID   int
	PolylineID int
	IconID     int
)

// NoIcon asks the surface for its default marker
const NoIcon IconID = 0

// Surface is the drawing capability of an interactive map.
// Implementations own every object they hand out a handle for.
type Surface interface {
	SetView(center LatLng, zoom int)
	AddTileLayer(urlTemplate, attribution string)
	AddMarker(position LatLng, icon IconID) MarkerID
	BindPopup(marker MarkerID, text string)
	AddPolyline(points []LatLng, style LineStyle) PolylineID
	CreateIcon(glyph string, size int) IconID
	OpenPopup(marker MarkerID)
}
