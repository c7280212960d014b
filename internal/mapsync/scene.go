package mapsync

import (
	"encoding/json"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TileLayer is a raster layer added to a scene
type TileLayer struct {
	URLTemplate string `json:"urlTemplate"`
	Attribution string `json:"attribution"`
}

// Icon is a glyph icon created on a scene
type Icon struct {
	ID    IconID `json:"id"`
	Glyph string `json:"glyph"`
	Size  [2]int `json:"size"`
}

// View is the map centre and zoom
type View struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

// SceneDocument is the serialisable form of a Scene, ready for a browser map
// to replay
type SceneDocument struct {
	View     *View                      `json:"view"`
	Tiles    []TileLayer                `json:"tiles"`
	Icons    []Icon                     `json:"icons"`
	Features *geojson.FeatureCollection `json:"features"`
}

// Scene is a Surface that records draw calls as GeoJSON features.
// Markers become Point features, polylines LineString features.
type Scene struct {
	mu        sync.Mutex
	view      *View
	tiles     []TileLayer
	icons     []Icon
	features  *geojson.FeatureCollection
	markers   map[MarkerID]*geojson.Feature
	polylines map[PolylineID]*geojson.Feature
}

// NewScene returns an empty scene
func NewScene() *Scene {
	return &Scene{
		features:  geojson.NewFeatureCollection(),
		markers:   map[MarkerID]*geojson.Feature{},
		polylines: map[PolylineID]*geojson.Feature{},
	}
}

func (s *Scene) SetView(center LatLng, zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = &View{Center: center, Zoom: zoom}
}

func (s *Scene) AddTileLayer(urlTemplate, attribution string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles = append(s.tiles, TileLayer{URLTemplate: urlTemplate, Attribution: attribution})
}

func (s *Scene) AddMarker(position LatLng, icon IconID) MarkerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := MarkerID(len(s.markers) + 1)
	f := geojson.NewFeature(orb.Point{position.Lng, position.Lat})
	f.Properties["kind"] = "marker"
	f.Properties["marker"] = int(id)
	if icon != NoIcon {
		f.Properties["icon"] = int(icon)
	}
	s.features.Append(f)
	s.markers[id] = f
	return id
}

func (s *Scene) BindPopup(marker MarkerID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.markers[marker]; ok {
		f.Properties["popup"] = text
	}
}

func (s *Scene) OpenPopup(marker MarkerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.markers[marker]; ok {
		f.Properties["popupOpen"] = true
	}
}

func (s *Scene) AddPolyline(points []LatLng, style LineStyle) PolylineID {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := make(orb.LineString, 0, len(points))
	for _, p := range points {
		line = append(line, orb.Point{p.Lng, p.Lat})
	}

	id := PolylineID(len(s.polylines) + 1)
	f := geojson.NewFeature(line)
	f.Properties["kind"] = "polyline"
	f.Properties["color"] = style.Color
	f.Properties["dashArray"] = style.DashArray
	f.Properties["weight"] = style.Weight
	s.features.Append(f)
	s.polylines[id] = f
	return id
}

func (s *Scene) CreateIcon(glyph string, size int) IconID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := IconID(len(s.icons) + 1)
	s.icons = append(s.icons, Icon{ID: id, Glyph: glyph, Size: [2]int{size, size}})
	return id
}

// Document copies the recorded scene
func (s *Scene) Document() SceneDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	fc := geojson.NewFeatureCollection()
	for _, f := range s.features.Features {
		clone := geojson.NewFeature(orb.Clone(f.Geometry))
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		fc.Append(clone)
	}

	doc := SceneDocument{
		Tiles:    append([]TileLayer(nil), s.tiles...),
		Icons:    append([]Icon(nil), s.icons...),
		Features: fc,
	}
	if s.view != nil {
		v := *s.view
		doc.View = &v
	}
	return doc
}

// MarshalJSON encodes the scene document
func (s *Scene) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}
