package mapsync

import "strings"

// LineStyle describes how the route polyline is drawn
type LineStyle struct {
	Color     string `yaml:"color" json:"color" validate:"required"`
	DashArray string `yaml:"dashArray" json:"dashArray"`
	Weight    int    `yaml:"weight" json:"weight" validate:"gt=0"`
}

// Style holds everything the controller needs to draw a journey
type Style struct {
	// Resources the map surface needs before it can draw
	Stylesheet string `yaml:"stylesheet" validate:"omitempty,url"`
	Script     string `yaml:"script" validate:"omitempty,url"`

	TileURL     string `yaml:"tileURL" validate:"required"`
	Attribution string `yaml:"attribution"`
	Zoom        int    `yaml:"zoom" validate:"gte=0,lte=22"`

	Route        LineStyle `yaml:"route"`
	VehicleGlyph string    `yaml:"vehicleGlyph" validate:"required"`
	IconSize     int       `yaml:"iconSize" validate:"gt=0"`

	OriginPopup      string `yaml:"originPopup"`
	DestinationPopup string `yaml:"destinationPopup"`
	// VehiclePopup may contain {name}, replaced by the journey display name
	VehiclePopup string `yaml:"vehiclePopup"`
}

// DefaultStyle mirrors the Leaflet 1.9.4 tracking page
func DefaultStyle() Style {
	return Style{
		Stylesheet:  "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css",
		Script:      "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js",
		TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap",
		Zoom:        6,
		Route: LineStyle{
			Color:     "#c60b1e",
			DashArray: "8,8",
			Weight:    3,
		},
		VehicleGlyph:     "🚄",
		IconSize:         24,
		OriginPopup:      "🟢 Origen",
		DestinationPopup: "🔴 Destino",
		VehiclePopup:     "🚄 {name}",
	}
}

// Resources returns the assets to load before the first draw
func (s Style) Resources() Resources {
	return Resources{Stylesheet: s.Stylesheet, Script: s.Script}
}

// VehicleLabel renders the vehicle popup for a journey name
func (s Style) VehicleLabel(displayName string) string {
	return strings.ReplaceAll(s.VehiclePopup, "{name}", displayName)
}
