// Package mapsync owns the lifecycle of the map surface shown on a tracking view.
//
// A Controller moves through Unloaded -> Loading -> Ready exactly once. The
// first BeginLoad starts loading the surface resources; when the loader
// reports ready the controller draws the journey (view, tiles, origin and
// destination markers, a dashed route line and the vehicle icon) and stops.
// Later snapshots do not redraw or move anything.
//
// A loader that never returns, or returns an error, leaves the controller in
// Loading for good. An optional timeout bounds the wait.
package mapsync

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

// State is the lifecycle of the map surface
type State int

const (
	Unloaded State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Handle holds the surface and every object drawn on it for one journey
type Handle struct {
	Surface     Surface
	Origin      MarkerID
	Destination MarkerID
	Vehicle     MarkerID
	Route       PolylineID
	Icon        IconID
}

// Controller drives a single map surface for a single tracking session
type Controller struct {
	loader  Loader
	style   Style
	timeout time.Duration

	mu     sync.Mutex
	state  State
	handle *Handle
	loads  int
	closed bool
	ready  chan struct{}
}

// NewController creates a controller in the Unloaded state.
// A zero timeout waits for the loader indefinitely.
func NewController(loader Loader, style Style, timeout time.Duration) *Controller {
	return &Controller{
		loader:  loader,
		style:   style,
		timeout: timeout,
		ready:   make(chan struct{}),
	}
}

// BeginLoad starts loading the surface for the given snapshot.
// Only the first call from Unloaded does anything; it reports whether it did.
func (c *Controller) BeginLoad(ctx context.Context, snapshot models.JourneySnapshot) bool {
	c.mu.Lock()
	if c.state != Unloaded || c.closed {
		c.mu.Unlock()
		return false
	}
	c.state = Loading
	c.loads++
	c.mu.Unlock()

	go c.load(ctx, snapshot)
	return true
}

func (c *Controller) load(ctx context.Context, snapshot models.JourneySnapshot) {
	loadCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	surface, err := c.loader.Load(loadCtx, c.style.Resources())
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("mapsync: map resources did not load, map stays %s: %v", Loading, err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || ctx.Err() != nil {
		return
	}
	c.handle = draw(surface, c.style, snapshot)
	c.state = Ready
	close(c.ready)
}

// draw builds the initial view of a journey on a ready surface
func draw(s Surface, style Style, snapshot models.JourneySnapshot) *Handle {
	origin := ToLatLng(snapshot.Origin)
	destination := ToLatLng(snapshot.Destination)
	current := ToLatLng(snapshot.Current)

	s.SetView(current, style.Zoom)
	s.AddTileLayer(style.TileURL, style.Attribution)

	h := &Handle{Surface: s}

	h.Origin = s.AddMarker(origin, NoIcon)
	s.BindPopup(h.Origin, style.OriginPopup)

	h.Destination = s.AddMarker(destination, NoIcon)
	s.BindPopup(h.Destination, style.DestinationPopup)

	h.Route = s.AddPolyline([]LatLng{origin, destination}, style.Route)

	h.Icon = s.CreateIcon(style.VehicleGlyph, style.IconSize)
	h.Vehicle = s.AddMarker(current, h.Icon)
	s.BindPopup(h.Vehicle, style.VehicleLabel(snapshot.DisplayName))
	s.OpenPopup(h.Vehicle)

	return h
}

// Close detaches the controller from its session. Once it returns the surface
// is never touched again, whatever the loader does afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handle returns the drawn objects, or nil before Ready
func (c *Controller) Handle() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Ready is closed when the surface has been drawn
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Loads counts how many times resource loading was started (0 or 1)
func (c *Controller) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
