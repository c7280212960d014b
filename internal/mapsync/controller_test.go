package mapsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

var madridBarcelona = models.JourneySnapshot{
	TicketID:    "T123",
	DisplayName: "Madrid - Barcelona",
	Origin:      models.Point{X: -3.70, Y: 40.41},
	Destination: models.Point{X: 2.17, Y: 41.38},
	Current:     models.Point{X: -0.88, Y: 41.65},
	Speed:       120,
}

// countingSurface records how often each drawing call is made
type countingSurface struct {
	mu        sync.Mutex
	views     []View
	tiles     int
	markers   []LatLng
	icons     []IconID
	popups    map[MarkerID]string
	opened    []MarkerID
	polylines [][]LatLng
	styles    []LineStyle
	glyphs    []string
}

func newCountingSurface() *countingSurface {
	return &countingSurface{popups: map[MarkerID]string{}}
}

func (s *countingSurface) SetView(center LatLng, zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, View{Center: center, Zoom: zoom})
}

func (s *countingSurface) AddTileLayer(string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles++
}

func (s *countingSurface) AddMarker(position LatLng, icon IconID) MarkerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append(s.markers, position)
	s.icons = append(s.icons, icon)
	return MarkerID(len(s.markers))
}

func (s *countingSurface) BindPopup(marker MarkerID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popups[marker] = text
}

func (s *countingSurface) AddPolyline(points []LatLng, style LineStyle) PolylineID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polylines = append(s.polylines, points)
	s.styles = append(s.styles, style)
	return PolylineID(len(s.polylines))
}

func (s *countingSurface) CreateIcon(glyph string, size int) IconID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glyphs = append(s.glyphs, glyph)
	return IconID(len(s.glyphs))
}

func (s *countingSurface) OpenPopup(marker MarkerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, marker)
}

// gatedLoader blocks every Load until release is closed
type gatedLoader struct {
	calls   atomic.Int32
	release chan struct{}
	surface Surface
	err     error
}

func newGatedLoader(surface Surface) *gatedLoader {
	return &gatedLoader{release: make(chan struct{}), surface: surface}
}

func (l *gatedLoader) Load(ctx context.Context, res Resources) (Surface, error) {
	l.calls.Add(1)
	select {
	case <-l.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.surface, nil
}

func waitReady(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Ready():
	case <-time.After(time.Second):
		t.Fatalf("map never became ready, state=%s", c.State())
	}
}

func TestControllerDrawsJourneyOnce(t *testing.T) {
	surface := newCountingSurface()
	loader := newGatedLoader(surface)
	c := NewController(loader, DefaultStyle(), 0)

	assert.Equal(t, Unloaded, c.State())
	require.True(t, c.BeginLoad(context.Background(), madridBarcelona))
	assert.Equal(t, Loading, c.State())

	// re-fired while loading
	assert.False(t, c.BeginLoad(context.Background(), madridBarcelona))

	close(loader.release)
	waitReady(t, c)
	assert.Equal(t, Ready, c.State())

	// re-fired after ready, with a different snapshot
	moved := madridBarcelona
	moved.Current = models.Point{X: 1, Y: 41}
	assert.False(t, c.BeginLoad(context.Background(), moved))

	assert.Equal(t, 1, c.Loads())
	assert.Equal(t, int32(1), loader.calls.Load())

	surface.mu.Lock()
	defer surface.mu.Unlock()
	require.Len(t, surface.views, 1)
	assert.Equal(t, LatLng{Lat: 41.65, Lng: -0.88}, surface.views[0].Center)
	assert.Equal(t, 6, surface.views[0].Zoom)
	assert.Equal(t, 1, surface.tiles)
	require.Len(t, surface.markers, 3)
	require.Len(t, surface.polylines, 1)
	assert.Equal(t, []LatLng{{Lat: 40.41, Lng: -3.70}, {Lat: 41.38, Lng: 2.17}}, surface.polylines[0])
	assert.Equal(t, LineStyle{Color: "#c60b1e", DashArray: "8,8", Weight: 3}, surface.styles[0])
	assert.Equal(t, []string{"🚄"}, surface.glyphs)

	h := c.Handle()
	require.NotNil(t, h)
	assert.Equal(t, "🟢 Origen", surface.popups[h.Origin])
	assert.Equal(t, "🔴 Destino", surface.popups[h.Destination])
	assert.Equal(t, "🚄 Madrid - Barcelona", surface.popups[h.Vehicle])
	assert.Equal(t, []MarkerID{h.Vehicle}, surface.opened)
	assert.Equal(t, NoIcon, surface.icons[0])
	assert.Equal(t, h.Icon, surface.icons[2])
	assert.Equal(t, surface.markers[2], LatLng{Lat: 41.65, Lng: -0.88})
}

func TestControllerConcurrentBeginLoad(t *testing.T) {
	surface := newCountingSurface()
	loader := newGatedLoader(surface)
	c := NewController(loader, DefaultStyle(), 0)

	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.BeginLoad(context.Background(), madridBarcelona) {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	close(loader.release)
	waitReady(t, c)

	assert.Equal(t, int32(1), started.Load())
	surface.mu.Lock()
	defer surface.mu.Unlock()
	assert.Len(t, surface.markers, 3)
	assert.Len(t, surface.polylines, 1)
}

func TestControllerStaysLoadingWhenLoaderFails(t *testing.T) {
	surface := newCountingSurface()
	loader := newGatedLoader(surface)
	loader.err = errors.New("script blocked")
	close(loader.release)

	c := NewController(loader, DefaultStyle(), 0)
	require.True(t, c.BeginLoad(context.Background(), madridBarcelona))

	select {
	case <-c.Ready():
		t.Fatalf("map must not become ready")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, Loading, c.State())
	assert.Nil(t, c.Handle())
	assert.False(t, c.BeginLoad(context.Background(), madridBarcelona))
	assert.Equal(t, 1, c.Loads())
}

func TestControllerTimeoutLeavesLoading(t *testing.T) {
	loader := newGatedLoader(newCountingSurface())
	c := NewController(loader, DefaultStyle(), 20*time.Millisecond)
	require.True(t, c.BeginLoad(context.Background(), madridBarcelona))

	time.Sleep(80 * time.Millisecond)
	close(loader.release)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, Loading, c.State())
	assert.Nil(t, c.Handle())
}

func TestControllerCloseBeforeReadyDrawsNothing(t *testing.T) {
	surface := newCountingSurface()
	loader := newGatedLoader(surface)
	c := NewController(loader, DefaultStyle(), 0)
	require.True(t, c.BeginLoad(context.Background(), madridBarcelona))

	c.Close()
	close(loader.release)
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, Loading, c.State())
	surface.mu.Lock()
	defer surface.mu.Unlock()
	assert.Empty(t, surface.markers)
	assert.Empty(t, surface.views)
}

func TestControllerCancelledContextDrawsNothing(t *testing.T) {
	surface := newCountingSurface()
	loader := LoaderFunc(func(ctx context.Context, res Resources) (Surface, error) {
		<-ctx.Done()
		return surface, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	c := NewController(loader, DefaultStyle(), 0)
	require.True(t, c.BeginLoad(ctx, madridBarcelona))
	cancel()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, Loading, c.State())
	surface.mu.Lock()
	defer surface.mu.Unlock()
	assert.Empty(t, surface.markers)
}

func TestControllerClosedBeforeBegin(t *testing.T) {
	c := NewController(newGatedLoader(newCountingSurface()), DefaultStyle(), 0)
	c.Close()
	assert.False(t, c.BeginLoad(context.Background(), madridBarcelona))
	assert.Equal(t, Unloaded, c.State())
}

func TestHTTPLoaderProbesResources(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.js" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("/* ok */"))
	}))
	defer srv.Close()

	loader := NewHTTPLoader(srv.Client(), true)

	surface, err := loader.Load(context.Background(), Resources{Stylesheet: srv.URL + "/leaflet.css", Script: srv.URL + "/leaflet.js"})
	require.NoError(t, err)
	assert.IsType(t, &Scene{}, surface)
	assert.Equal(t, int32(2), hits.Load())

	_, err = loader.Load(context.Background(), Resources{Script: srv.URL + "/missing.js"})
	assert.Error(t, err)
}

func TestHTTPLoaderWithoutProbe(t *testing.T) {
	surface, err := NewHTTPLoader(nil, false).Load(context.Background(), Resources{Script: "http://127.0.0.1:1/never.js"})
	require.NoError(t, err)
	assert.NotNil(t, surface)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unloaded", Unloaded.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unknown", State(9).String())
}
