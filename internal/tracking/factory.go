package tracking

import (
	"time"

	"github.com/mini-rodalies-3d/tracker/internal/mapsync"
)

// Factory builds sessions that share a fetcher and map configuration
type Factory struct {
	Fetcher        Fetcher
	Loader         mapsync.Loader
	Style          mapsync.Style
	FetchTimeout   time.Duration
	MapLoadTimeout time.Duration
}

// New creates a session and its map controller. The controller is nil when
// the factory has no loader.
func (f Factory) New(nav Navigator, pres Presenter) (*Session, *mapsync.Controller) {
	opts := Options{
		Fetcher:      f.Fetcher,
		Navigator:    nav,
		Presenter:    pres,
		FetchTimeout: f.FetchTimeout,
	}

	var ctl *mapsync.Controller
	if f.Loader != nil {
		ctl = mapsync.NewController(f.Loader, f.Style, f.MapLoadTimeout)
		opts.Map = ctl
	}
	return NewSession(opts), ctl
}
