// Package tracking orchestrates one tracking view: fetch the journey, compute
// its progress, start the map and tell the presentation layer what to draw.
//
// A Session emits Loading and then exactly one of Redirect or Display. After
// Teardown nothing more is emitted and no navigation happens, however late the
// fetch or the map load resolves.
package tracking

import (
	"context"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mini-rodalies-3d/tracker/internal/mapsync"
	"github.com/mini-rodalies-3d/tracker/internal/models"
	"github.com/mini-rodalies-3d/tracker/internal/progress"
)

// Fetcher resolves a ticket id to a journey snapshot
type Fetcher interface {
	Fetch(ctx context.Context, ticketID string) (models.JourneySnapshot, error)
}

// Navigator sends the user somewhere else
type Navigator interface {
	Redirect(path string)
}

// Presenter draws view states
type Presenter interface {
	Present(state models.ViewState)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(state models.ViewState)

func (f PresenterFunc) Present(state models.ViewState) { f(state) }

// MapController is the part of mapsync.Controller a session drives
type MapController interface {
	BeginLoad(ctx context.Context, snapshot models.JourneySnapshot) bool
	State() mapsync.State
	Close()
}

// Options configures a session
type Options struct {
	Fetcher   Fetcher
	Navigator Navigator
	Presenter Presenter
	Map       MapController

	// FetchTimeout bounds the snapshot fetch; zero waits indefinitely
	FetchTimeout time.Duration
}

// Session is the lifetime of one tracking view
type Session struct {
	ID string

	fetcher      Fetcher
	navigator    Navigator
	presenter    Presenter
	mapCtl       MapController
	fetchTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	cancelled bool
	current   models.ViewState
	emitted   bool
}

// NewSession creates a session. Map may be nil when no map is shown.
func NewSession(opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:           uuid.NewString(),
		fetcher:      opts.Fetcher,
		navigator:    opts.Navigator,
		presenter:    opts.Presenter,
		mapCtl:       opts.Map,
		fetchTimeout: opts.FetchTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start runs the session for a ticket id and returns once the terminal state
// has been emitted or suppressed. It is meant to run once per session.
func (s *Session) Start(ticketID string) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		s.redirect(models.ReasonMissingID)
		return
	}

	if !s.emit(models.LoadingState()) {
		return
	}

	fetchCtx := s.ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(s.ctx, s.fetchTimeout)
		defer cancel()
	}

	snapshot, err := s.fetcher.Fetch(fetchCtx, ticketID)
	if err != nil {
		if s.ctx.Err() == nil {
			log.Printf("tracking: session %s: ticket %q not available: %v", s.ID, ticketID, err)
		}
		s.redirect(models.ReasonNotFound)
		return
	}

	state := progress.Compute(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}

	mapState := ""
	if s.mapCtl != nil {
		s.mapCtl.BeginLoad(s.ctx, snapshot)
		mapState = s.mapCtl.State().String()
	}
	s.emitLocked(models.DisplayState(snapshot, state, mapState))
}

// Teardown cancels pending work. Once it returns the session emits nothing
// and navigates nowhere. Presenters must not call it from Present.
func (s *Session) Teardown() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()

	s.cancel()
	if s.mapCtl != nil {
		s.mapCtl.Close()
	}
}

// Cancelled reports whether Teardown has run
func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Current returns the last emitted state and whether anything was emitted
func (s *Session) Current() (models.ViewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.emitted
}

// Context is cancelled on teardown
func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) redirect(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.emitLocked(models.RedirectState(reason)) {
		return
	}
	if s.navigator != nil {
		s.navigator.Redirect(models.ListingPath)
	}
}

func (s *Session) emit(state models.ViewState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitLocked(state)
}

func (s *Session) emitLocked(state models.ViewState) bool {
	if s.cancelled {
		return false
	}
	s.current = state
	s.emitted = true
	if s.presenter != nil {
		s.presenter.Present(state)
	}
	return true
}

// TicketIDFromPath returns the URI-decoded last segment of a view path such
// as /track/T123. A segment that does not decode counts as missing.
func TicketIDFromPath(path string) string {
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	decoded, err := url.PathUnescape(last)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(decoded)
}
