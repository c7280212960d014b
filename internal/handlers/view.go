package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mini-rodalies-3d/tracker/internal/mapsync"
	"github.com/mini-rodalies-3d/tracker/internal/models"
	"github.com/mini-rodalies-3d/tracker/internal/tracking"
)

// Stream frame types
const (
	FrameState    = "state"
	FrameNavigate = "navigate"
	FrameMap      = "map"
)

// StreamFrame is one message on the tracking websocket
type StreamFrame struct {
	Type  string                 `json:"type"`
	State *models.ViewState      `json:"state,omitempty"`
	Path  string                 `json:"path,omitempty"`
	Scene *mapsync.SceneDocument `json:"scene,omitempty"`
}

// ViewHandler runs tracking sessions for the tracking view
type ViewHandler struct {
	sessions tracking.Factory
	upgrader websocket.Upgrader
}

// NewViewHandler creates a view handler backed by the session factory.
// Websocket upgrades are accepted only from allowedOrigins; "*" allows any.
func NewViewHandler(sessions tracking.Factory, allowedOrigins []string) *ViewHandler {
	return &ViewHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker matches the Origin header against the allowed list.
// Requests without an Origin header come from non-browser clients and pass.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		log.Printf("view: rejected websocket origin %q", origin)
		return false
	}
}

// lastState keeps the most recent state a session presented
type lastState struct {
	mu    sync.Mutex
	state models.ViewState
	path  string
}

func (l *lastState) Present(s models.ViewState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s
}

func (l *lastState) Redirect(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
}

// GetState handles GET /track/{ticketId}/state
// Runs a session to completion and returns its terminal view state. Redirects
// answer 303 to the ticket listing unless the client asks for JSON.
func (h *ViewHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ticketID := tracking.TicketIDFromPath(strings.TrimSuffix(r.URL.EscapedPath(), "/state"))

	last := &lastState{}
	session, _ := h.sessions.New(last, last)
	stop := context.AfterFunc(r.Context(), session.Teardown)
	defer stop()
	defer session.Teardown()

	session.Start(ticketID)

	state, ok := session.Current()
	if !ok {
		// client went away before anything was emitted
		return
	}

	if state.Kind == models.ViewRedirect && !wantsJSON(r) {
		http.Redirect(w, r, last.path, http.StatusSeeOther)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, state)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// wsPresenter forwards session output to a websocket
type wsPresenter struct {
	conn *websocket.Conn
	id   string
}

func (p *wsPresenter) Present(s models.ViewState) {
	p.write(StreamFrame{Type: FrameState, State: &s})
}

func (p *wsPresenter) Redirect(path string) {
	p.write(StreamFrame{Type: FrameNavigate, Path: path})
}

func (p *wsPresenter) write(f StreamFrame) {
	if err := p.conn.WriteJSON(f); err != nil {
		log.Printf("tracking: session %s: write %s frame: %v", p.id, f.Type, err)
	}
}

// Stream handles GET /ws/track/{ticketId}
// Streams the session's view states, then the drawn map scene once the map is
// ready. Closing the socket tears the session down.
func (h *ViewHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ticketID := tracking.TicketIDFromPath(r.URL.EscapedPath())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("tracking: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	pres := &wsPresenter{conn: conn}
	session, ctl := h.sessions.New(pres, pres)
	pres.id = session.ID
	defer session.Teardown()

	// reads only to notice the client leaving
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				session.Teardown()
				return
			}
		}
	}()

	session.Start(ticketID)

	state, ok := session.Current()
	if !ok || state.Kind != models.ViewDisplay || ctl == nil {
		h.closeStream(conn)
		return
	}

	select {
	case <-ctl.Ready():
	case <-session.Context().Done():
		return
	}

	scene, ok := ctl.Handle().Surface.(*mapsync.Scene)
	if ok && !session.Cancelled() {
		doc := scene.Document()
		pres.write(StreamFrame{Type: FrameMap, Scene: &doc})
	}
	h.closeStream(conn)
}

func (h *ViewHandler) closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
}
