package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mini-rodalies-3d/tracker/internal/fetcher"
	"github.com/mini-rodalies-3d/tracker/internal/mapsync"
	"github.com/mini-rodalies-3d/tracker/internal/models"
	"github.com/mini-rodalies-3d/tracker/internal/tracking"
)

var journey = models.JourneySnapshot{
	TicketID:    "T123",
	DisplayName: "A - B",
	Origin:      models.Point{X: 0, Y: 0},
	Destination: models.Point{X: 10, Y: 0},
	Current:     models.Point{X: 5, Y: 0},
	Speed:       80,
}

// memStore is an in-memory journey store
type memStore struct {
	journeys map[string]models.JourneySnapshot
	err      error
}

func (m *memStore) GetJourneyByTicket(ctx context.Context, ticketID string) (*models.JourneySnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	j, ok := m.journeys[ticketID]
	if !ok {
		return nil, models.ErrJourneyNotFound
	}
	return &j, nil
}

func (m *memStore) Ping(ctx context.Context) error {
	return m.err
}

func newStore() *memStore {
	return &memStore{journeys: map[string]models.JourneySnapshot{
		"T123":  journey,
		"T 456": {TicketID: "T 456", DisplayName: "C - D", Destination: models.Point{X: 4}},
	}}
}

func newRouter(store *memStore) chi.Router {
	sessions := tracking.Factory{
		Fetcher: fetcher.NewRepositoryFetcher(store),
		Loader:  mapsync.NewHTTPLoader(nil, false),
		Style:   mapsync.DefaultStyle(),
	}

	r := chi.NewRouter()
	r.Get("/api/track/{ticketId}", NewTrackHandler(store).GetTrack)
	r.Post("/api/track", NewFormHandler(fetcher.NewRepositoryFetcher(store)).Submit)
	r.Get("/track/{ticketId}/state", NewViewHandler(sessions, []string{"http://localhost:5173"}).GetState)
	r.Get("/ws/track/{ticketId}", NewViewHandler(sessions, []string{"http://localhost:5173"}).Stream)
	r.Get("/health", NewHealthHandler(store).Health)
	r.Get("/healthz", NewHealthHandler(store).Healthz)
	return r
}

func TestGetTrack(t *testing.T) {
	r := newRouter(newStore())

	req := httptest.NewRequest(http.MethodGet, "/api/track/T123", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "T123", body["ticketid"])
	assert.Equal(t, "A - B", body["name"])
	assert.Equal(t, 10.0, body["DestinationX"])
	assert.Equal(t, 5.0, body["ActualX"])
	assert.Equal(t, 80.0, body["speed"])
}

func TestGetTrackErrors(t *testing.T) {
	store := newStore()
	r := newRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track/NOPE", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ticket not found", body.Error)

	store.err = errors.New("disk on fire")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/track/T123", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFormSubmit(t *testing.T) {
	r := newRouter(newStore())

	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		redirect    string
		alert       string
	}{
		{"form found", "application/x-www-form-urlencoded", "ticketid=T123", http.StatusOK, "/track/T123", ""},
		{"form escaped", "application/x-www-form-urlencoded", "ticketid=" + url.QueryEscape(" T 456 "), http.StatusOK, "/track/T%20456", ""},
		{"json found", "application/json", `{"ticketid":"T123"}`, http.StatusOK, "/track/T123", ""},
		{"empty", "application/x-www-form-urlencoded", "ticketid=+", http.StatusBadRequest, "", "❌ Ticket inválido"},
		{"unknown", "application/json", `{"ticketid":"NOPE"}`, http.StatusNotFound, "", "❌ Ticket no encontrado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var body struct {
				Redirect string `json:"redirect"`
				Alert    *struct {
					Message string `json:"message"`
				} `json:"alert"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.redirect, body.Redirect)
			if tt.alert != "" {
				require.NotNil(t, body.Alert)
				assert.Equal(t, tt.alert, body.Alert.Message)
			}
		})
	}
}

func TestFormSubmitBadJSON(t *testing.T) {
	r := newRouter(newStore())
	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStateDisplay(t *testing.T) {
	r := newRouter(newStore())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/track/T123/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var state models.ViewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, models.ViewDisplay, state.Kind)
	assert.Equal(t, 50, state.Percent)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Redirect)
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, "A - B", state.Snapshot.DisplayName)
}

func TestGetStateEscapedTicket(t *testing.T) {
	r := newRouter(newStore())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/track/T%20456/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var state models.ViewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, "T 456", state.Snapshot.TicketID)
	assert.Equal(t, 0, state.Percent)
}

func TestGetStateRedirects(t *testing.T) {
	r := newRouter(newStore())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/track/NOPE/state", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tickets", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/track/%20/state", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var state models.ViewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, models.ViewRedirect, state.Kind)
	assert.Equal(t, models.ReasonMissingID, state.Reason)
	require.NotNil(t, state.Redirect)
	assert.Equal(t, "/tickets", *state.Redirect)
}

func TestHealth(t *testing.T) {
	store := newStore()
	r := newRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"connected"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	store.err = errors.New("gone")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
