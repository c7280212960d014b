package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

// JourneyReader defines the read side of the journey store
type JourneyReader interface {
	GetJourneyByTicket(ctx context.Context, ticketID string) (*models.JourneySnapshot, error)
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// TrackHandler serves tracking records for tickets
type TrackHandler struct {
	repo JourneyReader
}

// NewTrackHandler creates a new handler with the given repository
func NewTrackHandler(repo JourneyReader) *TrackHandler {
	return &TrackHandler{repo: repo}
}

// GetTrack handles GET /api/track/{ticketId}
// Returns the tracking record in the payload shape the tracking view fetches
func (h *TrackHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	ticketID := strings.TrimSpace(chi.URLParam(r, "ticketId"))
	if ticketID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "ticketId parameter is required",
		})
		return
	}

	journey, err := h.repo.GetJourneyByTicket(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, models.ErrJourneyNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error: "Ticket not found",
				Details: map[string]interface{}{
					"ticketId": ticketID,
				},
			})
			return
		}

		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to retrieve ticket",
			Details: map[string]interface{}{
				"internal": err.Error(),
			},
		})
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, models.RecordFromSnapshot(*journey))
}
