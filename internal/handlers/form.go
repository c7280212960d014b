package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mini-rodalies-3d/tracker/internal/trackform"
)

// FormHandler backs the "track a ticket" form
type FormHandler struct {
	fetcher trackform.Fetcher
}

// NewFormHandler creates a form handler that checks tickets with fetcher
func NewFormHandler(fetcher trackform.Fetcher) *FormHandler {
	return &FormHandler{fetcher: fetcher}
}

type formRequest struct {
	TicketID string `json:"ticketid"`
}

// Submit handles POST /api/track
// Accepts a form field or JSON body named ticketid and answers with either
// the tracking path to navigate to or an alert to show
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var raw string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req formRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request body",
				Details: map[string]interface{}{
					"internal": err.Error(),
				},
			})
			return
		}
		raw = req.TicketID
	} else {
		raw = r.FormValue("ticketid")
	}

	alert := &trackform.AlertState{}
	result := trackform.New(h.fetcher, alert).Submit(r.Context(), raw)

	shown, visible := alert.Current()
	switch {
	case !visible:
		writeJSON(w, http.StatusOK, result)
	case shown.Message == trackform.MsgInvalidTicket:
		writeJSON(w, http.StatusBadRequest, result)
	default:
		writeJSON(w, http.StatusNotFound, result)
	}
}
