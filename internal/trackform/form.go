// Package trackform is the "track a ticket" form: it checks a typed ticket id
// against the tracking API and either sends the user to its tracking view or
// raises an alert.
package trackform

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/mini-rodalies-3d/tracker/internal/models"
)

const (
	MsgInvalidTicket  = "❌ Ticket inválido"
	MsgTicketNotFound = "❌ Ticket no encontrado"
)

// Fetcher resolves a ticket id, the same contract the tracking view uses
type Fetcher interface {
	Fetch(ctx context.Context, ticketID string) (models.JourneySnapshot, error)
}

// Result is the outcome of one submission. Exactly one field is set.
type Result struct {
	Redirect string `json:"redirect,omitempty"`
	Alert    *Alert `json:"alert,omitempty"`
}

// Form holds the state of one ticket form
type Form struct {
	fetcher Fetcher
	alert   *AlertState

	mu      sync.Mutex
	loading bool
}

// New creates a form backed by the given fetcher that raises its alerts on
// alert. A nil alert gets a fresh AlertState.
func New(fetcher Fetcher, alert *AlertState) *Form {
	if alert == nil {
		alert = &AlertState{}
	}
	return &Form{fetcher: fetcher, alert: alert}
}

// Submit handles one form submission
func (f *Form) Submit(ctx context.Context, raw string) Result {
	f.setLoading(true)
	defer f.setLoading(false)
	f.alert.Hide()

	id := strings.TrimSpace(raw)
	if id == "" {
		return f.fail(MsgInvalidTicket)
	}

	if _, err := f.fetcher.Fetch(ctx, id); err != nil {
		return f.fail(MsgTicketNotFound)
	}
	return Result{Redirect: TrackPath(id)}
}

func (f *Form) fail(message string) Result {
	a := Alert{Message: message}
	f.alert.Show(a)
	return Result{Alert: &a}
}

// Loading reports whether a submission is in flight
func (f *Form) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *Form) setLoading(v bool) {
	f.mu.Lock()
	f.loading = v
	f.mu.Unlock()
}

// Alert returns the form's alert state
func (f *Form) Alert() *AlertState {
	return f.alert
}

// DismissAlert hides the current alert
func (f *Form) DismissAlert() {
	f.alert.Hide()
}

// ButtonLabel is the submit button text for the current state
func (f *Form) ButtonLabel() string {
	if f.Loading() {
		return "Buscando..."
	}
	return "Buscar"
}

// TrackPath is the tracking view path for a ticket id
func TrackPath(ticketID string) string {
	return "/track/" + url.PathEscape(ticketID)
}
