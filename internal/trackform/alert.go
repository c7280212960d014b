package trackform

import (
	"strings"
	"sync"
)

const (
	successMark = "✅"
	errorMark   = "❌"
)

// Alert is a user-facing message. Messages marked with ✅ are successes,
// everything else is an error.
type Alert struct {
	Message string `json:"message"`
}

func (a Alert) Success() bool {
	return strings.Contains(a.Message, successMark)
}

func (a Alert) Title() string {
	if a.Success() {
		return "Success"
	}
	return "Error"
}

// Text is the message without its leading mark
func (a Alert) Text() string {
	text := strings.Replace(a.Message, successMark+" ", "", 1)
	return strings.Replace(text, errorMark+" ", "", 1)
}

// AlertState tracks whether an alert is showing
type AlertState struct {
	mu      sync.Mutex
	visible bool
	current Alert
}

func (s *AlertState) Show(a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = a
	s.visible = true
}

func (s *AlertState) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = false
}

// Current returns the alert and whether it is visible
func (s *AlertState) Current() (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.visible
}
