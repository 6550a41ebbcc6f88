// Package appstate holds the UI state shared by the lookup controller and the HTTP handlers:
// the loading, error and connected indicators and the panel currently on screen.
package appstate

import (
	"sync"
	"time"

	"airweather-map/internal/apiclient"
	"airweather-map/internal/clock"
	"airweather-map/internal/views"
)

const (
	LabelConnecting = "Connecting..."
	LabelLoading    = "Loading..."
	LabelConnected  = "Connected"
	LabelError      = "Error"
)

// Snapshot is a consistent copy of the State.
type Snapshot struct {
	Loading   bool             `json:"loading"`
	Connected bool             `json:"connected"`
	Error     string           `json:"error,omitempty"`
	Label     string           `json:"label"`
	Class     string           `json:"class"`
	Session   uint64           `json:"session"`
	Panel     *views.PanelView `json:"panel,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type State struct {
	clock clock.Clock

	mu        sync.Mutex
	loading   bool
	session   uint64
	connected bool
	errMsg    string
	panel     *views.PanelView
	updatedAt time.Time
}

func New(clk clock.Clock) *State {
	if clk == nil {
		clk = clock.Real()
	}
	return &State{clock: clk, updatedAt: clk.Now()}
}

// SetConnected records a successful health probe.
func (s *State) SetConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.errMsg = ""
	s.touchLocked()
}

// SetDisconnected records a failed health probe. The message stays until a lookup succeeds.
func (s *State) SetDisconnected(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.errMsg = msg
	s.touchLocked()
}

// BeginLoading marks session as the one the loading indicator follows.
func (s *State) BeginLoading(session uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.session = session
	s.touchLocked()
}

// FinishLoading clears the loading indicator when session is the newest one started.
// Any session's outcome updates the error indicator.
func (s *State) FinishLoading(session uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == s.session {
		s.loading = false
	}
	if err != nil {
		s.errMsg = apiclient.UserMessage(err)
	} else {
		s.errMsg = ""
		s.connected = true
	}
	s.touchLocked()
}

// SetPanel replaces the panel on screen.
func (s *State) SetPanel(p views.PanelView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panel = &p
	s.touchLocked()
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Loading:   s.loading,
		Connected: s.connected,
		Error:     s.errMsg,
		Session:   s.session,
		UpdatedAt: s.updatedAt,
	}
	switch {
	case s.loading:
		snap.Label, snap.Class = LabelLoading, "loading"
	case s.errMsg != "":
		snap.Label, snap.Class = LabelError, "error"
	case s.connected:
		snap.Label, snap.Class = LabelConnected, "connected"
	default:
		snap.Label, snap.Class = LabelConnecting, "connecting"
	}
	if s.panel != nil {
		p := *s.panel
		snap.Panel = &p
	}
	return snap
}

func (s *State) touchLocked() {
	s.updatedAt = s.clock.Now()
}
