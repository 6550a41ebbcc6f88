// Package notify keeps the single transient toast shown to the user.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"airweather-map/internal/clock"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
)

// Icon is the Font Awesome class for the toast type.
func (t Type) Icon() string {
	switch t {
	case TypeSuccess:
		return "fa-check-circle"
	case TypeError:
		return "fa-exclamation-circle"
	default:
		return "fa-info-circle"
	}
}

type Toast struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Center shows at most one toast at a time; a new toast replaces the current one.
type Center struct {
	clock    clock.Clock
	duration time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	current   *Toast
	timer     clock.Timer
	listeners []func(Toast)
}

func NewCenter(clk clock.Clock, duration time.Duration, logger *slog.Logger) *Center {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{clock: clk, duration: duration, logger: logger}
}

// OnShow registers fn to be called with every toast after it becomes current.
func (c *Center) OnShow(fn func(Toast)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Center) Show(typ Type, message string) Toast {
	now := c.clock.Now()
	t := Toast{
		ID:        uuid.NewString(),
		Type:      typ,
		Message:   message,
		Icon:      typ.Icon(),
		CreatedAt: now,
		ExpiresAt: now.Add(c.duration),
	}

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.current = &t
	id := t.ID
	c.timer = c.clock.AfterFunc(c.duration, func() { c.Dismiss(id) })
	listeners := append([]func(Toast){}, c.listeners...)
	c.mu.Unlock()

	c.logger.Debug("toast shown", "toast_id", t.ID, "type", t.Type, "message", t.Message)
	for _, fn := range listeners {
		fn(t)
	}
	return t
}

func (c *Center) Success(message string) { c.Show(TypeSuccess, message) }

func (c *Center) Error(message string) { c.Show(TypeError, message) }

func (c *Center) Info(message string) { c.Show(TypeInfo, message) }

// Current returns the visible toast, if any.
func (c *Center) Current() (Toast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Toast{}, false
	}
	return *c.current, true
}

// Dismiss removes the toast with the given id. It reports false if that toast is no longer current.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.ID != id {
		return false
	}
	c.current = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return true
}
