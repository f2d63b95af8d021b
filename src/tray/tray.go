package tray

import (
	"fmt"
	"log/slog"
	"sync"
)

const (
	AskLabel      = "Ask Screen Assist"
	SettingsLabel = "Settings…"
	QuitLabel     = "Quit"
	busyLabel     = "Working…"
)

// Config wires menu actions. Callbacks run on the tray's goroutine and must
// not block.
type Config struct {
	Title      string
	Hotkey     string
	OnAsk      func()
	OnSettings func()
	OnQuit     func()
}

// Tray is the menu-bar icon and menu.
type Tray struct {
	cfg Config

	mu     sync.Mutex
	busy   bool
	port   int
	render func()
}

func New(cfg Config) *Tray {
	if cfg.Title == "" {
		cfg.Title = "Screen Assist"
	}
	return &Tray{cfg: cfg}
}

// SetBusy switches the tooltip and the Ask item while a query runs.
func (t *Tray) SetBusy(busy bool) {
	t.mu.Lock()
	t.busy = busy
	render := t.render
	t.mu.Unlock()
	if render != nil {
		render()
	}
}

// SetResidentPort records the port CLI clients delegate to, shown in the tooltip.
func (t *Tray) SetResidentPort(port int) {
	t.mu.Lock()
	t.port = port
	render := t.render
	t.mu.Unlock()
	if render != nil {
		render()
	}
}

func (t *Tray) tooltip() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return t.cfg.Title + ": processing..."
	}
	tip := t.cfg.Title
	if t.cfg.Hotkey != "" {
		tip = fmt.Sprintf("%s - Press %s to ask", tip, t.cfg.Hotkey)
	}
	if t.port > 0 {
		tip = fmt.Sprintf("%s (port %d)", tip, t.port)
	}
	return tip
}

func (t *Tray) askLabel() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return busyLabel
	}
	return AskLabel
}

func (t *Tray) setRender(fn func()) {
	t.mu.Lock()
	t.render = fn
	t.mu.Unlock()
}

func (t *Tray) click(label string) {
	var fn func()
	switch label {
	case AskLabel:
		fn = t.cfg.OnAsk
	case SettingsLabel:
		fn = t.cfg.OnSettings
	case QuitLabel:
		fn = t.cfg.OnQuit
	}
	slog.Debug("tray menu clicked", "item", label)
	if fn != nil {
		fn()
	}
}
