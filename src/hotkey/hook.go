package hotkey

import (
	"errors"
	"log/slog"
	"sync"

	gohook "github.com/robotn/gohook"
)

// HookState tracks held keys from the global gohook event stream.
type HookState struct {
	mu      sync.Mutex
	pressed map[uint16]bool
	events  chan gohook.Event
}

func NewHookState() *HookState {
	return &HookState{pressed: make(map[uint16]bool)}
}

// Start installs the hook and consumes its events in the background.
func (h *HookState) Start() error {
	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start returned nil channel")
	}
	h.events = evChan
	go func() {
		for ev := range evChan {
			h.apply(ev)
		}
		slog.Debug("key hook channel closed")
	}()
	return nil
}

// Stop removes the hook.
func (h *HookState) Stop() {
	if h.events == nil {
		return
	}
	gohook.End()
}

func (h *HookState) Pressed(rawcode uint16) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pressed[rawcode]
}

func (h *HookState) apply(ev gohook.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch ev.Kind {
	case gohook.KeyDown, gohook.KeyHold:
		h.pressed[ev.Rawcode] = true
	case gohook.KeyUp:
		delete(h.pressed, ev.Rawcode)
	}
}
