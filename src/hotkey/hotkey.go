package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PollInterval is how often the key state is sampled.
const PollInterval = 50 * time.Millisecond

// KeyState reports whether a raw key code is currently held down.
type KeyState interface {
	Pressed(rawcode uint16) bool
}

type key struct {
	name     string
	rawcodes []uint16
}

// Combo is a parsed hotkey such as "Cmd+Option+G". It matches when every key
// has at least one of its raw codes held.
type Combo struct {
	spec string
	keys []key
}

// Parse converts a hotkey string like "Cmd+Option+G" into a Combo.
func Parse(spec string) (Combo, error) {
	names := parseHotkey(spec)
	if len(names) == 0 {
		return Combo{}, fmt.Errorf("empty hotkey %q", spec)
	}
	c := Combo{spec: spec}
	for _, name := range names {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", spec, name)
		}
		c.keys = append(c.keys, key{name: name, rawcodes: rawcodes})
	}
	return c, nil
}

func (c Combo) String() string { return c.spec }

// Held reports whether the full combination is down right now.
func (c Combo) Held(state KeyState) bool {
	if len(c.keys) == 0 {
		return false
	}
	for _, k := range c.keys {
		down := false
		for _, rc := range k.rawcodes {
			if state.Pressed(rc) {
				down = true
				break
			}
		}
		if !down {
			return false
		}
	}
	return true
}

// Detector turns sampled key state into activation edges: one activation per
// press, none while the combination stays held, re-armed on release.
type Detector struct {
	combo Combo
	held  bool
}

func NewDetector(combo Combo) *Detector {
	return &Detector{combo: combo}
}

// Observe samples state and reports whether this sample is a press edge.
func (d *Detector) Observe(state KeyState) bool {
	now := d.combo.Held(state)
	fired := now && !d.held
	d.held = now
	return fired
}

// Poller samples a KeyState on a ticker and calls fire on each press edge.
type Poller struct {
	Detector *Detector
	State    KeyState
	Interval time.Duration
}

// Run blocks until ctx is done. fire is called from the polling goroutine and
// must not block for long.
func (p *Poller) Run(ctx context.Context, fire func()) {
	interval := p.Interval
	if interval <= 0 {
		interval = PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.Detector.Observe(p.State) {
				slog.Debug("hotkey activated", "hotkey", p.Detector.combo.String())
				if fire != nil {
					fire()
				}
			}
		}
	}
}

// Listen starts the system key hook and polls it for spec until ctx is done.
func Listen(ctx context.Context, spec string, fire func()) error {
	combo, err := Parse(spec)
	if err != nil {
		return err
	}
	source := NewHookState()
	if err := source.Start(); err != nil {
		return err
	}
	slog.Info("hotkey listener configured", "hotkey", spec)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in hotkey poller", "panic", r)
			}
		}()
		defer source.Stop()
		p := &Poller{Detector: NewDetector(combo), State: source, Interval: PollInterval}
		p.Run(ctx, fire)
	}()
	return nil
}

// parseHotkey converts a hotkey string like "Cmd+Option+G" to normalized key names.
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "ctrl", "control":
			keys = append(keys, "ctrl")
		case "alt", "option", "opt":
			keys = append(keys, "alt")
		case "shift":
			keys = append(keys, "shift")
		case "cmd", "command", "win", "super", "meta":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}
