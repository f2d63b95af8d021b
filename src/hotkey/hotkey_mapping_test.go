package hotkey

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gohook "github.com/robotn/gohook"
	"github.com/stretchr/testify/require"
)

func TestKeyNameToRawcodesCoversNamedKeys(t *testing.T) {
	names := []string{"cmd", "alt", "shift", "ctrl", "g", "C", "0", "9", "f1", "f12",
		"space", "enter", "return", "esc", "escape", "tab", "backspace", "delete", "del",
		"home", "end", "pageup", "pgdn", "left", "right", "up", "down"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			require.NotEmpty(t, keyNameToRawcodes(name))
		})
	}
	for _, mod := range []string{"cmd", "alt", "shift", "ctrl"} {
		require.Len(t, keyNameToRawcodes(mod), 2, "%s has left and right variants", mod)
	}
	require.Nil(t, keyNameToRawcodes("unknown"))
}

// code returns one raw code of a key on this platform; variant 1 is the
// right-hand modifier.
func code(t *testing.T, name string, variant int) uint16 {
	t.Helper()
	codes := keyNameToRawcodes(name)
	require.Greater(t, len(codes), variant)
	return codes[variant]
}

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Cmd+Option+G", []string{"cmd", "alt", "g"}},
		{"Command+Opt+g", []string{"cmd", "alt", "g"}},
		{"Ctrl+Alt+Q", []string{"ctrl", "alt", "q"}},
		{"Control+Shift+F12", []string{"ctrl", "shift", "f12"}},
		{"Win+Shift+S", []string{"cmd", "shift", "s"}},
		{" cmd + space ", []string{"cmd", "space"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, parseHotkey(tt.input))
		})
	}
}

func TestParseRejectsBadHotkeys(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
	_, err = Parse("Cmd+Hyper")
	require.ErrorContains(t, err, "hyper")
}

// fakeState is a KeyState with settable held keys.
type fakeState struct {
	mu   sync.Mutex
	held map[uint16]bool
}

func newFakeState() *fakeState { return &fakeState{held: map[uint16]bool{}} }

func (f *fakeState) Pressed(rc uint16) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[rc]
}

func (f *fakeState) set(down bool, codes ...uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range codes {
		if down {
			f.held[c] = true
		} else {
			delete(f.held, c)
		}
	}
}

func TestDetectorFiresOncePerPress(t *testing.T) {
	combo, err := Parse("Cmd+Option+G")
	require.NoError(t, err)
	d := NewDetector(combo)
	state := newFakeState()

	require.False(t, d.Observe(state))

	g := code(t, "g", 0)
	state.set(true, code(t, "cmd", 0), code(t, "alt", 0))
	require.False(t, d.Observe(state), "partial combo does not fire")

	state.set(true, g)
	require.True(t, d.Observe(state), "press edge fires")
	for i := 0; i < 10; i++ {
		require.False(t, d.Observe(state), "holding does not repeat")
	}

	state.set(false, g)
	require.False(t, d.Observe(state))

	state.set(true, g)
	require.True(t, d.Observe(state), "release re-arms")
}

func TestDetectorAcceptsRightHandModifiers(t *testing.T) {
	combo, err := Parse("Cmd+Option+G")
	require.NoError(t, err)
	d := NewDetector(combo)
	state := newFakeState()

	state.set(true, code(t, "cmd", 1), code(t, "alt", 1), code(t, "g", 0))
	require.True(t, d.Observe(state))
}

func TestPollerRun(t *testing.T) {
	combo, err := Parse("Cmd+G")
	require.NoError(t, err)
	state := newFakeState()
	p := &Poller{Detector: NewDetector(combo), State: state, Interval: time.Millisecond}

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, func() { fired.Add(1) })
		close(done)
	}()

	g := code(t, "g", 0)
	state.set(true, code(t, "cmd", 0), g)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), fired.Load())

	state.set(false, g)
	time.Sleep(20 * time.Millisecond)
	state.set(true, g)
	require.Eventually(t, func() bool { return fired.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestHookStateTracksEvents(t *testing.T) {
	h := NewHookState()
	h.apply(gohook.Event{Kind: gohook.KeyHold, Rawcode: 55})
	h.apply(gohook.Event{Kind: gohook.KeyDown, Rawcode: 5})
	require.True(t, h.Pressed(55))
	require.True(t, h.Pressed(5))

	h.apply(gohook.Event{Kind: gohook.KeyUp, Rawcode: 5})
	require.False(t, h.Pressed(5))

	h.apply(gohook.Event{Kind: gohook.MouseMove, Rawcode: 58})
	require.False(t, h.Pressed(58))

	h.Stop()
}
