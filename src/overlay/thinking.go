package overlay

import (
	"strings"
	"sync"
	"time"
)

const thinkingInterval = 400 * time.Millisecond

func thinkingLabel(frame int) string {
	return "Thinking" + strings.Repeat(".", frame%4)
}

// thinking drives the busy label while a query is outstanding.
type thinking struct {
	mu       sync.Mutex
	stop     chan struct{}
	interval time.Duration
	set      func(label string)
}

func newThinking(set func(string)) *thinking {
	return &thinking{interval: thinkingInterval, set: set}
}

func (t *thinking) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.set(thinkingLabel(0))

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for frame := 1; ; frame++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// set must not block; holding mu keeps a late frame from
				// landing after Stop.
				t.mu.Lock()
				if t.stop == stop {
					t.set(thinkingLabel(frame))
				}
				t.mu.Unlock()
			}
		}
	}()
}

func (t *thinking) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

func (t *thinking) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}
