package clipboard

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"
	"golang.design/x/clipboard"
)

const (
	// SettleDelay is how long the target application gets to service a
	// simulated copy before the clipboard is read.
	SettleDelay = 100 * time.Millisecond
	// FocusDelay lets focus return to the target application before pasting.
	FocusDelay = 300 * time.Millisecond
)

var (
	writeMu  sync.Mutex
	initOnce sync.Once
	initErr  error
)

func Init() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

func Read() (string, error) {
	if err := Init(); err != nil {
		return "", fmt.Errorf("clipboard unavailable: %w", err)
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	if err := Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// Keys simulates the platform copy and paste shortcuts.
type Keys interface {
	Copy() error
	Paste() error
}

type robotKeys struct{}

func shortcutModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

func (robotKeys) Copy() error  { return robotgo.KeyTap("c", shortcutModifier()) }
func (robotKeys) Paste() error { return robotgo.KeyTap("v", shortcutModifier()) }

// System is the clipboard plus key simulation used by the resident app.
type System struct {
	Keys   Keys
	Read   func() (string, error)
	Write  func(string) error
	Settle time.Duration
	Focus  time.Duration
	Sleep  func(time.Duration)
}

func NewSystem() *System {
	return &System{
		Keys:   robotKeys{},
		Read:   Read,
		Write:  Write,
		Settle: SettleDelay,
		Focus:  FocusDelay,
		Sleep:  time.Sleep,
	}
}

// CopySelection copies whatever is highlighted in the frontmost application
// and returns it. Failures are logged and yield "".
func (s *System) CopySelection() string {
	if err := s.Keys.Copy(); err != nil {
		slog.Warn("simulated copy failed", "err", err)
		return ""
	}
	s.Sleep(s.Settle)
	text, err := s.Read()
	if err != nil {
		slog.Warn("clipboard read failed", "err", err)
		return ""
	}
	return text
}

// Copy places text on the clipboard.
func (s *System) Copy(text string) error {
	return s.Write(text)
}

// Inject types text into the frontmost application by pasting it.
func (s *System) Inject(text string) error {
	s.Sleep(s.Focus)
	if err := s.Write(text); err != nil {
		return err
	}
	if err := s.Keys.Paste(); err != nil {
		return fmt.Errorf("simulated paste: %w", err)
	}
	return nil
}
