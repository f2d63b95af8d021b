package overlay

import (
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/require"

	"screen-assist/src/config"
	"screen-assist/src/llm"
)

func TestThemeTable(t *testing.T) {
	require.Equal(t, []string{"Dark (Default)", "Light", "Neon", "Hacker"}, ThemeNames())
	require.Equal(t, "Hacker", ThemeByName("Hacker").Name)
	require.Equal(t, DefaultThemeName, ThemeByName("Solarized").Name)
	require.Equal(t, DefaultThemeName, ThemeByName("").Name)
}

func TestPaletteOverridesColors(t *testing.T) {
	neon := ThemeByName("Neon")
	p := newPalette(neon)

	require.Equal(t, neon.Background, p.Color(theme.ColorNameBackground, theme.VariantDark))
	require.Equal(t, neon.Foreground, p.Color(theme.ColorNameForeground, theme.VariantLight))
	require.Equal(t, neon.Button, p.Color(theme.ColorNamePrimary, theme.VariantDark))
	require.Equal(t,
		theme.DefaultTheme().Color(theme.ColorNameError, theme.VariantDark),
		p.Color(theme.ColorNameError, theme.VariantDark))
	require.Equal(t, theme.DefaultTheme().Size(theme.SizeNamePadding), p.Size(theme.SizeNamePadding))
}

func TestThinkingLabel(t *testing.T) {
	require.Equal(t, "Thinking", thinkingLabel(0))
	require.Equal(t, "Thinking...", thinkingLabel(3))
	require.Equal(t, "Thinking", thinkingLabel(4))
}

func TestThinkingAnimates(t *testing.T) {
	var mu sync.Mutex
	var labels []string
	th := newThinking(func(s string) {
		mu.Lock()
		defer mu.Unlock()
		labels = append(labels, s)
	})
	th.interval = time.Millisecond

	th.Start()
	th.Start()
	require.True(t, th.Running())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(labels) >= 4
	}, time.Second, time.Millisecond)
	th.Stop()
	th.Stop()
	require.False(t, th.Running())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"Thinking", "Thinking.", "Thinking..", "Thinking..."}, labels[:4])
}

func TestEngineLabels(t *testing.T) {
	require.Equal(t, llm.EngineCloud, engineFromLabel(engineLabel(llm.EngineCloud)))
	require.Equal(t, llm.EngineLocal, engineFromLabel(engineLabel(llm.EngineLocal)))
	require.Equal(t, llm.Engine(""), engineFromLabel("something else"))
}

func TestSettingsFormValues(t *testing.T) {
	test.NewTempApp(t)
	var saved []config.Settings
	f := newSettingsForm(config.Snapshot{APIKey: "old", Theme: "nope"},
		func(s config.Settings) { saved = append(saved, s) }, func() {})

	require.Equal(t, "old", f.apiKey.Text)
	require.Equal(t, DefaultThemeName, f.theme.Selected)

	f.apiKey.SetText("new-key")
	f.theme.SetSelected("Light")
	f.form.OnSubmit()
	require.Equal(t, []config.Settings{{APIKey: "new-key", Theme: "Light"}}, saved)
}

func TestWindowForwardsInput(t *testing.T) {
	app := test.NewTempApp(t)
	type submitted struct {
		prompt string
		engine llm.Engine
	}
	var got []submitted
	escapes := 0
	w := New(app, Actions{
		Submit: func(p string, e llm.Engine) { got = append(got, submitted{p, e}) },
		Escape: func() { escapes++ },
	}, config.Snapshot{DefaultEngine: "local", Theme: "Hacker"})

	require.Equal(t, "Ollama (local)", w.engine.Selected)

	w.input.SetText("Make this concise")
	w.onSubmit()
	require.Equal(t, []submitted{{"Make this concise", llm.EngineLocal}}, got)

	w.input.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	require.Equal(t, 1, escapes)

	w.input.Disable()
	w.onSubmit()
	require.Len(t, got, 1, "disabled input does not submit")
}

func TestThinkingStopsSettingLabels(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	th := newThinking(func(string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
	})
	th.interval = time.Millisecond

	th.Start()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 3
	}, time.Second, time.Millisecond)
	th.Stop()

	mu.Lock()
	after := calls
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, after, calls, "no frame lands after Stop")
}
