package overlay

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"screen-assist/src/config"
	"screen-assist/src/llm"
	"screen-assist/src/logutil"
)

const (
	windowTitle       = "Screen Assist"
	promptPlaceholder = "Ask about your screen (e.g. 'Make this concise')..."
	followPlaceholder = "Ask follow up..."
	outputPlaceholder = "The answer will appear here..."
	submitLabel       = "Submit"
	contextPreviewLen = 80
)

var engineOptions = []struct {
	label  string
	engine llm.Engine
}{
	{"Gemini (cloud)", llm.EngineCloud},
	{"Ollama (local)", llm.EngineLocal},
}

func engineLabel(e llm.Engine) string {
	for _, o := range engineOptions {
		if o.engine == e {
			return o.label
		}
	}
	return engineOptions[0].label
}

func engineFromLabel(label string) llm.Engine {
	for _, o := range engineOptions {
		if o.label == label {
			return o.engine
		}
	}
	return ""
}

// Actions are the user inputs the window forwards to the controller.
type Actions struct {
	Submit       func(prompt string, engine llm.Engine)
	Escape       func()
	Insert       func()
	SaveSettings func(config.Settings)
	// Current returns the configuration used to prefill the settings form.
	Current func() config.Snapshot
}

// Window is the floating input/output overlay backed by fyne. Methods may be
// called from any goroutine; widget updates are marshalled with fyne.Do.
type Window struct {
	app     fyne.App
	win     fyne.Window
	actions Actions

	input    *promptEntry
	engine   *widget.Select
	submit   *widget.Button
	insert   *widget.Button
	context  *widget.Label
	output   *widget.RichText
	thinking *thinking
}

// New builds the overlay window on app. It starts hidden.
func New(app fyne.App, actions Actions, snap config.Snapshot) *Window {
	w := &Window{app: app, actions: actions}
	w.win = app.NewWindow(windowTitle)

	w.input = newPromptEntry(w.escape)
	w.input.SetPlaceHolder(promptPlaceholder)
	w.input.OnSubmitted = func(string) { w.onSubmit() }

	labels := make([]string, len(engineOptions))
	for i, o := range engineOptions {
		labels[i] = o.label
	}
	w.engine = widget.NewSelect(labels, nil)
	engine, err := llm.ParseEngine(snap.DefaultEngine)
	if err != nil {
		engine = llm.EngineCloud
	}
	w.engine.SetSelected(engineLabel(engine))

	w.submit = widget.NewButton(submitLabel, w.onSubmit)
	w.insert = widget.NewButton("Insert", func() {
		if w.actions.Insert != nil {
			w.actions.Insert()
		}
	})
	w.insert.Disable()
	settings := widget.NewButton("⚙", w.openSettings)

	w.context = widget.NewLabel("")
	w.context.Wrapping = fyne.TextWrapWord
	w.context.Hide()

	w.output = widget.NewRichTextFromMarkdown("")
	w.output.Wrapping = fyne.TextWrapWord
	w.thinking = newThinking(func(label string) {
		fyne.Do(func() { w.submit.SetText(label) })
	})

	top := container.NewBorder(nil, nil, nil, settings, w.engine)
	inputRow := container.NewBorder(nil, nil, nil, container.NewHBox(w.submit, w.insert), w.input)
	header := container.NewVBox(top, w.context, inputRow)
	w.win.SetContent(container.NewBorder(header, nil, nil, nil, container.NewVScroll(w.output)))
	w.win.Resize(fyne.NewSize(500, 450))
	w.win.SetFixedSize(true)
	w.win.SetCloseIntercept(w.escape)
	w.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			w.escape()
		}
	})

	w.applyTheme(snap.Theme)
	w.setOutput("")
	return w
}

func (w *Window) escape() {
	if w.actions.Escape != nil {
		w.actions.Escape()
	}
}

func (w *Window) onSubmit() {
	if w.actions.Submit == nil || w.input.Disabled() {
		return
	}
	w.actions.Submit(w.input.Text, engineFromLabel(w.engine.Selected))
}

func (w *Window) setOutput(text string) {
	if text == "" {
		w.output.ParseMarkdown("*" + outputPlaceholder + "*")
		return
	}
	w.output.ParseMarkdown(text)
}

// ShowReady shows the overlay ready for a prompt, with the selection (if
// any) previewed above the input.
func (w *Window) ShowReady(selection string) {
	fyne.Do(func() {
		w.thinking.Stop()
		w.input.Enable()
		w.input.SetText("")
		w.input.SetPlaceHolder(promptPlaceholder)
		w.submit.Enable()
		w.submit.SetText(submitLabel)
		if selection != "" {
			w.context.SetText("Selection: " + logutil.Sanitize(selection, contextPreviewLen))
			w.context.Show()
		} else {
			w.context.Hide()
		}
		w.win.CenterOnScreen()
		w.win.Show()
		w.win.RequestFocus()
		w.win.Canvas().Focus(w.input)
	})
}

// ShowBusy disables input and starts the thinking animation.
func (w *Window) ShowBusy() {
	fyne.Do(func() {
		w.input.Disable()
		w.submit.Disable()
		w.insert.Disable()
	})
	w.thinking.Start()
}

// ShowResult renders an answer or an error message and re-enables input.
func (w *Window) ShowResult(text string) {
	w.thinking.Stop()
	fyne.Do(func() {
		w.submit.SetText(submitLabel)
		w.submit.Enable()
		w.input.Enable()
		w.input.SetText("")
		w.input.SetPlaceHolder(followPlaceholder)
		w.context.Hide()
		w.setOutput(text)
		if text != "" {
			w.insert.Enable()
		}
		w.win.Canvas().Focus(w.input)
	})
}

func (w *Window) Hide() {
	fyne.Do(func() { w.win.Hide() })
}

func (w *Window) ApplyTheme(name string) {
	fyne.Do(func() { w.applyTheme(name) })
}

func (w *Window) applyTheme(name string) {
	w.app.Settings().SetTheme(newPalette(ThemeByName(name)))
}

// promptEntry is a single-line entry that reports Escape instead of
// swallowing it.
type promptEntry struct {
	widget.Entry
	onEscape func()
}

func newPromptEntry(onEscape func()) *promptEntry {
	e := &promptEntry{onEscape: onEscape}
	e.ExtendBaseWidget(e)
	return e
}

func (e *promptEntry) TypedKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape && e.onEscape != nil {
		e.onEscape()
		return
	}
	e.Entry.TypedKey(ev)
}
