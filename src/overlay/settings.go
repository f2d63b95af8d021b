package overlay

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"screen-assist/src/config"
)

// settingsForm holds the editable fields of the settings window.
type settingsForm struct {
	apiKey *widget.Entry
	theme  *widget.Select
	form   *widget.Form
}

func newSettingsForm(current config.Snapshot, onSave func(config.Settings), onCancel func()) *settingsForm {
	f := &settingsForm{
		apiKey: widget.NewPasswordEntry(),
		theme:  widget.NewSelect(ThemeNames(), nil),
	}
	f.apiKey.SetPlaceHolder("Gemini API key")
	f.apiKey.SetText(current.APIKey)
	f.theme.SetSelected(ThemeByName(current.Theme).Name)

	f.form = &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Gemini API Key", Widget: f.apiKey},
			{Text: "Theme", Widget: f.theme},
		},
		SubmitText: "Save",
		CancelText: "Cancel",
		OnSubmit:   func() { onSave(f.values()) },
		OnCancel:   onCancel,
	}
	return f
}

func (f *settingsForm) values() config.Settings {
	return config.Settings{APIKey: f.apiKey.Text, Theme: f.theme.Selected}
}

// OpenSettings shows the settings form. Safe from any goroutine.
func (w *Window) OpenSettings() {
	fyne.Do(w.openSettings)
}

func (w *Window) openSettings() {
	var current config.Snapshot
	if w.actions.Current != nil {
		current = w.actions.Current()
	}
	dlg := w.app.NewWindow("Settings")
	form := newSettingsForm(current,
		func(s config.Settings) {
			if w.actions.SaveSettings != nil {
				w.actions.SaveSettings(s)
			}
			dlg.Close()
		},
		dlg.Close,
	)
	dlg.SetContent(form.form)
	dlg.Resize(fyne.NewSize(400, 160))
	dlg.CenterOnScreen()
	dlg.Show()
}
