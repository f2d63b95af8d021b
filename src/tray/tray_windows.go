//go:build windows

package tray

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"github.com/getlantern/systray"
)

// Start registers the tray with getlantern/systray. The fyne application
// owns the message loop, so Register is used instead of Run. Call it from the
// main goroutine before app.Run.
func (t *Tray) Start(app fyne.App) {
	systray.Register(func() { t.onReady(app) }, func() {
		slog.Debug("tray exited")
	})
}

func (t *Tray) onReady(app fyne.App) {
	systray.SetIcon(Icon())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.tooltip())

	mAsk := systray.AddMenuItem(AskLabel, "Capture selection and ask")
	mSettings := systray.AddMenuItem(SettingsLabel, "Open settings")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem(QuitLabel, "Quit the application")

	t.setRender(func() {
		systray.SetTooltip(t.tooltip())
		mAsk.SetTitle(t.askLabel())
	})

	go func() {
		for {
			select {
			case <-mAsk.ClickedCh:
				t.click(AskLabel)
			case <-mSettings.ClickedCh:
				t.click(SettingsLabel)
			case <-mQuit.ClickedCh:
				t.click(QuitLabel)
				systray.Quit()
				fyne.Do(app.Quit)
				return
			}
		}
	}()
}
