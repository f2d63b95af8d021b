//go:build !windows

package tray

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Start installs the menu on the fyne application's system tray. On macOS
// and Linux the tray shares the fyne event loop.
func (t *Tray) Start(app fyne.App) {
	desk, ok := app.(desktop.App)
	if !ok {
		slog.Warn("system tray not supported by this driver")
		return
	}

	ask := fyne.NewMenuItem(AskLabel, func() { t.click(AskLabel) })
	settings := fyne.NewMenuItem(SettingsLabel, func() { t.click(SettingsLabel) })
	menu := fyne.NewMenu(t.cfg.Title, ask, fyne.NewMenuItemSeparator(), settings)

	// fyne appends its own Quit item; route app shutdown to OnQuit instead.
	app.Lifecycle().SetOnStopped(func() { t.click(QuitLabel) })

	desk.SetSystemTrayIcon(fyne.NewStaticResource("tray.png", Icon()))
	desk.SetSystemTrayMenu(menu)

	t.setRender(func() {
		fyne.Do(func() {
			ask.Label = t.askLabel()
			ask.Disabled = ask.Label != AskLabel
			menu.Refresh()
		})
	})
	slog.Debug("tray installed", "tooltip", t.tooltip())
}
