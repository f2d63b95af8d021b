//go:build windows

package main

import (
	"log/slog"

	"golang.org/x/sys/windows"
)

const processPerMonitorDPIAware = 2

// enableDPIAwareness opts into per-monitor DPI so the overlay and the
// screenshot use the same pixel grid.
func enableDPIAwareness() {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setAwareness := shcore.NewProc("SetProcessDpiAwareness")
	if err := setAwareness.Find(); err == nil {
		ret, _, _ := setAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret != 0 {
			slog.Debug("SetProcessDpiAwareness failed", "code", ret)
		}
		return
	}

	user32 := windows.NewLazySystemDLL("user32.dll")
	setAware := user32.NewProc("SetProcessDPIAware")
	if err := setAware.Find(); err != nil {
		slog.Debug("no DPI awareness API available")
		return
	}
	if ret, _, _ := setAware.Call(); ret == 0 {
		slog.Debug("SetProcessDPIAware failed")
	}
}
