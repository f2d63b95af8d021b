package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 22

var (
	iconOnce sync.Once
	iconPNG  []byte
)

// Icon returns the menu-bar icon: a ring with a dot, drawn black on
// transparent so macOS can tint it as a template image.
func Icon() []byte {
	iconOnce.Do(func() {
		img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
		c := float64(iconSize-1) / 2
		for y := 0; y < iconSize; y++ {
			for x := 0; x < iconSize; x++ {
				dx, dy := float64(x)-c, float64(y)-c
				d := dx*dx + dy*dy
				if (d >= 7.5*7.5 && d <= 9.5*9.5) || d <= 3*3 {
					img.Set(x, y, color.NRGBA{A: 255})
				}
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			iconPNG = buf.Bytes()
		}
	})
	return iconPNG
}
