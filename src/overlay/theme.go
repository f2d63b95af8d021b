package overlay

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Theme is one named color scheme for the overlay.
type Theme struct {
	Name        string
	Background  color.NRGBA
	Foreground  color.NRGBA
	Input       color.NRGBA
	Border      color.NRGBA
	Button      color.NRGBA
	ButtonHover color.NRGBA
}

const DefaultThemeName = "Dark (Default)"

var themes = []Theme{
	{
		Name:        DefaultThemeName,
		Background:  color.NRGBA{R: 30, G: 30, B: 30, A: 230},
		Foreground:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Input:       color.NRGBA{R: 0, G: 0, B: 0, A: 150},
		Border:      color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255},
		Button:      color.NRGBA{R: 60, G: 120, B: 200, A: 200},
		ButtonHover: color.NRGBA{R: 80, G: 140, B: 220, A: 255},
	},
	{
		Name:        "Light",
		Background:  color.NRGBA{R: 240, G: 240, B: 245, A: 230},
		Foreground:  color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255},
		Input:       color.NRGBA{R: 255, G: 255, B: 255, A: 180},
		Border:      color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 255},
		Button:      color.NRGBA{R: 100, G: 150, B: 230, A: 200},
		ButtonHover: color.NRGBA{R: 120, G: 170, B: 250, A: 255},
	},
	{
		Name:        "Neon",
		Background:  color.NRGBA{R: 10, G: 5, B: 20, A: 230},
		Foreground:  color.NRGBA{R: 0, G: 255, B: 255, A: 255},
		Input:       color.NRGBA{R: 20, G: 10, B: 40, A: 150},
		Border:      color.NRGBA{R: 255, G: 0, B: 255, A: 255},
		Button:      color.NRGBA{R: 200, G: 0, B: 200, A: 200},
		ButtonHover: color.NRGBA{R: 255, G: 0, B: 255, A: 255},
	},
	{
		Name:        "Hacker",
		Background:  color.NRGBA{R: 0, G: 15, B: 0, A: 230},
		Foreground:  color.NRGBA{R: 0, G: 255, B: 0, A: 255},
		Input:       color.NRGBA{R: 0, G: 30, B: 0, A: 150},
		Border:      color.NRGBA{R: 0, G: 255, B: 0, A: 255},
		Button:      color.NRGBA{R: 0, G: 100, B: 0, A: 200},
		ButtonHover: color.NRGBA{R: 0, G: 150, B: 0, A: 255},
	},
}

// ThemeNames lists the selectable themes in display order.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// ThemeByName falls back to the default theme for unknown names.
func ThemeByName(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

// palette adapts a Theme to fyne, deferring everything it does not color to
// the built-in theme.
type palette struct {
	t    Theme
	base fyne.Theme
}

func newPalette(t Theme) fyne.Theme {
	return &palette{t: t, base: theme.DefaultTheme()}
}

func (p *palette) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground, theme.ColorNameOverlayBackground, theme.ColorNameMenuBackground:
		return p.t.Background
	case theme.ColorNameForeground:
		return p.t.Foreground
	case theme.ColorNameInputBackground:
		return p.t.Input
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return p.t.Border
	case theme.ColorNameButton, theme.ColorNamePrimary:
		return p.t.Button
	case theme.ColorNameHover:
		return p.t.ButtonHover
	}
	return p.base.Color(name, variant)
}

func (p *palette) Font(style fyne.TextStyle) fyne.Resource { return p.base.Font(style) }

func (p *palette) Icon(name fyne.ThemeIconName) fyne.Resource { return p.base.Icon(name) }

func (p *palette) Size(name fyne.ThemeSizeName) float32 { return p.base.Size(name) }
