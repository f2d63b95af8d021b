//go:build !darwin && !windows

package hotkey

import "fmt"

// X11 keysyms, which gohook reports as the rawcode on linux.
var modifierCodes = map[string][]uint16{
	"ctrl":  {0xffe3, 0xffe4},
	"alt":   {0xffe9, 0xffea},
	"shift": {0xffe1, 0xffe2},
	"cmd":   {0xffeb, 0xffec},
}

var keyCodes = withAliases(keysyms(), keyAliases)

func keysyms() map[string][]uint16 {
	m := map[string][]uint16{
		"space":     {0x20},
		"enter":     {0xff0d},
		"esc":       {0xff1b},
		"tab":       {0xff09},
		"backspace": {0xff08},
		"delete":    {0xffff},
		"insert":    {0xff63},
		"ins":       {0xff63},
		"home":      {0xff50},
		"end":       {0xff57},
		"pageup":    {0xff55},
		"pagedown":  {0xff56},
		"left":      {0xff51},
		"up":        {0xff52},
		"right":     {0xff53},
		"down":      {0xff54},
	}
	// With Shift held the keysym is the uppercase letter.
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = []uint16{uint16(c), uint16(c - 'a' + 'A')}
	}
	for d := '0'; d <= '9'; d++ {
		m[string(d)] = []uint16{uint16(d)}
	}
	for i := 1; i <= 24; i++ {
		m[fmt.Sprintf("f%d", i)] = []uint16{uint16(0xffbd + i)} // XK_F1 = 0xffbe
	}
	return m
}
