//go:build windows

package hotkey

import "fmt"

// Windows virtual-key codes (VK_*), as reported by gohook on windows.
var modifierCodes = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN
}

var keyCodes = withAliases(vkCodes(), keyAliases)

func vkCodes() map[string][]uint16 {
	m := map[string][]uint16{
		"space":     {32},
		"enter":     {13},
		"esc":       {27},
		"tab":       {9},
		"backspace": {8},
		"delete":    {46},
		"insert":    {45},
		"ins":       {45},
		"home":      {36},
		"end":       {35},
		"pageup":    {33},
		"pagedown":  {34},
		"left":      {37},
		"up":        {38},
		"right":     {39},
		"down":      {40},
	}
	// Letters and digits share their ASCII uppercase codes.
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = []uint16{uint16(c - 'a' + 'A')}
	}
	for d := '0'; d <= '9'; d++ {
		m[string(d)] = []uint16{uint16(d)}
	}
	for i := 1; i <= 24; i++ {
		m[fmt.Sprintf("f%d", i)] = []uint16{uint16(111 + i)} // VK_F1 = 0x70
	}
	return m
}
