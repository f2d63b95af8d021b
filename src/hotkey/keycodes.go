package hotkey

import (
	"log/slog"
	"strings"
)

// keyNameToRawcodes maps a key name to the raw codes gohook reports on this
// platform. Modifiers return both the left and right variants.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if codes, ok := modifierCodes[keyName]; ok {
		return codes
	}
	if codes, ok := keyCodes[keyName]; ok {
		return codes
	}
	slog.Warn("unknown key name, cannot map to rawcode", "key", keyName)
	return nil
}

func withAliases(m map[string][]uint16, aliases map[string]string) map[string][]uint16 {
	for alias, name := range aliases {
		m[alias] = m[name]
	}
	return m
}

var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}
