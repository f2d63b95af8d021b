//go:build darwin

package hotkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyNameToRawcodesDarwin(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		{"cmd", []uint16{55, 54}},
		{"alt", []uint16{58, 61}},
		{"shift", []uint16{56, 60}},
		{"ctrl", []uint16{59, 62}},
		{"g", []uint16{5}},
		{"a", []uint16{0}},
		{"q", []uint16{12}},
		{"C", []uint16{8}},
		{"0", []uint16{29}},
		{"1", []uint16{18}},
		{"9", []uint16{25}},
		{"f1", []uint16{122}},
		{"f12", []uint16{111}},
		{"space", []uint16{49}},
		{"enter", []uint16{36}},
		{"return", []uint16{36}},
		{"esc", []uint16{53}},
	}
	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			require.Equal(t, tt.expected, keyNameToRawcodes(tt.keyName))
		})
	}
}
