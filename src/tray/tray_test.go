package tray

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTooltipAndLabels(t *testing.T) {
	tr := New(Config{Hotkey: "Cmd+Option+G"})
	require.Equal(t, "Screen Assist - Press Cmd+Option+G to ask", tr.tooltip())
	require.Equal(t, AskLabel, tr.askLabel())

	renders := 0
	tr.setRender(func() { renders++ })

	tr.SetResidentPort(49600)
	require.Equal(t, "Screen Assist - Press Cmd+Option+G to ask (port 49600)", tr.tooltip())

	tr.SetBusy(true)
	require.Equal(t, "Screen Assist: processing...", tr.tooltip())
	require.Equal(t, busyLabel, tr.askLabel())

	tr.SetBusy(false)
	require.Equal(t, AskLabel, tr.askLabel())
	require.Equal(t, 3, renders)
}

func TestClickDispatch(t *testing.T) {
	var got []string
	tr := New(Config{
		OnAsk:      func() { got = append(got, "ask") },
		OnSettings: func() { got = append(got, "settings") },
		OnQuit:     func() { got = append(got, "quit") },
	})
	tr.click(AskLabel)
	tr.click(SettingsLabel)
	tr.click(QuitLabel)
	tr.click("unknown")
	require.Equal(t, []string{"ask", "settings", "quit"}, got)
}

func TestIconIsPNG(t *testing.T) {
	data := Icon()
	require.NotEmpty(t, data)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, iconSize, img.Bounds().Dx())
	require.Equal(t, &data[0], &Icon()[0], "icon is built once")
}
