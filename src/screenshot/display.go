package screenshot

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"

	"github.com/kbinani/screenshot"
)

const defaultJPEGQuality = 70

// DisplayCapturer grabs display 0 in-process and encodes it as JPEG.
type DisplayCapturer struct {
	Quality   int
	DebugPath string
}

func (c *DisplayCapturer) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Op: "capture display", Err: err}
	}
	if screenshot.NumActiveDisplays() == 0 {
		return nil, &CaptureError{Op: "capture display", Err: errors.New("no active displays found")}
	}

	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, &CaptureError{Op: "capture display", Err: err}
	}

	quality := c.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, &CaptureError{Op: "encode jpeg", Err: err}
	}

	data := buf.Bytes()
	writeDebugCopy(c.DebugPath, data)
	return data, nil
}
