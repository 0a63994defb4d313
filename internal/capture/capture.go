package capture

import (
	"image"
	"time"

	"github.com/kbinani/screenshot"
)

// Frame is one grabbed screen region.
type Frame struct {
	Image     *image.RGBA
	Timestamp time.Time
}

// Grabber reads a rectangle of the screen.
type Grabber interface {
	Grab(region image.Rectangle) (*Frame, error)
}

// ScreenGrabber grabs from the live display. The region is fixed by
// configuration; nothing here locates the viewer window.
type ScreenGrabber struct{}

func (ScreenGrabber) Grab(region image.Rectangle) (*Frame, error) {
	img, err := screenshot.CaptureRect(region)
	if err != nil {
		return nil, err
	}
	return &Frame{Image: img, Timestamp: time.Now()}, nil
}

// Displays lists the bounds of every active display, for picking a capture
// region by hand.
func Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}
