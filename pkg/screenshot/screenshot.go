package screenshot

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

type Config struct {
	DisplayID int

	// Bounds is the captured area in virtual-screen coordinates; empty
	// means the whole display.
	Bounds image.Rectangle
}

func NumActiveDisplays() uint {
	return uint(screenshot.NumActiveDisplays())
}

func DisplayBounds(displayID int) image.Rectangle {
	return screenshot.GetDisplayBounds(displayID)
}

func Screenshot(cfg Config) (*image.RGBA, error) {
	bounds := cfg.Bounds
	if bounds.Empty() {
		bounds = DisplayBounds(cfg.DisplayID)
	}
	if bounds.Empty() {
		return nil, fmt.Errorf("display #%d has empty bounds", cfg.DisplayID)
	}

	img, err := screenshot.Capture(
		bounds.Min.X,
		bounds.Min.Y,
		bounds.Dx(),
		bounds.Dy(),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to screenshot bounds %v: %w", bounds, err)
	}
	return img, nil
}
