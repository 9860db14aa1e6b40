package screenshot

import (
	"image"
)

// Engine grabs images of displays.
type Engine interface {
	NumActiveDisplays() uint
	DisplayBounds(displayID int) image.Rectangle
	Screenshot(cfg Config) (*image.RGBA, error)
}

// Implementation is the Engine backed by the operating system.
type Implementation struct{}

var _ Engine = Implementation{}

func (Implementation) NumActiveDisplays() uint {
	return NumActiveDisplays()
}

func (Implementation) DisplayBounds(displayID int) image.Rectangle {
	return DisplayBounds(displayID)
}

func (Implementation) Screenshot(cfg Config) (*image.RGBA, error) {
	return Screenshot(cfg)
}
