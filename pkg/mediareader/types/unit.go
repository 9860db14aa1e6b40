package types

import (
	"time"
)

// Plane is one plane of a 2D image in CPU memory.
type Plane struct {
	Data   []byte
	Stride int
}

// Unit is a raw decoded unit handed over by a Producer.
//
// Video units fill Width/Height and either Planes (CPU memory) or Surface
// (an opaque GPU/OS surface). Audio units fill Channels, SampleRate,
// FrameCount and Data (interleaved).
type Unit struct {
	Format    Format
	Timestamp time.Duration
	Duration  time.Duration

	Width   int
	Height  int
	Planes  []Plane
	Surface any

	Channels   int
	SampleRate int
	FrameCount int
	Data       []byte

	// Release is called when the last reference to the resulting Sample is
	// released (or when the unit is rejected).
	Release func()
}

func (u *Unit) release() {
	if u.Release != nil {
		u.Release()
	}
}
