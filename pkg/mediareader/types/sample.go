package types

import (
	"fmt"
	"time"
)

type MemoryKind uint

const (
	MemoryKindUndefined = MemoryKind(iota)
	MemoryKindCPU
	MemoryKindSurface
)

func (k MemoryKind) String() string {
	switch k {
	case MemoryKindUndefined:
		return "<undefined>"
	case MemoryKindCPU:
		return "cpu"
	case MemoryKindSurface:
		return "surface"
	default:
		return fmt.Sprintf("<unexpected_memory_kind_%d>", uint(k))
	}
}

// Sample is an immutable decoded unit of media.
//
// A delivered Sample holds one reference; call Retain to share it and
// Release when done. The memory is valid until the last Release.
type Sample interface {
	Kind() EssenceKind
	Format() Format
	Timestamp() time.Duration
	Duration() time.Duration
	MemoryKind() MemoryKind
	Retain()
	Release()
}

type sampleBase struct {
	format    Format
	timestamp time.Duration
	duration  time.Duration
	handle    *Handle
}

func (s *sampleBase) Format() Format { return s.format }
func (s *sampleBase) Timestamp() time.Duration { return s.timestamp }
func (s *sampleBase) Duration() time.Duration { return s.duration }
func (s *sampleBase) Retain() { s.handle.Retain() }
func (s *sampleBase) Release() { s.handle.Release() }
func (s *sampleBase) IsReleased() bool { return s.handle.IsReleased() }

// Sample2D is a decoded video frame.
type Sample2D struct {
	sampleBase
	width   int
	height  int
	planes  []Plane
	surface any
}

var _ Sample = (*Sample2D)(nil)

func (*Sample2D) Kind() EssenceKind { return EssenceKindVideo }
func (s *Sample2D) Width() int { return s.width }
func (s *Sample2D) Height() int { return s.height }

func (s *Sample2D) MemoryKind() MemoryKind {
	if s.surface != nil {
		return MemoryKindSurface
	}
	return MemoryKindCPU
}

// Planes returns the CPU planes without copying; the caller must not
// modify them.
func (s *Sample2D) Planes() []Plane {
	return s.planes
}

// Surface returns the opaque surface the sample lives on, if any.
func (s *Sample2D) Surface() (any, bool) {
	return s.surface, s.surface != nil
}

func (s *Sample2D) String() string {
	return fmt.Sprintf("Sample2D{%s %dx%d @%v}", s.format, s.width, s.height, s.timestamp)
}

// SampleAudio is a decoded block of interleaved audio.
type SampleAudio struct {
	sampleBase
	channels   int
	sampleRate int
	frameCount int
	data       []byte
}

var _ Sample = (*SampleAudio)(nil)

func (*SampleAudio) Kind() EssenceKind { return EssenceKindAudio }
func (*SampleAudio) MemoryKind() MemoryKind { return MemoryKindCPU }
func (s *SampleAudio) Channels() int { return s.channels }
func (s *SampleAudio) SampleRate() int { return s.sampleRate }
func (s *SampleAudio) FrameCount() int { return s.frameCount }
func (s *SampleAudio) Data() []byte { return s.data }

func (s *SampleAudio) String() string {
	return fmt.Sprintf("SampleAudio{%s %dch %dHz %d frames @%v}", s.format, s.channels, s.sampleRate, s.frameCount, s.timestamp)
}

// NewSample validates a producer Unit and takes ownership of it.
//
// On error the unit is released.
func NewSample(kind EssenceKind, unit *Unit) (_ret Sample, _err error) {
	defer func() {
		if _err != nil {
			unit.release()
		}
	}()

	base := sampleBase{
		format:    unit.Format,
		timestamp: unit.Timestamp,
		duration:  unit.Duration,
	}
	switch kind {
	case EssenceKindVideo:
		if err := validateVideoUnit(unit); err != nil {
			return nil, err
		}
		base.handle = NewHandle(unit.Release)
		return &Sample2D{
			sampleBase: base,
			width:      unit.Width,
			height:     unit.Height,
			planes:     unit.Planes,
			surface:    unit.Surface,
		}, nil
	case EssenceKindAudio:
		if err := validateAudioUnit(unit); err != nil {
			return nil, err
		}
		base.handle = NewHandle(unit.Release)
		return &SampleAudio{
			sampleBase: base,
			channels:   unit.Channels,
			sampleRate: unit.SampleRate,
			frameCount: unit.FrameCount,
			data:       unit.Data,
		}, nil
	default:
		return nil, fmt.Errorf("unexpected essence kind: %v", kind)
	}
}

func validateVideoUnit(unit *Unit) error {
	if unit.Width <= 0 || unit.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", unit.Width, unit.Height)
	}
	if unit.Surface != nil {
		return nil
	}
	if len(unit.Planes) == 0 {
		return fmt.Errorf("the video unit has neither planes nor a surface")
	}
	if !unit.Format.IsKnown() {
		return nil
	}
	if unit.Format.Kind() != EssenceKindVideo {
		return fmt.Errorf("format %s is not a video format", unit.Format)
	}
	if len(unit.Planes) != unit.Format.PlaneCount() {
		return fmt.Errorf("format %s expects %d planes, but got %d", unit.Format, unit.Format.PlaneCount(), len(unit.Planes))
	}
	for idx, plane := range unit.Planes {
		minSize := unit.Format.MinPlaneSize(idx, unit.Width, unit.Height, plane.Stride)
		if len(plane.Data) < minSize {
			return fmt.Errorf("plane #%d of format %s is too short: %d < %d", idx, unit.Format, len(plane.Data), minSize)
		}
	}
	return nil
}

func validateAudioUnit(unit *Unit) error {
	if unit.Channels <= 0 || unit.SampleRate <= 0 {
		return fmt.Errorf("invalid audio layout: %d channels at %dHz", unit.Channels, unit.SampleRate)
	}
	if !unit.Format.IsKnown() {
		return nil
	}
	if unit.Format.Kind() != EssenceKindAudio {
		return fmt.Errorf("format %s is not an audio format", unit.Format)
	}
	expected := unit.FrameCount * unit.Channels * unit.Format.BytesPerSample()
	if len(unit.Data) < expected {
		return fmt.Errorf("the audio data is too short: %d < %d", len(unit.Data), expected)
	}
	return nil
}
