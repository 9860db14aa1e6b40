package types

import (
	"fmt"
	"strings"
)

// Format is a concrete pixel or audio sample format.
//
// The named constants are the formats the reader knows how to describe;
// producers may report other (native) formats by name, such formats are
// passed through untouched when a policy accepts the native format.
type Format string

const (
	FormatUndefined = Format("")

	// FormatNV12 is a Y plane followed by an interleaved UV plane (4:2:0).
	FormatNV12 = Format("nv12")
	// FormatI420 is planar Y, U, V (4:2:0).
	FormatI420 = Format("i420")
	// FormatBGRA8 is packed B, G, R, A, one byte each.
	FormatBGRA8 = Format("bgra8")
	// FormatRGBA8 is packed R, G, B, A, one byte each.
	FormatRGBA8 = Format("rgba8")

	// FormatPCMS16LE is interleaved signed 16-bit little-endian PCM.
	FormatPCMS16LE = Format("pcm_s16le")
	// FormatPCMFloat32LE is interleaved 32-bit float little-endian PCM.
	FormatPCMFloat32LE = Format("pcm_f32le")
)

func (f Format) String() string {
	if f == FormatUndefined {
		return "<undefined>"
	}
	return string(f)
}

// Kind returns the essence kind of a known format and EssenceKindUndefined
// for a format the reader does not know.
func (f Format) Kind() EssenceKind {
	switch f {
	case FormatNV12, FormatI420, FormatBGRA8, FormatRGBA8:
		return EssenceKindVideo
	case FormatPCMS16LE, FormatPCMFloat32LE:
		return EssenceKindAudio
	}
	return EssenceKindUndefined
}

// IsKnown reports whether the layout of the format is described by this package.
func (f Format) IsKnown() bool {
	return f.Kind() != EssenceKindUndefined
}

// PlaneCount returns the amount of planes of a known video format, or 0.
func (f Format) PlaneCount() int {
	switch f {
	case FormatNV12:
		return 2
	case FormatI420:
		return 3
	case FormatBGRA8, FormatRGBA8:
		return 1
	}
	return 0
}

// BytesPerSample returns the size of a single-channel sample of a known
// audio format, or 0.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatPCMS16LE:
		return 2
	case FormatPCMFloat32LE:
		return 4
	}
	return 0
}

// MinPlaneSize returns the minimal amount of bytes plane number "plane"
// of a known video format must contain given the dimensions and the stride.
func (f Format) MinPlaneSize(plane, width, height, stride int) int {
	chromaHeight := (height + 1) / 2
	switch f {
	case FormatNV12:
		switch plane {
		case 0:
			return stride*(height-1) + width
		case 1:
			return stride*(chromaHeight-1) + 2*((width+1)/2)
		}
	case FormatI420:
		switch plane {
		case 0:
			return stride*(height-1) + width
		case 1, 2:
			return stride*(chromaHeight-1) + (width+1)/2
		}
	case FormatBGRA8, FormatRGBA8:
		if plane == 0 {
			return stride*(height-1) + 4*width
		}
	}
	return 0
}

type Formats []Format

func (s Formats) Contains(f Format) bool {
	for _, item := range s {
		if item == f {
			return true
		}
	}
	return false
}

func (s Formats) String() string {
	var parts []string
	for _, f := range s {
		parts = append(parts, f.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// PackedPlaneLayout returns the strides and sizes of the planes of a known
// video format stored contiguously without row padding.
func (f Format) PackedPlaneLayout(width, height int) (strides []int, sizes []int, ok bool) {
	chromaWidth := (width + 1) / 2
	chromaHeight := (height + 1) / 2
	switch f {
	case FormatNV12:
		return []int{width, 2 * chromaWidth},
			[]int{width * height, 2 * chromaWidth * chromaHeight}, true
	case FormatI420:
		return []int{width, chromaWidth, chromaWidth},
			[]int{width * height, chromaWidth * chromaHeight, chromaWidth * chromaHeight}, true
	case FormatBGRA8, FormatRGBA8:
		return []int{4 * width}, []int{4 * width * height}, true
	}
	return nil, nil, false
}

// SplitPacked slices a contiguous buffer into the planes of the format
// without copying. Unknown formats yield a single plane with an unknown
// (zero) stride.
func (f Format) SplitPacked(width, height int, data []byte) ([]Plane, error) {
	strides, sizes, ok := f.PackedPlaneLayout(width, height)
	if !ok {
		return []Plane{{Data: data}}, nil
	}
	var total int
	for _, size := range sizes {
		total += size
	}
	if len(data) < total {
		return nil, fmt.Errorf("the buffer is too short for %s %dx%d: %d < %d", f, width, height, len(data), total)
	}
	planes := make([]Plane, 0, len(sizes))
	var offset int
	for idx, size := range sizes {
		planes = append(planes, Plane{
			Data:   data[offset : offset+size : offset+size],
			Stride: strides[idx],
		})
		offset += size
	}
	return planes, nil
}
