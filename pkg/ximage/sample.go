// Package ximage exposes decoded video samples as image.Image without
// copying the pixel data.
package ximage

import (
	"fmt"
	"image"
	"image/color"

	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

// FromSample2D returns a view of the sample's CPU planes. The view is
// valid only while the caller holds a reference to the sample.
func FromSample2D(s *types.Sample2D) (image.Image, error) {
	if s.MemoryKind() != types.MemoryKindCPU {
		return nil, fmt.Errorf("a %s sample has no CPU planes", s.MemoryKind())
	}
	planes := s.Planes()
	rect := image.Rect(0, 0, s.Width(), s.Height())
	switch s.Format() {
	case types.FormatRGBA8:
		return &image.RGBA{Pix: planes[0].Data, Stride: planes[0].Stride, Rect: rect}, nil
	case types.FormatBGRA8:
		return &BGRA{Pix: planes[0].Data, Stride: planes[0].Stride, Rect: rect}, nil
	case types.FormatI420:
		return &image.YCbCr{
			Y:              planes[0].Data,
			Cb:             planes[1].Data,
			Cr:             planes[2].Data,
			YStride:        planes[0].Stride,
			CStride:        planes[1].Stride,
			SubsampleRatio: image.YCbCrSubsampleRatio420,
			Rect:           rect,
		}, nil
	case types.FormatNV12:
		return &NV12{
			Y:        planes[0].Data,
			UV:       planes[1].Data,
			YStride:  planes[0].Stride,
			UVStride: planes[1].Stride,
			Rect:     rect,
		}, nil
	}
	return nil, fmt.Errorf("format %s cannot be viewed as an image", s.Format())
}

type BGRA struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

var _ image.Image = (*BGRA)(nil)

func (img *BGRA) ColorModel() color.Model { return color.RGBAModel }
func (img *BGRA) Bounds() image.Rectangle { return img.Rect }

func (img *BGRA) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(img.Rect) {
		return color.RGBA{}
	}
	i := (y-img.Rect.Min.Y)*img.Stride + (x-img.Rect.Min.X)*4
	p := img.Pix[i : i+4 : i+4]
	return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
}

// NV12 is a Y plane followed by an interleaved Cb/Cr plane with 4:2:0 subsampling.
type NV12 struct {
	Y        []byte
	UV       []byte
	YStride  int
	UVStride int
	Rect     image.Rectangle
}

var _ image.Image = (*NV12)(nil)

func (img *NV12) ColorModel() color.Model { return color.YCbCrModel }
func (img *NV12) Bounds() image.Rectangle { return img.Rect }

func (img *NV12) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(img.Rect) {
		return color.YCbCr{}
	}
	x, y = x-img.Rect.Min.X, y-img.Rect.Min.Y
	uv := (y/2)*img.UVStride + (x/2)*2
	return color.YCbCr{
		Y:  img.Y[y*img.YStride+x],
		Cb: img.UV[uv],
		Cr: img.UV[uv+1],
	}
}
