package ximage

import (
	"image"
	"image/color"
	"math"
)

type PointFloat64 struct {
	X float64
	Y float64
}

type RectangleFloat64 struct {
	Min PointFloat64
	Max PointFloat64
}

func (r RectangleFloat64) Size() PointFloat64 {
	return PointFloat64{
		X: math.Abs(r.Max.X - r.Min.X),
		Y: math.Abs(r.Max.Y - r.Min.Y),
	}
}

// FitRectangle returns the largest rectangle of the aspect ratio of size
// that fits into dst, centered.
func FitRectangle(size image.Point, dst image.Rectangle) RectangleFloat64 {
	if size.X <= 0 || size.Y <= 0 || dst.Empty() {
		return RectangleFloat64{}
	}
	dstW, dstH := float64(dst.Dx()), float64(dst.Dy())
	scale := math.Min(dstW/float64(size.X), dstH/float64(size.Y))
	w, h := float64(size.X)*scale, float64(size.Y)*scale
	minX := float64(dst.Min.X) + (dstW-w)/2
	minY := float64(dst.Min.Y) + (dstH-h)/2
	return RectangleFloat64{
		Min: PointFloat64{X: minX, Y: minY},
		Max: PointFloat64{X: minX + w, Y: minY + h},
	}
}

// Transform is a nearest-neighbour view of an image stretched onto To.
type Transform struct {
	image.Image
	ImageBounds     image.Rectangle
	ImageSize       image.Point
	ColorModelValue color.Model
	To              RectangleFloat64
}

var _ image.Image = (*Transform)(nil)

func NewTransform(
	img image.Image,
	colorModel color.Model,
	to RectangleFloat64,
) *Transform {
	if img == nil {
		return nil
	}
	if colorModel == nil {
		colorModel = img.ColorModel()
	}
	return &Transform{
		Image:           img,
		ImageBounds:     img.Bounds(),
		ImageSize:       img.Bounds().Size(),
		ColorModelValue: colorModel,
		To:              to,
	}
}

func (t *Transform) ColorModel() color.Model {
	return t.ColorModelValue
}

func (t *Transform) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Round(t.To.Min.X)),
		int(math.Round(t.To.Min.Y)),
		int(math.Round(t.To.Max.X)),
		int(math.Round(t.To.Max.Y)),
	)
}

func (t *Transform) At(x, y int) color.Color {
	srcX, srcY, ok := t.Coords(float64(x)+0.5, float64(y)+0.5)
	if !ok {
		return color.Transparent
	}
	return t.Image.At(srcX, srcY)
}

// Coords maps a point of To to the pixel of the source image.
func (t *Transform) Coords(x, y float64) (int, int, bool) {
	if x < t.To.Min.X || x >= t.To.Max.X {
		return 0, 0, false
	}
	if y < t.To.Min.Y || y >= t.To.Max.Y {
		return 0, 0, false
	}
	x = (x - t.To.Min.X) / (t.To.Max.X - t.To.Min.X)
	y = (y - t.To.Min.Y) / (t.To.Max.Y - t.To.Min.Y)
	srcX := t.ImageBounds.Min.X + min(int(x*float64(t.ImageSize.X)), t.ImageSize.X-1)
	srcY := t.ImageBounds.Min.Y + min(int(y*float64(t.ImageSize.Y)), t.ImageSize.Y-1)
	return srcX, srcY, true
}
