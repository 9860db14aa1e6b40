package presenter

import (
	"context"
	"image"

	"github.com/anthonynsimon/bild/adjust"
)

type Filter interface {
	Filter(context.Context, image.Image) image.Image
}

// FilterColor adjusts brightness and contrast; both are in range [-1, 1]
// and zero means unchanged.
type FilterColor struct {
	Brightness float64
	Contrast   float64
}

var _ Filter = (*FilterColor)(nil)

func (f *FilterColor) Filter(
	ctx context.Context,
	img image.Image,
) image.Image {
	if f.Brightness != 0 {
		img = adjust.Brightness(img, f.Brightness)
	}
	if f.Contrast != 0 {
		img = adjust.Contrast(img, f.Contrast)
	}
	return img
}

func (f *FilterColor) IsNoop() bool {
	return f.Brightness == 0 && f.Contrast == 0
}
