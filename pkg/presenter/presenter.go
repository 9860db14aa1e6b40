// Package presenter draws video samples onto CPU image surfaces.
package presenter

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/mediareader/pkg/ximage"
)

type Presenter struct {
	Filters    []Filter
	Background color.Color
}

func New(filters ...Filter) *Presenter {
	return &Presenter{
		Filters:    filters,
		Background: color.Black,
	}
}

// Present draws the sample onto surface, scaled to fit and centered; the
// rest of the surface is filled with the background.
func (p *Presenter) Present(
	ctx context.Context,
	sample types.Sample,
	surface draw.Image,
) error {
	sample2D, ok := sample.(*types.Sample2D)
	if !ok {
		return fmt.Errorf("only video samples can be presented, got %s", sample.Kind())
	}
	sample2D.Retain()
	defer sample2D.Release()

	img, err := ximage.FromSample2D(sample2D)
	if err != nil {
		return fmt.Errorf("unable to access the sample as an image: %w", err)
	}
	for _, filter := range p.Filters {
		img = filter.Filter(ctx, img)
	}

	bounds := surface.Bounds()
	if p.Background != nil {
		draw.Draw(surface, bounds, image.NewUniform(p.Background), image.Point{}, draw.Src)
	}
	transform := ximage.NewTransform(img, nil, ximage.FitRectangle(img.Bounds().Size(), bounds))
	dstRect := transform.Bounds().Intersect(bounds)
	draw.Draw(surface, dstRect, transform, dstRect.Min, draw.Over)
	logger.Tracef(ctx, "presented %v at %v", sample2D, dstRect)
	return nil
}
