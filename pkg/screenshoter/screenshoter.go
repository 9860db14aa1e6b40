// Package screenshoter takes screenshots at a fixed interval.
package screenshoter

import (
	"context"
	"image"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mediareader/pkg/clock"
	"github.com/xaionaro-go/mediareader/pkg/screenshot"
)

type Screenshoter struct {
	ScreenshotEngine screenshot.Engine
	Clock            clock.Clock
}

func New(engine screenshot.Engine, clk clock.Clock) *Screenshoter {
	if engine == nil {
		engine = screenshot.Implementation{}
	}
	if clk == nil {
		clk = clock.Get()
	}
	return &Screenshoter{
		ScreenshotEngine: engine,
		Clock:            clk,
	}
}

// Loop calls callback with a screenshot right away and then every interval
// until ctx is done. Failed screenshots are logged and skipped.
func (s *Screenshoter) Loop(
	ctx context.Context,
	interval time.Duration,
	config screenshot.Config,
	callback func(ctx context.Context, img *image.RGBA, takenAt time.Time),
) error {
	t := s.Clock.Ticker(interval)
	defer t.Stop()
	for {
		img, err := s.ScreenshotEngine.Screenshot(config)
		if err != nil {
			logger.Errorf(ctx, "unable to take a screenshot: %v", err)
		} else {
			callback(ctx, img, s.Clock.Now())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
