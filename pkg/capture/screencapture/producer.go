package screencapture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/sasha-s/go-deadlock"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/mediareader/pkg/screenshot"
	"github.com/xaionaro-go/mediareader/pkg/screenshoter"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
)

const trackIDVideo = 0

var videoFormats = types.Formats{types.FormatBGRA8, types.FormatRGBA8}

type frame struct {
	img     *image.RGBA
	takenAt time.Time
}

type producer struct {
	config        Config
	shotConfig    screenshot.Config
	frameInterval time.Duration
	startedAt     time.Time
	frames        chan frame

	locker   deadlock.Mutex
	output   types.Format
	cancelFn context.CancelFunc
	isClosed bool
}

var _ types.Producer = (*producer)(nil)

func newProducer(
	cfg Config,
	shotConfig screenshot.Config,
	frameInterval time.Duration,
) *producer {
	return &producer{
		config:        cfg,
		shotConfig:    shotConfig,
		frameInterval: frameInterval,
		frames:        make(chan frame, 1),
	}
}

func (p *producer) Probe(ctx context.Context) (*types.SourceInfo, error) {
	return &types.SourceInfo{
		Tracks: []types.TrackInfo{{
			ID:               trackIDVideo,
			Kind:             types.EssenceKindVideo,
			NativeFormat:     types.FormatBGRA8,
			SupportedFormats: videoFormats,
		}},
		IsOrdered: true,
	}, nil
}

func (p *producer) SelectTrack(
	ctx context.Context,
	trackID int,
	output types.Format,
) error {
	if trackID != trackIDVideo {
		return fmt.Errorf("track #%d does not exist", trackID)
	}
	if !videoFormats.Contains(output) {
		return fmt.Errorf("the screen cannot be captured as %s", output)
	}

	p.locker.Lock()
	defer p.locker.Unlock()
	if p.isClosed {
		return types.ErrClosed
	}
	if p.cancelFn != nil {
		return fmt.Errorf("track #%d is already selected", trackID)
	}
	p.output = output
	p.startedAt = p.config.Clock.Now()

	ctx, cancelFn := context.WithCancel(xcontext.DetachDone(ctx))
	p.cancelFn = cancelFn
	s := screenshoter.New(p.config.Engine, p.config.Clock)
	observability.Go(ctx, func(ctx context.Context) {
		err := s.Loop(ctx, p.frameInterval, p.shotConfig, p.onScreenshot)
		logger.Debugf(ctx, "the screenshot loop ended: %v", err)
	})
	return nil
}

// onScreenshot keeps only the latest frame when the reader lags behind.
func (p *producer) onScreenshot(ctx context.Context, img *image.RGBA, takenAt time.Time) {
	f := frame{img: img, takenAt: takenAt}
	for {
		select {
		case p.frames <- f:
			return
		default:
		}
		select {
		case <-p.frames:
			logger.Tracef(ctx, "dropped a stale screenshot")
		default:
		}
	}
}

func (p *producer) ReadNext(
	ctx context.Context,
	trackID int,
) (*types.Unit, error) {
	p.locker.Lock()
	output, isSelected, isClosed := p.output, p.cancelFn != nil, p.isClosed
	p.locker.Unlock()
	switch {
	case isClosed:
		return nil, types.ErrClosed
	case trackID != trackIDVideo || !isSelected:
		return nil, fmt.Errorf("track #%d is not selected", trackID)
	}

	var f frame
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f = <-p.frames:
	}

	data := rgbaToPacked(f.img, output)
	bounds := f.img.Bounds()
	planes, err := output.SplitPacked(bounds.Dx(), bounds.Dy(), data)
	if err != nil {
		return nil, err
	}
	return &types.Unit{
		Format:    output,
		Timestamp: f.takenAt.Sub(p.startedAt),
		Duration:  p.frameInterval,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Planes:    planes,
	}, nil
}

// rgbaToPacked copies the image into a contiguous buffer of the format,
// swapping R and B for BGRA8.
func rgbaToPacked(img *image.RGBA, output types.Format) []byte {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	rowSize := 4 * width
	data := make([]byte, rowSize*height)
	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+rowSize]
		dst := data[y*rowSize : (y+1)*rowSize]
		copy(dst, src)
		if output == types.FormatBGRA8 {
			for x := 0; x < rowSize; x += 4 {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}
	return data
}

func (p *producer) Close() error {
	p.locker.Lock()
	defer p.locker.Unlock()
	p.isClosed = true
	if p.cancelFn != nil {
		p.cancelFn()
	}
	return nil
}
