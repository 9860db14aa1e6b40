package nullcapture

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/sasha-s/go-deadlock"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

const (
	trackIDVideo = 0
	trackIDAudio = 1
)

var (
	videoFormats = types.Formats{types.FormatNV12, types.FormatI420, types.FormatBGRA8, types.FormatRGBA8}
	audioFormats = types.Formats{types.FormatPCMS16LE, types.FormatPCMFloat32LE}
)

type track struct {
	output  types.Format
	counter uint64
}

type producer struct {
	config    Config
	startedAt time.Time

	locker   deadlock.Mutex
	tracks   map[int]*track
	isClosed bool
}

var _ types.Producer = (*producer)(nil)

func newProducer(cfg Config) *producer {
	return &producer{
		config:    cfg,
		startedAt: cfg.Clock.Now(),
		tracks:    map[int]*track{},
	}
}

func (p *producer) Probe(ctx context.Context) (*types.SourceInfo, error) {
	return &types.SourceInfo{
		Tracks: []types.TrackInfo{
			{
				ID:               trackIDVideo,
				Kind:             types.EssenceKindVideo,
				NativeFormat:     p.config.VideoFormat,
				SupportedFormats: videoFormats,
			},
			{
				ID:               trackIDAudio,
				Kind:             types.EssenceKindAudio,
				NativeFormat:     types.FormatPCMS16LE,
				SupportedFormats: audioFormats,
			},
		},
		IsOrdered: true,
	}, nil
}

func (p *producer) SelectTrack(
	ctx context.Context,
	trackID int,
	output types.Format,
) error {
	var supported types.Formats
	switch trackID {
	case trackIDVideo:
		supported = videoFormats
	case trackIDAudio:
		supported = audioFormats
	default:
		return fmt.Errorf("track #%d does not exist", trackID)
	}
	if !supported.Contains(output) {
		return fmt.Errorf("track #%d cannot be rendered as %s", trackID, output)
	}

	p.locker.Lock()
	defer p.locker.Unlock()
	p.tracks[trackID] = &track{output: output}
	return nil
}

func (p *producer) getTrack(trackID int) (*track, error) {
	p.locker.Lock()
	defer p.locker.Unlock()
	if p.isClosed {
		return nil, types.ErrClosed
	}
	t, ok := p.tracks[trackID]
	if !ok {
		return nil, fmt.Errorf("track #%d is not selected", trackID)
	}
	return t, nil
}

func (p *producer) ReadNext(
	ctx context.Context,
	trackID int,
) (*types.Unit, error) {
	t, err := p.getTrack(trackID)
	if err != nil {
		return nil, err
	}
	if p.config.UnitLimit > 0 && t.counter >= p.config.UnitLimit {
		return nil, io.EOF
	}

	var interval time.Duration
	switch trackID {
	case trackIDVideo:
		interval = p.config.frameInterval()
	default:
		interval = p.config.AudioChunk
	}
	timestamp := time.Duration(t.counter) * interval
	if err := p.waitUntil(ctx, p.startedAt.Add(timestamp)); err != nil {
		return nil, err
	}

	var unit *types.Unit
	switch trackID {
	case trackIDVideo:
		unit, err = renderPattern(t.output, p.config.Width, p.config.Height, t.counter)
	default:
		unit = renderSilence(t.output, p.config.Channels, p.config.SampleRate, p.config.audioFrameCount())
	}
	if err != nil {
		return nil, err
	}
	unit.Timestamp = timestamp
	unit.Duration = interval
	t.counter++
	logger.Tracef(ctx, "null capture track #%d: unit %d", trackID, t.counter)
	return unit, nil
}

func (p *producer) waitUntil(ctx context.Context, deadline time.Time) error {
	delay := deadline.Sub(p.config.Clock.Now())
	if delay <= 0 {
		return ctx.Err()
	}
	timer := p.config.Clock.Timer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *producer) Close() error {
	p.locker.Lock()
	defer p.locker.Unlock()
	p.isClosed = true
	return nil
}
