package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mediareader/pkg/capture/nullcapture"
	"github.com/xaionaro-go/mediareader/pkg/capture/screencapture"
	"github.com/xaionaro-go/mediareader/pkg/mediareader"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/config"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/producer/libav"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

type sourceKind int

const (
	sourceKindPath = sourceKind(iota)
	sourceKindNull
	sourceKindScreen
)

type source struct {
	Kind      sourceKind
	Path      string
	DisplayID int
}

// parseSource recognizes "null" (the synthetic device), "screen[:N]"
// (display number N) and treats everything else as a path or URL.
func parseSource(s string) (source, error) {
	switch {
	case s == "":
		return source{}, fmt.Errorf("empty source")
	case s == "null" || s == "null:":
		return source{Kind: sourceKindNull}, nil
	case s == "screen":
		return source{Kind: sourceKindScreen}, nil
	case strings.HasPrefix(s, "screen:"):
		displayID, err := strconv.Atoi(strings.TrimPrefix(s, "screen:"))
		if err != nil || displayID < 0 {
			return source{}, fmt.Errorf("invalid display number in '%s'", s)
		}
		return source{Kind: sourceKindScreen, DisplayID: displayID}, nil
	}
	return source{Kind: sourceKindPath, Path: s}, nil
}

func openReader(
	ctx context.Context,
	cfg config.Config,
	sourceString string,
) (*mediareader.Reader, error) {
	src, err := parseSource(sourceString)
	if err != nil {
		return nil, err
	}

	opts := cfg.ReaderOptions()
	switch src.Kind {
	case sourceKindPath:
		libavCfg := libav.Config{
			MaxQueuedPackets: cfg.LibAV.MaxQueuedPackets,
		}
		for _, opt := range cfg.LibAV.CustomOptions {
			libavCfg.CustomOptions = append(libavCfg.CustomOptions, libav.CustomOption{Key: opt.Key, Value: opt.Value})
		}
		opts = append(opts, mediareader.OptionPathOpener(libav.Opener(libavCfg)))
		return mediareader.CreateFromPath(ctx, src.Path, cfg.AudioPolicy, cfg.VideoPolicy, opts...)
	case sourceKindNull:
		session := nullcapture.New(nullcapture.Config{
			Width:       cfg.NullCapture.Width,
			Height:      cfg.NullCapture.Height,
			FrameRate:   cfg.NullCapture.FrameRate,
			VideoFormat: cfg.NullCapture.VideoFormat,
		})
		if err := session.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("unable to initialize the null capture device: %w", err)
		}
		return mediareader.CreateFromCaptureSession(ctx, session, cfg.AudioPolicy, cfg.VideoPolicy, opts...)
	case sourceKindScreen:
		session := screencapture.New(screencapture.Config{
			DisplayID: src.DisplayID,
		})
		if err := session.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("unable to initialize the screen capture: %w", err)
		}
		return mediareader.CreateFromCaptureSession(ctx, session, cfg.AudioPolicy, cfg.VideoPolicy, opts...)
	}
	return nil, fmt.Errorf("unexpected source kind %d", src.Kind)
}

// readVideoSample returns the first delivered video sample at or after
// position; the caller owns the returned reference.
func readVideoSample(
	ctx context.Context,
	r *mediareader.Reader,
	position time.Duration,
) (*types.Sample2D, error) {
	video := r.VideoStream()
	if video == nil || !video.IsSelected() {
		return nil, fmt.Errorf("the source has no selected video stream")
	}

	if position > 0 {
		if err := r.Seek(ctx, position); err != nil {
			return nil, fmt.Errorf("unable to seek to %v: %w", position, err)
		}
	}

	for {
		result, err := video.Read(ctx)
		if err != nil {
			return nil, err
		}
		switch result := result.(type) {
		case types.Delivered:
			sample, ok := result.Sample.(*types.Sample2D)
			if !ok {
				result.Sample.Release()
				return nil, fmt.Errorf("unexpected sample type %T", result.Sample)
			}
			if sample.Timestamp() < position {
				sample.Release()
				continue
			}
			return sample, nil
		case types.EndOfStream:
			return nil, errors.New("the video stream ended before a frame was delivered")
		case types.ReadError:
			if result.Fatal {
				return nil, fmt.Errorf("unable to read a video frame: %s", result)
			}
			logger.Warnf(ctx, "skipping a broken frame: %s", result)
		case types.Cancelled:
			return nil, result.Cause
		}
	}
}
