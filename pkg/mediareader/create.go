package mediareader

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/negotiator"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
)

type sourceType string

const (
	sourceTypeFile    = sourceType("file")
	sourceTypeCapture = sourceType("capture")
)

// CreateFromPath opens a file (or URL) through the path opener, probes it
// and negotiates every track. The zero Policy is NativeOrDefault.
//
// Errors wrap types.ErrSourceUnavailable, types.ErrUnsupportedContainer or
// are a types.ErrNegotiationFailed. Cancelling ctx releases everything
// opened so far.
func CreateFromPath(
	ctx context.Context,
	path string,
	audioPolicy types.Policy,
	videoPolicy types.Policy,
	opts ...Option,
) (*Reader, error) {
	cfg := Options(opts).Config()
	if path == "" {
		return nil, fmt.Errorf("%w: the path is empty", types.ErrSourceUnavailable)
	}
	opener := cfg.PathOpener
	if opener == nil {
		opener = getDefaultPathOpener()
	}
	if opener == nil {
		return nil, fmt.Errorf("%w: no path opener is registered", types.ErrSourceUnavailable)
	}
	return create(
		ctx,
		sourceTypeFile,
		path,
		func(ctx context.Context) (types.Producer, error) {
			return opener(ctx, path)
		},
		audioPolicy,
		videoPolicy,
		cfg,
	)
}

// CreateFromCaptureSession creates a live Reader from an already
// initialized capture session; an uninitialized one yields
// types.ErrDeviceNotReady.
func CreateFromCaptureSession(
	ctx context.Context,
	session types.CaptureSession,
	audioPolicy types.Policy,
	videoPolicy types.Policy,
	opts ...Option,
) (*Reader, error) {
	cfg := Options(opts).Config()
	if session == nil {
		return nil, fmt.Errorf("%w: no capture session", types.ErrDeviceNotReady)
	}
	if !session.IsInitialized() {
		err := fmt.Errorf("%w: session '%s' is not initialized", types.ErrDeviceNotReady, session.ID())
		observeCreation(sourceTypeCapture, err)
		return nil, err
	}
	return create(
		ctx,
		sourceTypeCapture,
		session.ID(),
		session.OpenProducer,
		audioPolicy,
		videoPolicy,
		cfg,
	)
}

type openResult struct {
	producer types.Producer
	info     *types.SourceInfo
	plans    []negotiator.Plan
	err      error
}

func create(
	ctx context.Context,
	source sourceType,
	sourceID string,
	openFunc func(context.Context) (types.Producer, error),
	audioPolicy types.Policy,
	videoPolicy types.Policy,
	cfg Config,
) (_ret *Reader, _err error) {
	logger.Debugf(ctx, "create(%s, '%s', audio:%s, video:%s)", source, sourceID, audioPolicy, videoPolicy)
	defer func() {
		logger.Debugf(ctx, "/create(%s, '%s'): %v %v", source, sourceID, _ret, _err)
		observeCreation(source, _err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resultCh := make(chan openResult, 1)
	observability.Go(ctx, func(ctx context.Context) {
		resultCh <- openAndNegotiate(ctx, openFunc, audioPolicy, videoPolicy)
	})

	select {
	case <-ctx.Done():
		observability.Go(xcontext.DetachDone(ctx), func(ctx context.Context) {
			res := <-resultCh
			if res.producer == nil {
				return
			}
			logger.Debugf(ctx, "closing the producer of the abandoned creation of '%s'", sourceID)
			if err := res.producer.Close(); err != nil {
				logger.Errorf(ctx, "unable to close the producer of '%s': %v", sourceID, err)
			}
		})
		return nil, fmt.Errorf("the creation of a reader for '%s' was cancelled: %w", sourceID, ctx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		return newReader(ctx, source, sourceID, res.producer, res.info, res.plans, cfg), nil
	}
}

func openAndNegotiate(
	ctx context.Context,
	openFunc func(context.Context) (types.Producer, error),
	audioPolicy types.Policy,
	videoPolicy types.Policy,
) (_ret openResult) {
	producer, err := openFunc(ctx)
	if err != nil {
		return openResult{err: fmt.Errorf("unable to open the source: %w", err)}
	}
	defer func() {
		if _ret.err == nil {
			return
		}
		if err := producer.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the producer: %v", err)
		}
	}()

	info, err := producer.Probe(ctx)
	if err != nil {
		return openResult{err: fmt.Errorf("unable to probe the source: %w", err)}
	}
	if info == nil {
		return openResult{err: errors.New("the producer returned no source info")}
	}

	plans, err := negotiator.PlanTracks(info, audioPolicy, videoPolicy)
	if err != nil {
		return openResult{err: err}
	}

	for idx, plan := range plans {
		if !plan.Selected {
			continue
		}
		if err := producer.SelectTrack(ctx, plan.Track.ID, plan.Format); err != nil {
			return openResult{err: types.ErrNegotiationFailed{
				TrackIndex: idx,
				Kind:       plan.Track.Kind,
				Err:        fmt.Errorf("unable to request %s output: %w", plan.Format, err),
			}}
		}
	}

	return openResult{
		producer: producer,
		info:     info,
		plans:    plans,
	}
}
