package mediareader

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/negotiator"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/xsync"
)

// Reader owns a producer and the fixed set of Streams discovered from it.
//
// Streams do not keep their Reader alive. A Reader should be closed with
// Close; one that becomes unreachable without that is closed by a
// cleanup, after which its Streams only yield EndOfStream.
type Reader struct {
	sourceType sourceType
	sourceID   string
	producer   types.Producer
	canSeek    bool
	duration   *time.Duration
	createdAt  time.Time
	streams    []*Stream
	config     Config

	locker   xsync.Mutex
	isClosed bool
	cleanup  runtime.Cleanup
}

// readerResources is what a Reader releases on Close. It must not
// reference the Reader itself, so it can be used by the cleanup.
type readerResources struct {
	sourceID string
	producer types.Producer
	streams  []*Stream
}

func (res readerResources) release(ctx context.Context) error {
	metricReadersOpen.Dec()
	for _, s := range res.streams {
		s.locker.Do(ctx, func() {
			s.close(ctx)
		})
	}

	var mErr *multierror.Error
	if err := res.producer.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to close the producer of '%s': %w", res.sourceID, err))
	}
	return mErr.ErrorOrNil()
}

func releaseAbandonedReader(res readerResources) {
	ctx := context.Background()
	logger.Warnf(ctx, "the reader of '%s' became unreachable without Close, closing it", res.sourceID)
	if err := res.release(ctx); err != nil {
		logger.Errorf(ctx, "%v", err)
	}
}

func (r *Reader) resources() readerResources {
	return readerResources{
		sourceID: r.sourceID,
		producer: r.producer,
		streams:  r.streams,
	}
}

func newReader(
	ctx context.Context,
	source sourceType,
	sourceID string,
	producer types.Producer,
	info *types.SourceInfo,
	plans []negotiator.Plan,
	cfg Config,
) *Reader {
	r := &Reader{
		sourceType: source,
		sourceID:   sourceID,
		producer:   producer,
		canSeek:    info.CanSeek,
		duration:   info.Duration,
		createdAt:  cfg.clock().Now(),
		config:     cfg,
	}
	if source == sourceTypeCapture {
		r.canSeek = false
		r.duration = nil
	}
	r.streams = make([]*Stream, 0, len(plans))
	for idx, plan := range plans {
		s := newStream(r, idx, plan.Track, plan.Selected, plan.Format)
		if plan.Rejection != nil {
			logger.Warnf(ctx, "the optional %s track #%d is deselected: %v", plan.Track.Kind, idx, plan.Rejection)
		}
		logger.Debugf(ctx, "stream %s (producer track %d)", s, plan.Track.ID)
		r.streams = append(r.streams, s)
	}
	metricReadersOpen.Inc()
	r.cleanup = runtime.AddCleanup(r, releaseAbandonedReader, r.resources())
	return r
}

// SourceID is the opaque identity of the source (a path or a capture session ID).
func (r *Reader) SourceID() string {
	return r.sourceID
}

func (r *Reader) CanSeek() bool {
	return r.canSeek
}

// Duration is absent for live sources.
func (r *Reader) Duration() (time.Duration, bool) {
	if r.duration == nil {
		return 0, false
	}
	return *r.duration, true
}

func (r *Reader) CreatedAt() time.Time {
	return r.createdAt
}

// Streams returns every discovered stream, selected or not, in discovery order.
func (r *Reader) Streams() []*Stream {
	result := make([]*Stream, len(r.streams))
	copy(result, r.streams)
	return result
}

// VideoStream returns the primary video stream or nil.
func (r *Reader) VideoStream() *Stream {
	return r.firstStreamOfKind(types.EssenceKindVideo)
}

// AudioStream returns the primary audio stream or nil.
func (r *Reader) AudioStream() *Stream {
	return r.firstStreamOfKind(types.EssenceKindAudio)
}

func (r *Reader) firstStreamOfKind(kind types.EssenceKind) *Stream {
	for _, s := range r.streams {
		if s.Kind() == kind {
			return s
		}
	}
	return nil
}

func (r *Reader) String() string {
	return fmt.Sprintf("Reader{%s:'%s', streams:%v}", r.sourceType, r.sourceID, r.streams)
}

// Seek repositions every stream of a seekable source. It fails with
// ErrConcurrentRead if any read is in flight. Drained streams become
// active again, faulted streams stay faulted.
func (r *Reader) Seek(
	ctx context.Context,
	position time.Duration,
) (_err error) {
	logger.Debugf(ctx, "Seek(%v)", position)
	defer func() { logger.Debugf(ctx, "/Seek(%v): %v", position, _err) }()

	if !r.canSeek {
		return types.ErrNotSeekable
	}
	seeker, ok := r.producer.(types.Seeker)
	if !ok {
		return types.ErrNotSeekable
	}

	return xsync.DoR1(ctx, &r.locker, func() error {
		if r.isClosed {
			return types.ErrClosed
		}
		return r.seek(ctx, seeker, position)
	})
}

func (r *Reader) seek(
	ctx context.Context,
	seeker types.Seeker,
	position time.Duration,
) (_err error) {
	leftovers := make([]chan producerResult, len(r.streams))
	var reserved []*Stream
	defer func() {
		if _err == nil {
			return
		}
		for _, s := range reserved {
			s.locker.Do(ctx, func() {
				s.unreserve(leftovers[s.index])
			})
		}
	}()

	for _, s := range r.streams {
		var err error
		s.locker.Do(ctx, func() {
			leftovers[s.index], err = s.reserveForSeek()
		})
		if err != nil {
			return fmt.Errorf("stream %s: %w", s, err)
		}
		reserved = append(reserved, s)
	}

	for idx, pending := range leftovers {
		if pending == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-pending:
			releaseUnit(res.unit)
			leftovers[idx] = nil
		}
	}

	if err := seeker.Seek(ctx, position); err != nil {
		return fmt.Errorf("unable to seek to %v: %w", position, err)
	}

	for _, s := range r.streams {
		s.locker.Do(ctx, s.onSeeked)
	}
	return nil
}

// Close releases the producer and all the streams. Reads resolve with
// EndOfStream afterwards.
func (r *Reader) Close() error {
	ctx := context.TODO()
	return xsync.DoR1(ctx, &r.locker, func() error {
		if r.isClosed {
			return nil
		}
		r.isClosed = true
		r.cleanup.Stop()
		return r.resources().release(ctx)
	})
}
