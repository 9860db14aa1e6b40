package mediareader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"weak"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
)

type StreamState uint

const (
	StreamStateUndefined = StreamState(iota)
	StreamStateUnselected
	StreamStateActive
	StreamStateDrained
	StreamStateFaulted
)

func (s StreamState) String() string {
	switch s {
	case StreamStateUndefined:
		return "<undefined>"
	case StreamStateUnselected:
		return "unselected"
	case StreamStateActive:
		return "active"
	case StreamStateDrained:
		return "drained"
	case StreamStateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("<unexpected_state_%d>", uint(s))
	}
}

// Error codes of read errors detected by the reader itself (producer
// codes are passed through as is).
const (
	ErrorCodeGeneric        = -1
	ErrorCodeInvalidUnit    = -2
	ErrorCodeFormatMismatch = -3
)

type producerResult struct {
	unit *types.Unit
	err  error

	// aborted is set when the call failed after its own context was done.
	aborted bool
}

// Stream is one essence track of a Reader.
type Stream struct {
	index    int
	track    types.TrackInfo
	selected bool
	format   types.Format
	reader   weak.Pointer[Reader]
	producer types.Producer
	config   Config

	locker            xsync.Mutex
	state             StreamState
	fault             types.ReadError
	isReading         bool
	isSeeking         bool
	pending           chan producerResult
	consecutiveErrors uint
	lastTimestamp     time.Duration
	hasTimestamp      bool
	isClosed          bool
}

func newStream(
	reader *Reader,
	index int,
	track types.TrackInfo,
	selected bool,
	format types.Format,
) *Stream {
	s := &Stream{
		index:    index,
		track:    track,
		selected: selected,
		reader:   weak.Make(reader),
		producer: reader.producer,
		config:   reader.config,
		state:    StreamStateUnselected,
	}
	if selected {
		s.format = format
		s.state = StreamStateActive
	}
	return s
}

// Index is the position of the stream in Reader.Streams.
func (s *Stream) Index() int {
	return s.index
}

func (s *Stream) Kind() types.EssenceKind {
	return s.track.Kind
}

func (s *Stream) IsSelected() bool {
	return s.selected
}

// Format returns the negotiated format; it is absent for deselected streams.
func (s *Stream) Format() (types.Format, bool) {
	return s.format, s.selected
}

// Track returns the producer's description of the track.
func (s *Stream) Track() types.TrackInfo {
	return s.track
}

// Reader returns the owning Reader, or nil if it was garbage collected.
func (s *Stream) Reader() *Reader {
	return s.reader.Value()
}

func (s *Stream) State(ctx context.Context) StreamState {
	return xsync.DoR1(ctx, &s.locker, func() StreamState {
		return s.state
	})
}

func (s *Stream) String() string {
	if !s.selected {
		return fmt.Sprintf("%s#%d(deselected)", s.track.Kind, s.index)
	}
	return fmt.Sprintf("%s#%d(%s)", s.track.Kind, s.index, s.format)
}

// Read is ReadAsync followed by waiting for the result.
func (s *Stream) Read(ctx context.Context) (types.ReadResult, error) {
	resultCh, err := s.ReadAsync(ctx)
	if err != nil {
		return nil, err
	}
	return <-resultCh, nil
}

// ReadAsync requests the next sample. The returned channel receives
// exactly one ReadResult and is closed afterwards.
//
// Only one read may be in flight per stream: a second call before the
// first one resolved returns ErrConcurrentRead. While Reader.Seek is
// running the call returns ErrSeekInProgress.
func (s *Stream) ReadAsync(ctx context.Context) (<-chan types.ReadResult, error) {
	var (
		immediate types.ReadResult
		pending   chan producerResult
		err       error
	)
	s.locker.Do(ctx, func() {
		immediate, pending, err = s.beginRead(ctx)
	})
	if err != nil {
		return nil, err
	}

	resultCh := make(chan types.ReadResult, 1)
	if immediate != nil {
		logger.Tracef(ctx, "stream %s: immediate result %v", s, immediate)
		observeReadResult(s.track.Kind, immediate)
		resultCh <- immediate
		close(resultCh)
		return resultCh, nil
	}

	observability.Go(ctx, func(ctx context.Context) {
		defer close(resultCh)
		result := s.awaitRead(ctx, pending)
		logger.Tracef(ctx, "stream %s: result %v", s, result)
		observeReadResult(s.track.Kind, result)
		resultCh <- result
	})
	return resultCh, nil
}

func (s *Stream) beginRead(
	ctx context.Context,
) (types.ReadResult, chan producerResult, error) {
	if s.isReading {
		return nil, nil, types.ErrConcurrentRead
	}
	if s.isClosed || s.state == StreamStateUnselected {
		return types.EndOfStream{}, nil, nil
	}
	if s.isSeeking {
		return nil, nil, types.ErrSeekInProgress
	}
	switch s.state {
	case StreamStateDrained:
		return types.EndOfStream{}, nil, nil
	case StreamStateFaulted:
		return s.fault, nil, nil
	}
	if err := ctx.Err(); err != nil {
		return types.Cancelled{Cause: err}, nil, nil
	}

	s.isReading = true
	if s.pending == nil {
		s.pending = s.requestNext(ctx)
	}
	return nil, s.pending, nil
}

// requestNext starts a producer call. The call may outlive a cancelled
// read, in which case its result is picked up by the next read.
func (s *Stream) requestNext(ctx context.Context) chan producerResult {
	ch := make(chan producerResult, 1)
	observability.Go(ctx, func(ctx context.Context) {
		unit, err := s.producer.ReadNext(ctx, s.track.ID)
		ch <- producerResult{
			unit:    unit,
			err:     err,
			aborted: err != nil && ctx.Err() != nil,
		}
	})
	return ch
}

func (s *Stream) awaitRead(
	ctx context.Context,
	pending chan producerResult,
) types.ReadResult {
	lockCtx := xcontext.DetachDone(ctx)
	for {
		select {
		case <-ctx.Done():
			s.locker.Do(lockCtx, func() {
				s.isReading = false
				if s.isClosed {
					s.close(lockCtx)
				}
			})
			return types.Cancelled{Cause: ctx.Err()}
		case res := <-pending:
			var result types.ReadResult
			s.locker.Do(lockCtx, func() {
				result, pending = s.finishRead(ctx, res)
			})
			if result != nil {
				return result
			}
		}
	}
}

// finishRead converts a producer result into a ReadResult. It returns a
// new pending call instead if the producer call was aborted by a
// previously cancelled read. Errors of calls whose context is still live
// are producer failures, even if they wrap a context error.
func (s *Stream) finishRead(
	ctx context.Context,
	res producerResult,
) (types.ReadResult, chan producerResult) {
	if res.aborted && ctx.Err() == nil && !s.isClosed {
		logger.Debugf(ctx, "stream %s: the previous producer call was aborted (%v), requesting again", s, res.err)
		s.pending = s.requestNext(ctx)
		return nil, s.pending
	}

	s.pending = nil
	s.isReading = false

	if s.isClosed {
		releaseUnit(res.unit)
		return types.EndOfStream{}, nil
	}

	switch {
	case res.err == nil:
		return s.deliver(ctx, res.unit), nil
	case errors.Is(res.err, io.EOF):
		releaseUnit(res.unit)
		logger.Debugf(ctx, "stream %s is drained", s)
		s.state = StreamStateDrained
		return types.EndOfStream{}, nil
	case res.aborted:
		releaseUnit(res.unit)
		return types.Cancelled{Cause: ctx.Err()}, nil
	default:
		releaseUnit(res.unit)
		return s.onError(ctx, res.err), nil
	}
}

func (s *Stream) deliver(
	ctx context.Context,
	unit *types.Unit,
) types.ReadResult {
	if unit == nil {
		return s.onError(ctx, &types.ProducerError{
			Code:    ErrorCodeInvalidUnit,
			Message: "the producer returned neither a unit nor an error",
		})
	}
	if unit.Format != s.format {
		releaseUnit(unit)
		return s.onError(ctx, &types.ProducerError{
			Code:    ErrorCodeFormatMismatch,
			Message: fmt.Sprintf("the producer returned format %s instead of the negotiated %s", unit.Format, s.format),
		})
	}
	if s.hasTimestamp && unit.Timestamp < s.lastTimestamp {
		logger.Warnf(ctx, "stream %s: timestamp went backwards: %v < %v; clamping", s, unit.Timestamp, s.lastTimestamp)
		unit.Timestamp = s.lastTimestamp
	}

	sample, err := types.NewSample(s.track.Kind, unit)
	if err != nil {
		return s.onError(ctx, &types.ProducerError{
			Code:    ErrorCodeInvalidUnit,
			Message: fmt.Sprintf("invalid unit: %v", err),
		})
	}

	s.lastTimestamp, s.hasTimestamp = unit.Timestamp, true
	s.consecutiveErrors = 0
	return types.Delivered{Sample: sample}
}

func (s *Stream) onError(
	ctx context.Context,
	err error,
) types.ReadResult {
	result := types.ReadError{
		Code:    ErrorCodeGeneric,
		Message: err.Error(),
	}
	var producerErr *types.ProducerError
	if errors.As(err, &producerErr) {
		result.Code = producerErr.Code
		result.Message = producerErr.Message
		result.Fatal = producerErr.Fatal
	}

	s.consecutiveErrors++
	if limit := s.config.MaxConsecutiveErrors; limit > 0 && s.consecutiveErrors >= limit {
		logger.Errorf(ctx, "stream %s: %d consecutive errors, giving up", s, s.consecutiveErrors)
		result.Fatal = true
	}

	if result.Fatal {
		logger.Errorf(ctx, "stream %s is faulted: %v", s, err)
		s.state = StreamStateFaulted
		s.fault = result
	} else {
		logger.Warnf(ctx, "stream %s: read error: %v", s, err)
	}
	return result
}

// reserveForSeek blocks new reads and returns the producer call left by a
// cancelled read, if any.
func (s *Stream) reserveForSeek() (chan producerResult, error) {
	if s.isReading {
		return nil, types.ErrConcurrentRead
	}
	s.isSeeking = true
	return s.pending, nil
}

func (s *Stream) unreserve(pending chan producerResult) {
	s.isSeeking = false
	s.pending = pending
}

func (s *Stream) onSeeked() {
	s.isSeeking = false
	s.pending = nil
	s.hasTimestamp = false
	s.consecutiveErrors = 0
	if s.state == StreamStateDrained {
		s.state = StreamStateActive
	}
}

func (s *Stream) close(ctx context.Context) {
	s.isClosed = true
	if s.pending == nil || s.isReading {
		return
	}
	pending := s.pending
	s.pending = nil
	observability.Go(ctx, func(ctx context.Context) {
		res := <-pending
		releaseUnit(res.unit)
	})
}

func releaseUnit(unit *types.Unit) {
	if unit != nil && unit.Release != nil {
		unit.Release()
	}
}
