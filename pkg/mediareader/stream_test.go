package mediareader

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

func openVideoOnly(
	t *testing.T,
	video *fakeTrack,
	opts ...Option,
) (*Reader, *fakeProducer) {
	producer := newFakeProducer(true, video)
	opts = append(opts, OptionPathOpener(producer.opener()))
	r, err := CreateFromPath(context.Background(), "video.mkv", types.NativeOrDefault(), types.NativeOrDefault(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, producer
}

func readKinds(
	t *testing.T,
	s *Stream,
	count int,
) ([]types.ReadResultKind, []types.ReadResult) {
	ctx := context.Background()
	var (
		kinds   []types.ReadResultKind
		results []types.ReadResult
	)
	for i := 0; i < count; i++ {
		result, err := s.Read(ctx)
		require.NoError(t, err)
		kinds = append(kinds, result.ReadResultKind())
		results = append(results, result)
		if d, ok := result.(types.Delivered); ok {
			d.Sample.Release()
		}
	}
	return kinds, results
}

func TestStreamDeselected(t *testing.T) {
	ctx := context.Background()
	video := &fakeTrack{Info: videoTrackInfo(0), Script: []fakeStep{bgraUnit(0)}}
	audio := &fakeTrack{Info: audioTrackInfo(1), Script: []fakeStep{pcmUnit(0)}}
	producer := newFakeProducer(true, video, audio)

	r, err := CreateFromPath(ctx, "car.mp4", types.AudioDeselected, types.NativeOrDefault(), OptionPathOpener(producer.opener()))
	require.NoError(t, err)
	defer r.Close()

	s := r.AudioStream()
	require.NotNil(t, s)
	assert.False(t, s.IsSelected())
	_, ok := s.Format()
	assert.False(t, ok)
	assert.Equal(t, StreamStateUnselected, s.State(ctx))

	for i := 0; i < 3; i++ {
		result, err := s.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, types.EndOfStream{}, result)
	}
	assert.Zero(t, audio.readCalls.Load())
}

func TestStreamReadToExhaustion(t *testing.T) {
	video := &fakeTrack{
		Info: videoTrackInfo(0),
		Script: []fakeStep{
			bgraUnit(0),
			bgraUnit(40 * time.Millisecond),
			bgraUnit(80 * time.Millisecond),
		},
	}
	r, _ := openVideoOnly(t, video)

	kinds, results := readKinds(t, r.VideoStream(), 5)
	assert.Equal(t, []types.ReadResultKind{
		types.ReadResultKindDelivered,
		types.ReadResultKindDelivered,
		types.ReadResultKindDelivered,
		types.ReadResultKindEndOfStream,
		types.ReadResultKindEndOfStream,
	}, kinds)

	var prev time.Duration
	for _, result := range results[:3] {
		sample := result.(types.Delivered).Sample
		assert.Equal(t, types.FormatBGRA8, sample.Format())
		assert.GreaterOrEqual(t, sample.Timestamp(), prev)
		prev = sample.Timestamp()
	}
	assert.Equal(t, StreamStateDrained, r.VideoStream().State(context.Background()))
	assert.Equal(t, int64(3), video.released.Load())
	// the drained state is terminal: the producer is not asked again
	assert.Equal(t, int64(4), video.readCalls.Load())
}

func TestStreamConcurrentRead(t *testing.T) {
	ctx := context.Background()
	video := &fakeTrack{
		Info:   videoTrackInfo(0),
		Script: []fakeStep{bgraUnit(0), bgraUnit(time.Millisecond)},
		Gate:   make(chan struct{}),
	}
	r, _ := openVideoOnly(t, video)
	s := r.VideoStream()

	first, err := s.ReadAsync(ctx)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err = s.ReadAsync(ctx)
		require.ErrorIs(t, err, types.ErrConcurrentRead)
	}

	video.Gate <- struct{}{}
	result := <-first
	require.IsType(t, types.Delivered{}, result)
	result.(types.Delivered).Sample.Release()
	_, ok := <-first
	assert.False(t, ok)

	second, err := s.ReadAsync(ctx)
	require.NoError(t, err)
	video.Gate <- struct{}{}
	result = <-second
	require.IsType(t, types.Delivered{}, result)
	result.(types.Delivered).Sample.Release()
}

func TestStreamCancelInFlightRead(t *testing.T) {
	for _, honorContext := range []bool{false, true} {
		t.Run(map[bool]string{false: "producer_ignores_context", true: "producer_honors_context"}[honorContext], func(t *testing.T) {
			video := &fakeTrack{
				Info:         videoTrackInfo(0),
				Script:       []fakeStep{bgraUnit(0), bgraUnit(time.Millisecond)},
				Gate:         make(chan struct{}),
				HonorContext: honorContext,
			}
			r, _ := openVideoOnly(t, video, OptionMaxConsecutiveErrors(1))
			s := r.VideoStream()
			formatBefore, _ := s.Format()

			ctx, cancelFn := context.WithCancel(context.Background())
			resultCh, err := s.ReadAsync(ctx)
			require.NoError(t, err)
			cancelFn()

			result := <-resultCh
			cancelled, ok := result.(types.Cancelled)
			require.True(t, ok, "%#+v", result)
			assert.ErrorIs(t, cancelled.Cause, context.Canceled)

			bgCtx := context.Background()
			assert.Equal(t, StreamStateActive, s.State(bgCtx))
			assert.True(t, s.IsSelected())
			formatAfter, _ := s.Format()
			assert.Equal(t, formatBefore, formatAfter)

			close(video.Gate)
			result, err = s.Read(bgCtx)
			require.NoError(t, err)
			delivered, ok := result.(types.Delivered)
			require.True(t, ok, "%#+v", result)
			assert.Equal(t, time.Duration(0), delivered.Sample.Timestamp())
			delivered.Sample.Release()
		})
	}
}

func TestStreamReadWithCancelledContext(t *testing.T) {
	video := &fakeTrack{Info: videoTrackInfo(0), Script: []fakeStep{bgraUnit(0)}}
	r, _ := openVideoOnly(t, video)

	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	result, err := r.VideoStream().Read(ctx)
	require.NoError(t, err)
	assert.IsType(t, types.Cancelled{}, result)
	assert.Zero(t, video.readCalls.Load())
}

func TestStreamRecoverableError(t *testing.T) {
	video := &fakeTrack{
		Info: videoTrackInfo(0),
		Script: []fakeStep{
			bgraUnit(0),
			errStep(42, false),
			bgraUnit(time.Millisecond),
		},
	}
	r, _ := openVideoOnly(t, video)

	kinds, results := readKinds(t, r.VideoStream(), 4)
	assert.Equal(t, []types.ReadResultKind{
		types.ReadResultKindDelivered,
		types.ReadResultKindError,
		types.ReadResultKindDelivered,
		types.ReadResultKindEndOfStream,
	}, kinds)
	assert.Equal(t, types.ReadError{Code: 42, Message: "failure 42"}, results[1])
}

func TestStreamFatalError(t *testing.T) {
	video := &fakeTrack{
		Info:   videoTrackInfo(0),
		Script: []fakeStep{errStep(5, true), bgraUnit(0)},
	}
	r, _ := openVideoOnly(t, video)

	_, results := readKinds(t, r.VideoStream(), 3)
	expected := types.ReadError{Code: 5, Message: "failure 5", Fatal: true}
	for _, result := range results {
		assert.Equal(t, expected, result)
	}
	assert.Equal(t, StreamStateFaulted, r.VideoStream().State(context.Background()))
	assert.Equal(t, int64(1), video.readCalls.Load())
}

func TestStreamMaxConsecutiveErrors(t *testing.T) {
	video := &fakeTrack{
		Info: videoTrackInfo(0),
		Script: []fakeStep{
			errStep(1, false),
			bgraUnit(0),
			errStep(2, false),
			errStep(3, false),
			bgraUnit(time.Millisecond),
		},
	}
	r, _ := openVideoOnly(t, video, OptionMaxConsecutiveErrors(2))

	_, results := readKinds(t, r.VideoStream(), 5)
	assert.Equal(t, types.ReadError{Code: 1, Message: "failure 1"}, results[0])
	assert.IsType(t, types.Delivered{}, results[1])
	assert.Equal(t, types.ReadError{Code: 2, Message: "failure 2"}, results[2])
	assert.Equal(t, types.ReadError{Code: 3, Message: "failure 3", Fatal: true}, results[3])
	assert.Equal(t, results[3], results[4])
}

func TestStreamFormatMismatch(t *testing.T) {
	unit := bgraUnit(0)
	unit.unit.Format = types.FormatRGBA8
	video := &fakeTrack{
		Info:   videoTrackInfo(0),
		Script: []fakeStep{unit, bgraUnit(0)},
	}
	r, _ := openVideoOnly(t, video)

	_, results := readKinds(t, r.VideoStream(), 2)
	readErr, ok := results[0].(types.ReadError)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeFormatMismatch, readErr.Code)
	assert.False(t, readErr.Fatal)
	assert.IsType(t, types.Delivered{}, results[1])
	assert.Equal(t, int64(2), video.released.Load())
}

func TestStreamTimestampsNeverDecrease(t *testing.T) {
	video := &fakeTrack{
		Info:   videoTrackInfo(0),
		Script: []fakeStep{bgraUnit(time.Second), bgraUnit(500 * time.Millisecond)},
	}
	r, _ := openVideoOnly(t, video)

	ctx := context.Background()
	var timestamps []time.Duration
	for i := 0; i < 2; i++ {
		result, err := r.VideoStream().Read(ctx)
		require.NoError(t, err)
		sample := result.(types.Delivered).Sample
		timestamps = append(timestamps, sample.Timestamp())
		sample.Release()
	}
	assert.Equal(t, []time.Duration{time.Second, time.Second}, timestamps)
}

func TestStreamsAreIndependent(t *testing.T) {
	ctx := context.Background()
	video := &fakeTrack{Info: videoTrackInfo(0), Script: []fakeStep{bgraUnit(0)}, Gate: make(chan struct{})}
	audio := &fakeTrack{Info: audioTrackInfo(1), Script: []fakeStep{pcmUnit(0)}}
	producer := newFakeProducer(true, video, audio)
	r, err := CreateFromPath(ctx, "car.mp4", types.NativeOrDefault(), types.NativeOrDefault(), OptionPathOpener(producer.opener()))
	require.NoError(t, err)
	defer r.Close()

	videoCh, err := r.VideoStream().ReadAsync(ctx)
	require.NoError(t, err)

	result, err := r.AudioStream().Read(ctx)
	require.NoError(t, err)
	delivered, ok := result.(types.Delivered)
	require.True(t, ok)
	audioSample, ok := delivered.Sample.(*types.SampleAudio)
	require.True(t, ok)
	assert.Equal(t, 2, audioSample.Channels())
	audioSample.Release()

	close(video.Gate)
	result = <-videoCh
	require.IsType(t, types.Delivered{}, result)
	result.(types.Delivered).Sample.Release()
}

func TestStreamProducerTimeoutIsAnError(t *testing.T) {
	video := &fakeTrack{
		Info: videoTrackInfo(0),
		Script: []fakeStep{
			failStep(fmt.Errorf("network read timed out: %w", context.DeadlineExceeded)),
			bgraUnit(0),
		},
	}
	r, _ := openVideoOnly(t, video)

	kinds, results := readKinds(t, r.VideoStream(), 2)
	assert.Equal(t, []types.ReadResultKind{
		types.ReadResultKindError,
		types.ReadResultKindDelivered,
	}, kinds)
	assert.Equal(t, types.ReadError{
		Code:    ErrorCodeGeneric,
		Message: "network read timed out: context deadline exceeded",
	}, results[0])
	assert.Equal(t, int64(2), video.readCalls.Load())
	assert.Equal(t, StreamStateActive, r.VideoStream().State(context.Background()))
}

func TestStreamReadDuringSeek(t *testing.T) {
	ctx := context.Background()
	video := &fakeTrack{Info: videoTrackInfo(0), Script: []fakeStep{bgraUnit(0)}}
	audio := &fakeTrack{Info: audioTrackInfo(1), Script: []fakeStep{pcmUnit(0)}}
	producer := newFakeProducer(true, video, audio)
	r, err := CreateFromPath(ctx, "car.mp4", types.AudioDeselected, types.NativeOrDefault(), OptionPathOpener(producer.opener()))
	require.NoError(t, err)
	defer r.Close()

	producer.SeekStarted = make(chan struct{})
	producer.SeekGate = make(chan struct{})
	seekErrCh := make(chan error, 1)
	go func() {
		seekErrCh <- r.Seek(ctx, time.Second)
	}()
	<-producer.SeekStarted

	_, err = r.VideoStream().ReadAsync(ctx)
	require.ErrorIs(t, err, types.ErrSeekInProgress)
	assert.NotErrorIs(t, err, types.ErrConcurrentRead)

	// deselected streams are not affected by seeking
	result, err := r.AudioStream().Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.EndOfStream{}, result)

	close(producer.SeekGate)
	require.NoError(t, <-seekErrCh)

	result, err = r.VideoStream().Read(ctx)
	require.NoError(t, err)
	require.IsType(t, types.Delivered{}, result)
	result.(types.Delivered).Sample.Release()
}
