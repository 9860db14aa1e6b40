package screencapture

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mediareader/pkg/clock"
	"github.com/xaionaro-go/mediareader/pkg/mediareader"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/mediareader/pkg/screenshot"
)

type fakeEngine struct {
	displays uint
	bounds   image.Rectangle
}

func (e fakeEngine) NumActiveDisplays() uint { return e.displays }

func (e fakeEngine) DisplayBounds(int) image.Rectangle { return e.bounds }

func (e fakeEngine) Screenshot(cfg screenshot.Config) (*image.RGBA, error) {
	img := image.NewRGBA(cfg.Bounds)
	img.SetRGBA(cfg.Bounds.Min.X, cfg.Bounds.Min.Y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	return img, nil
}

func TestSessionNoDisplay(t *testing.T) {
	ctx := context.Background()
	s := New(Config{Engine: fakeEngine{}})
	require.ErrorIs(t, s.Initialize(ctx), types.ErrDeviceNotReady)

	_, err := mediareader.CreateFromCaptureSession(ctx, s, types.AudioDeselected, types.NativeOrDefault())
	require.ErrorIs(t, err, types.ErrDeviceNotReady)
}

func TestSessionRead(t *testing.T) {
	for _, tc := range []struct {
		Policy   types.Policy
		Expected []byte
	}{
		{Policy: types.VideoBgra8, Expected: []byte{30, 20, 10, 255}},
		{Policy: types.Explicit(types.FormatRGBA8), Expected: []byte{10, 20, 30, 255}},
	} {
		t.Run(tc.Policy.String(), func(t *testing.T) {
			ctx := context.Background()
			mockClock := clock.NewMock()
			s := New(Config{
				Engine: fakeEngine{displays: 1, bounds: image.Rect(100, 50, 108, 54)},
				Clock:  mockClock,
			})
			require.NoError(t, s.Initialize(ctx))

			r, err := mediareader.CreateFromCaptureSession(ctx, s, types.AudioDeselected, tc.Policy)
			require.NoError(t, err)
			defer r.Close()
			require.Nil(t, r.AudioStream())
			assert.False(t, r.CanSeek())

			result, err := r.VideoStream().Read(ctx)
			require.NoError(t, err)
			sample := result.(types.Delivered).Sample.(*types.Sample2D)
			defer sample.Release()
			assert.Equal(t, 8, sample.Width())
			assert.Equal(t, 4, sample.Height())
			assert.Equal(t, time.Duration(0), sample.Timestamp())
			plane := sample.Planes()[0]
			assert.Equal(t, 32, plane.Stride)
			assert.Equal(t, tc.Expected, plane.Data[:4])
		})
	}
}

func TestSessionReadCancelled(t *testing.T) {
	ctx := context.Background()
	s := New(Config{
		Engine: fakeEngine{displays: 1, bounds: image.Rect(0, 0, 2, 2)},
		Clock:  clock.NewMock(),
	})
	require.NoError(t, s.Initialize(ctx))
	r, err := mediareader.CreateFromCaptureSession(ctx, s, types.AudioDeselected, types.NativeOrDefault())
	require.NoError(t, err)
	defer r.Close()

	result, err := r.VideoStream().Read(ctx)
	require.NoError(t, err)
	result.(types.Delivered).Sample.Release()

	readCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	result, err = r.VideoStream().Read(readCtx)
	require.NoError(t, err)
	assert.Equal(t, types.ReadResultKindCancelled, result.ReadResultKind())
}
