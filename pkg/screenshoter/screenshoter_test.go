package screenshoter

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mediareader/pkg/clock"
	"github.com/xaionaro-go/mediareader/pkg/screenshot"
)

type flakyEngine struct {
	calls atomic.Int32
}

func (*flakyEngine) NumActiveDisplays() uint { return 1 }

func (*flakyEngine) DisplayBounds(int) image.Rectangle { return image.Rect(0, 0, 4, 4) }

func (e *flakyEngine) Screenshot(cfg screenshot.Config) (*image.RGBA, error) {
	if e.calls.Add(1)%2 == 0 {
		return nil, errors.New("flaky")
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func TestLoop(t *testing.T) {
	mockClock := clock.NewMock()
	engine := &flakyEngine{}
	s := New(engine, mockClock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	images := make(chan *image.RGBA, 10)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Loop(ctx, time.Second, screenshot.Config{}, func(ctx context.Context, img *image.RGBA, takenAt time.Time) {
			images <- img
		})
	}()

	<-images
	deadline := time.After(5 * time.Second)
	for received := 1; received < 2; {
		select {
		case <-images:
			received++
		case <-deadline:
			t.Fatal("timeout")
		case <-time.After(time.Millisecond):
			mockClock.Add(time.Second)
		}
	}
	require.GreaterOrEqual(t, engine.calls.Load(), int32(3))

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}
