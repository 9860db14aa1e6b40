package libav

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

func TestIsLocalPath(t *testing.T) {
	for path, expected := range map[string]bool{
		"/tmp/video.mp4":               true,
		"video.mkv":                    true,
		"file:///tmp/video.mp4":        true,
		`C:\Videos\clip.mp4`:           true,
		"rtmp://127.0.0.1/live/stream": false,
		"https://example.com/a.m3u8":   false,
	} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, expected, isLocalPath(path))
		})
	}
}

func TestFormatMapping(t *testing.T) {
	for _, f := range supportedVideoFormats {
		pixFmt, err := pixelFormatFromFormat(f)
		require.NoError(t, err)
		require.Equal(t, f, formatFromPixelFormat(pixFmt))
	}
	for _, f := range supportedAudioFormats {
		sampleFmt, err := sampleFormatFromFormat(f)
		require.NoError(t, err)
		require.Equal(t, f, formatFromSampleFormat(sampleFmt))
	}

	_, err := pixelFormatFromFormat(types.FormatPCMS16LE)
	require.ErrorAs(t, err, &ErrFormatNotSupported{})
	_, err = sampleFormatFromFormat(types.FormatNV12)
	require.ErrorAs(t, err, &ErrFormatNotSupported{})

	assert.Equal(t, types.FormatUndefined, formatFromPixelFormat(astiav.PixelFormatNone))
	assert.False(t, formatFromPixelFormat(astiav.PixelFormatYuv422P).IsKnown())
	assert.Equal(t, types.EssenceKindVideo, essenceKindFromMediaType(astiav.MediaTypeVideo))
	assert.Equal(t, types.EssenceKindUndefined, essenceKindFromMediaType(astiav.MediaTypeSubtitle))
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, toDuration(1500, 0.001))
	assert.Equal(t, int64(90000), fromDuration(time.Second, 1.0/90000))
	assert.Equal(t, 20*time.Millisecond, audioDuration(960, 48000))
	assert.Equal(t, time.Duration(0), audioDuration(960, 0))
}

func TestPacketQueue(t *testing.T) {
	q := packetQueue{limit: 2}
	p0, p1, p2 := packetPool.Get(), packetPool.Get(), packetPool.Get()
	q.push(p0)
	q.push(p1)
	q.push(p2)
	require.Equal(t, uint64(1), q.dropped)
	require.Same(t, p1, q.pop())
	q.pushFront(p1)
	require.Same(t, p1, q.pop())
	require.Same(t, p2, q.pop())
	require.Nil(t, q.pop())
	packetPool.Put(p1)
	packetPool.Put(p2)
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), Config{})
	require.ErrorIs(t, err, types.ErrSourceUnavailable)
}
