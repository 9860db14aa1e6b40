package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSample2D(t *testing.T) {
	var released int
	unit := &Unit{
		Format:    FormatNV12,
		Timestamp: time.Second,
		Width:     4,
		Height:    2,
		Planes: []Plane{
			{Data: make([]byte, 8), Stride: 4},
			{Data: make([]byte, 4), Stride: 4},
		},
		Release: func() { released++ },
	}

	sample, err := NewSample(EssenceKindVideo, unit)
	require.NoError(t, err)
	s2d, ok := sample.(*Sample2D)
	require.True(t, ok)
	assert.Equal(t, EssenceKindVideo, s2d.Kind())
	assert.Equal(t, FormatNV12, s2d.Format())
	assert.Equal(t, time.Second, s2d.Timestamp())
	assert.Equal(t, MemoryKindCPU, s2d.MemoryKind())
	assert.Len(t, s2d.Planes(), 2)

	s2d.Retain()
	s2d.Release()
	assert.Equal(t, 0, released)
	s2d.Release()
	assert.Equal(t, 1, released)
	assert.True(t, s2d.IsReleased())
	assert.Panics(t, func() { s2d.Release() })
}

func TestNewSampleRejectsInvalidUnits(t *testing.T) {
	for name, tc := range map[string]struct {
		kind EssenceKind
		unit Unit
	}{
		"zero_width": {
			kind: EssenceKindVideo,
			unit: Unit{Format: FormatBGRA8, Height: 1, Planes: []Plane{{Data: make([]byte, 4), Stride: 4}}},
		},
		"short_plane": {
			kind: EssenceKindVideo,
			unit: Unit{Format: FormatBGRA8, Width: 2, Height: 2, Planes: []Plane{{Data: make([]byte, 12), Stride: 8}}},
		},
		"wrong_plane_count": {
			kind: EssenceKindVideo,
			unit: Unit{Format: FormatI420, Width: 2, Height: 2, Planes: []Plane{{Data: make([]byte, 4), Stride: 2}}},
		},
		"audio_format_for_video": {
			kind: EssenceKindVideo,
			unit: Unit{Format: FormatPCMS16LE, Width: 1, Height: 1, Planes: []Plane{{Data: make([]byte, 4), Stride: 4}}},
		},
		"short_audio": {
			kind: EssenceKindAudio,
			unit: Unit{Format: FormatPCMS16LE, Channels: 2, SampleRate: 48000, FrameCount: 10, Data: make([]byte, 39)},
		},
		"no_channels": {
			kind: EssenceKindAudio,
			unit: Unit{Format: FormatPCMS16LE, SampleRate: 48000},
		},
	} {
		t.Run(name, func(t *testing.T) {
			var released bool
			unit := tc.unit
			unit.Release = func() { released = true }
			_, err := NewSample(tc.kind, &unit)
			require.Error(t, err)
			assert.True(t, released)
		})
	}
}

func TestNewSampleAudio(t *testing.T) {
	sample, err := NewSample(EssenceKindAudio, &Unit{
		Format:     FormatPCMS16LE,
		Channels:   2,
		SampleRate: 44100,
		FrameCount: 3,
		Data:       make([]byte, 12),
	})
	require.NoError(t, err)
	audio := sample.(*SampleAudio)
	assert.Equal(t, 2, audio.Channels())
	assert.Equal(t, 44100, audio.SampleRate())
	assert.Equal(t, 3, audio.FrameCount())
	audio.Release()
}

func TestNewSampleNativeFormatPassThrough(t *testing.T) {
	sample, err := NewSample(EssenceKindVideo, &Unit{
		Format: Format("yuv422p"),
		Width:  2,
		Height: 2,
		Planes: []Plane{{Data: []byte{1}, Stride: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, Format("yuv422p"), sample.Format())
}
