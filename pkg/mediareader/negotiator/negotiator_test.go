package negotiator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

var (
	videoTrack = types.TrackInfo{
		ID:               0,
		Kind:             types.EssenceKindVideo,
		NativeFormat:     types.FormatI420,
		SupportedFormats: types.Formats{types.FormatNV12, types.FormatBGRA8},
	}
	audioTrack = types.TrackInfo{
		ID:               1,
		Kind:             types.EssenceKindAudio,
		NativeFormat:     types.Format("fltp"),
		SupportedFormats: types.Formats{types.FormatPCMS16LE},
	}
)

func TestNegotiate(t *testing.T) {
	t.Run("deselected", func(t *testing.T) {
		outcome, err := Negotiate(types.Deselected(), videoTrack)
		require.NoError(t, err)
		assert.False(t, outcome.Selected)
		assert.Equal(t, types.FormatUndefined, outcome.Format)
	})

	t.Run("native", func(t *testing.T) {
		outcome, err := Negotiate(types.NativeOrDefault(), audioTrack)
		require.NoError(t, err)
		assert.True(t, outcome.Selected)
		assert.Equal(t, types.Format("fltp"), outcome.Format)
	})

	t.Run("native_falls_back_to_first_supported", func(t *testing.T) {
		track := videoTrack
		track.NativeFormat = types.FormatUndefined
		outcome, err := Negotiate(types.NativeOrDefault(), track)
		require.NoError(t, err)
		assert.Equal(t, types.FormatNV12, outcome.Format)
	})

	t.Run("explicit_supported", func(t *testing.T) {
		outcome, err := Negotiate(types.VideoBgra8, videoTrack)
		require.NoError(t, err)
		assert.True(t, outcome.Selected)
		assert.Equal(t, types.FormatBGRA8, outcome.Format)
	})

	t.Run("explicit_native", func(t *testing.T) {
		outcome, err := Negotiate(types.Explicit(types.FormatI420), videoTrack)
		require.NoError(t, err)
		assert.Equal(t, types.FormatI420, outcome.Format)
	})

	t.Run("explicit_unsupported", func(t *testing.T) {
		_, err := Negotiate(types.Explicit(types.FormatRGBA8), videoTrack)
		var unsupported types.ErrUnsupportedFormat
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, types.FormatRGBA8, unsupported.Requested)
		assert.Equal(t, types.Formats{types.FormatI420, types.FormatNV12, types.FormatBGRA8}, unsupported.Available)
	})

	t.Run("explicit_wrong_kind", func(t *testing.T) {
		track := audioTrack
		track.SupportedFormats = append(track.SupportedFormats, types.FormatNV12)
		_, err := Negotiate(types.VideoNv12, track)
		require.Error(t, err)
	})

	t.Run("optional_unsupported_is_deselected", func(t *testing.T) {
		outcome, err := Negotiate(types.Explicit(types.FormatRGBA8).Optional(), videoTrack)
		require.NoError(t, err)
		assert.False(t, outcome.Selected)
		assert.Error(t, outcome.Rejection)
	})
}

func TestPlanTracks(t *testing.T) {
	t.Run("video_before_audio_when_unordered", func(t *testing.T) {
		plans, err := PlanTracks(&types.SourceInfo{
			Tracks: []types.TrackInfo{audioTrack, videoTrack},
		}, types.AudioPcm, types.VideoNv12)
		require.NoError(t, err)
		require.Len(t, plans, 2)
		assert.Equal(t, types.EssenceKindVideo, plans[0].Track.Kind)
		assert.Equal(t, types.FormatNV12, plans[0].Format)
		assert.Equal(t, types.EssenceKindAudio, plans[1].Track.Kind)
		assert.Equal(t, types.FormatPCMS16LE, plans[1].Format)
	})

	t.Run("source_order_preserved", func(t *testing.T) {
		plans, err := PlanTracks(&types.SourceInfo{
			Tracks:    []types.TrackInfo{audioTrack, videoTrack},
			IsOrdered: true,
		}, types.NativeOrDefault(), types.NativeOrDefault())
		require.NoError(t, err)
		assert.Equal(t, types.EssenceKindAudio, plans[0].Track.Kind)
		assert.Equal(t, types.EssenceKindVideo, plans[1].Track.Kind)
	})

	t.Run("secondary_tracks_are_deselected", func(t *testing.T) {
		second := videoTrack
		second.ID = 2
		plans, err := PlanTracks(&types.SourceInfo{
			Tracks: []types.TrackInfo{videoTrack, second},
		}, types.NativeOrDefault(), types.VideoBgra8)
		require.NoError(t, err)
		require.Len(t, plans, 2)
		assert.True(t, plans[0].Selected)
		assert.False(t, plans[1].Selected)
	})

	t.Run("unknown_kinds_are_skipped", func(t *testing.T) {
		plans, err := PlanTracks(&types.SourceInfo{
			Tracks: []types.TrackInfo{{ID: 5}, videoTrack},
		}, types.NativeOrDefault(), types.NativeOrDefault())
		require.NoError(t, err)
		require.Len(t, plans, 1)
	})

	t.Run("required_failure", func(t *testing.T) {
		_, err := PlanTracks(&types.SourceInfo{
			Tracks: []types.TrackInfo{videoTrack, audioTrack},
		}, types.Explicit(types.FormatPCMFloat32LE), types.NativeOrDefault())
		var negErr types.ErrNegotiationFailed
		require.True(t, errors.As(err, &negErr))
		assert.Equal(t, 1, negErr.TrackIndex)
		assert.Equal(t, types.EssenceKindAudio, negErr.Kind)
		var unsupported types.ErrUnsupportedFormat
		require.True(t, errors.As(err, &unsupported))
	})
}
