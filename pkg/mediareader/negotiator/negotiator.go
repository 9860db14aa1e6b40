// Package negotiator reconciles initialization policies with the formats
// a producer can decode each track to.
//
// It has no side effects and never talks to a producer.
package negotiator

import (
	"fmt"
	"sort"

	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

// Outcome is the decision for one track.
type Outcome struct {
	Selected bool
	Format   types.Format

	// Rejection is the negotiation error of an optional track that was
	// deselected because of it.
	Rejection error
}

// Negotiate decides whether the track is selected and with which output format.
func Negotiate(
	policy types.Policy,
	track types.TrackInfo,
) (Outcome, error) {
	outcome, err := negotiate(policy, track)
	if err != nil && policy.IsOptional {
		return Outcome{Rejection: err}, nil
	}
	return outcome, err
}

func negotiate(
	policy types.Policy,
	track types.TrackInfo,
) (Outcome, error) {
	switch policy.Mode {
	case types.PolicyModeDeselected:
		return Outcome{}, nil
	case types.PolicyModeNativeOrDefault:
		if track.NativeFormat != types.FormatUndefined {
			return Outcome{Selected: true, Format: track.NativeFormat}, nil
		}
		if len(track.SupportedFormats) > 0 {
			return Outcome{Selected: true, Format: track.SupportedFormats[0]}, nil
		}
		return Outcome{}, types.ErrUnsupportedFormat{
			Kind:      track.Kind,
			Requested: types.FormatUndefined,
		}
	case types.PolicyModeExplicit:
		available := availableFormats(track)
		requested := policy.Format
		kindMatches := requested.Kind() == track.Kind || !requested.IsKnown()
		if kindMatches && available.Contains(requested) {
			return Outcome{Selected: true, Format: requested}, nil
		}
		return Outcome{}, types.ErrUnsupportedFormat{
			Kind:      track.Kind,
			Requested: requested,
			Available: available,
		}
	default:
		return Outcome{}, fmt.Errorf("unexpected policy mode: %v", policy.Mode)
	}
}

func availableFormats(track types.TrackInfo) types.Formats {
	result := make(types.Formats, 0, len(track.SupportedFormats)+1)
	if track.NativeFormat != types.FormatUndefined {
		result = append(result, track.NativeFormat)
	}
	for _, f := range track.SupportedFormats {
		if result.Contains(f) {
			continue
		}
		result = append(result, f)
	}
	return result
}

// Plan is the decision for one track in the final stream order.
type Plan struct {
	Track types.TrackInfo
	Outcome
}

// PlanTracks orders the tracks and negotiates every one of them.
//
// The audio/video policy applies to the first track of its kind; any
// further track of the same kind is deselected. Tracks of an unknown kind
// are skipped. A failure of a required track fails the whole plan.
func PlanTracks(
	info *types.SourceInfo,
	audioPolicy types.Policy,
	videoPolicy types.Policy,
) ([]Plan, error) {
	tracks := make([]types.TrackInfo, 0, len(info.Tracks))
	for _, track := range info.Tracks {
		if !track.Kind.IsValid() {
			continue
		}
		tracks = append(tracks, track)
	}
	if !info.IsOrdered {
		sort.SliceStable(tracks, func(i, j int) bool {
			return kindOrder(tracks[i].Kind) < kindOrder(tracks[j].Kind)
		})
	}

	seen := map[types.EssenceKind]bool{}
	plans := make([]Plan, 0, len(tracks))
	for idx, track := range tracks {
		policy := types.Deselected()
		if !seen[track.Kind] {
			seen[track.Kind] = true
			switch track.Kind {
			case types.EssenceKindVideo:
				policy = videoPolicy
			case types.EssenceKindAudio:
				policy = audioPolicy
			}
		}

		outcome, err := Negotiate(policy, track)
		if err != nil {
			return nil, types.ErrNegotiationFailed{
				TrackIndex: idx,
				Kind:       track.Kind,
				Err:        err,
			}
		}
		plans = append(plans, Plan{
			Track:   track,
			Outcome: outcome,
		})
	}
	return plans, nil
}

func kindOrder(kind types.EssenceKind) int {
	switch kind {
	case types.EssenceKindVideo:
		return 0
	case types.EssenceKindAudio:
		return 1
	default:
		return 2
	}
}
