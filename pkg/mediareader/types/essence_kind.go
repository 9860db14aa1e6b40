package types

import (
	"fmt"
)

// EssenceKind is the media type of a track.
type EssenceKind uint

const (
	EssenceKindUndefined = EssenceKind(iota)
	EssenceKindVideo
	EssenceKindAudio
	endOfEssenceKind
)

func (k EssenceKind) String() string {
	switch k {
	case EssenceKindUndefined:
		return "<undefined>"
	case EssenceKindVideo:
		return "video"
	case EssenceKindAudio:
		return "audio"
	default:
		return fmt.Sprintf("<unexpected_kind_%d>", uint(k))
	}
}

func (k EssenceKind) IsValid() bool {
	return k > EssenceKindUndefined && k < endOfEssenceKind
}
