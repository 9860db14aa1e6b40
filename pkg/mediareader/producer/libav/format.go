package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

type ErrFormatNotSupported struct {
	Format types.Format
}

func (e ErrFormatNotSupported) Error() string {
	return fmt.Sprintf("conversion to format %s is not supported", e.Format)
}

var (
	supportedVideoFormats = types.Formats{
		types.FormatNV12,
		types.FormatI420,
		types.FormatBGRA8,
		types.FormatRGBA8,
	}
	supportedAudioFormats = types.Formats{
		types.FormatPCMS16LE,
		types.FormatPCMFloat32LE,
	}
)

func formatFromPixelFormat(pixFmt astiav.PixelFormat) types.Format {
	switch pixFmt {
	case astiav.PixelFormatNone:
		return types.FormatUndefined
	case astiav.PixelFormatNv12:
		return types.FormatNV12
	case astiav.PixelFormatYuv420P:
		return types.FormatI420
	case astiav.PixelFormatBgra:
		return types.FormatBGRA8
	case astiav.PixelFormatRgba:
		return types.FormatRGBA8
	}
	return types.Format(pixFmt.Name())
}

func pixelFormatFromFormat(f types.Format) (astiav.PixelFormat, error) {
	switch f {
	case types.FormatNV12:
		return astiav.PixelFormatNv12, nil
	case types.FormatI420:
		return astiav.PixelFormatYuv420P, nil
	case types.FormatBGRA8:
		return astiav.PixelFormatBgra, nil
	case types.FormatRGBA8:
		return astiav.PixelFormatRgba, nil
	}
	return astiav.PixelFormatNone, ErrFormatNotSupported{Format: f}
}

func formatFromSampleFormat(sampleFmt astiav.SampleFormat) types.Format {
	switch sampleFmt {
	case astiav.SampleFormatNone, astiav.SampleFormatNb:
		return types.FormatUndefined
	case astiav.SampleFormatS16:
		return types.FormatPCMS16LE
	case astiav.SampleFormatFlt:
		return types.FormatPCMFloat32LE
	}
	return types.Format(sampleFmt.Name())
}

func sampleFormatFromFormat(f types.Format) (astiav.SampleFormat, error) {
	switch f {
	case types.FormatPCMS16LE:
		return astiav.SampleFormatS16, nil
	case types.FormatPCMFloat32LE:
		return astiav.SampleFormatFlt, nil
	}
	return astiav.SampleFormatNone, ErrFormatNotSupported{Format: f}
}

func essenceKindFromMediaType(mediaType astiav.MediaType) types.EssenceKind {
	switch mediaType {
	case astiav.MediaTypeVideo:
		return types.EssenceKindVideo
	case astiav.MediaTypeAudio:
		return types.EssenceKindAudio
	}
	return types.EssenceKindUndefined
}
