package libav

import (
	"context"
	"fmt"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

// trackDecoder is the software decoder of one selected track plus the
// conversion into the negotiated output format.
type trackDecoder struct {
	input        *Input
	stream       *astiav.Stream
	kind         types.EssenceKind
	output       types.Format
	codec        *astiav.Codec
	codecContext *astiav.CodecContext
	converter    converter
	queue        packetQueue
	flushSent    bool

	frameDuration time.Duration
	nextTimestamp time.Duration
}

func newTrackDecoder(
	ctx context.Context,
	input *Input,
	stream *astiav.Stream,
	output types.Format,
	maxQueuedPackets int,
) (_ret *trackDecoder, _err error) {
	d := &trackDecoder{
		input:  input,
		stream: stream,
		kind:   essenceKindFromMediaType(stream.CodecParameters().MediaType()),
		output: output,
		queue:  packetQueue{limit: maxQueuedPackets},
	}
	defer func() {
		if _err != nil {
			d.Close()
		}
	}()

	if err := d.openCodec(ctx); err != nil {
		return nil, err
	}

	switch d.kind {
	case types.EssenceKindVideo:
		conv, err := newVideoConverter(output)
		if err != nil {
			return nil, err
		}
		d.converter = conv
	case types.EssenceKindAudio:
		conv, err := newAudioConverter(output)
		if err != nil {
			return nil, err
		}
		d.converter = conv
	default:
		return nil, fmt.Errorf("stream #%d is neither video nor audio", stream.Index())
	}
	return d, nil
}

func (d *trackDecoder) openCodec(ctx context.Context) error {
	codecParams := d.stream.CodecParameters()
	d.codec = astiav.FindDecoder(codecParams.CodecID())
	if d.codec == nil {
		return fmt.Errorf("unable to find a decoder for codec ID %v", codecParams.CodecID())
	}

	d.codecContext = astiav.AllocCodecContext(d.codec)
	if d.codecContext == nil {
		return fmt.Errorf("unable to allocate a codec context")
	}

	if err := codecParams.ToCodecContext(d.codecContext); err != nil {
		return fmt.Errorf("CodecParameters().ToCodecContext(...) returned error: %w", err)
	}

	if codecParams.MediaType() == astiav.MediaTypeVideo {
		frameRate := d.input.FormatContext.GuessFrameRate(d.stream, nil)
		d.codecContext.SetFramerate(frameRate)
		if frameRate.Num() > 0 && frameRate.Den() > 0 {
			d.frameDuration = time.Second * time.Duration(frameRate.Den()) / time.Duration(frameRate.Num())
		}
	}

	if err := d.codecContext.Open(d.codec, nil); err != nil {
		return fmt.Errorf("unable to open the codec context: %w", err)
	}
	logger.Debugf(ctx, "opened decoder '%s' for stream #%d", d.codec.Name(), d.stream.Index())
	return nil
}

// reset drops the decoder state after a seek.
func (d *trackDecoder) reset(ctx context.Context, position time.Duration) error {
	d.queue.reset()
	d.flushSent = false
	d.nextTimestamp = position
	if d.codecContext != nil {
		d.codecContext.Free()
		d.codecContext = nil
	}
	return d.openCodec(ctx)
}

func (d *trackDecoder) Close() {
	d.queue.reset()
	if d.converter != nil {
		d.converter.Close()
		d.converter = nil
	}
	if d.codecContext != nil {
		d.codecContext.Free()
		d.codecContext = nil
	}
}
