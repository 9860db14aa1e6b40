// Package libav implements a mediareader producer on top of FFmpeg.
//
// Importing the package registers it as the default path opener of
// mediareader.CreateFromPath.
package libav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/mediareader/pkg/mediareader"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/xsync"
)

const DefaultMaxQueuedPackets = 512

func init() {
	mediareader.SetDefaultPathOpener(Opener(Config{}))
}

type Config struct {
	CustomOptions []CustomOption

	// MaxQueuedPackets limits the packets buffered for a selected track
	// that is not being read. The oldest packets are dropped beyond it.
	MaxQueuedPackets int
}

// Opener returns a PathOpener producing FFmpeg-backed producers.
func Opener(cfg Config) types.PathOpener {
	return func(ctx context.Context, path string) (types.Producer, error) {
		return New(ctx, path, cfg)
	}
}

type Producer struct {
	locker   xsync.Mutex
	config   Config
	input    *Input
	decoders map[int]*trackDecoder
	packet   *astiav.Packet
	frame    *astiav.Frame
	canSeek  bool
	demuxEOF bool
	isClosed bool
}

var (
	_ types.Producer = (*Producer)(nil)
	_ types.Seeker   = (*Producer)(nil)
)

func New(
	ctx context.Context,
	path string,
	cfg Config,
) (*Producer, error) {
	if cfg.MaxQueuedPackets <= 0 {
		cfg.MaxQueuedPackets = DefaultMaxQueuedPackets
	}

	input, err := newInputFromPath(ctx, path, cfg.CustomOptions)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "opened input #%d '%s'", input.ID, input.URL)

	p := &Producer{
		config:   cfg,
		input:    input,
		decoders: map[int]*trackDecoder{},
		packet:   astiav.AllocPacket(),
		frame:    astiav.AllocFrame(),
	}
	input.Closer.Add(p.packet.Free)
	input.Closer.Add(p.frame.Free)
	return p, nil
}

func (p *Producer) Probe(ctx context.Context) (*types.SourceInfo, error) {
	return xsync.DoA1R2(ctx, &p.locker, p.probeLocked, ctx)
}

func (p *Producer) probeLocked(ctx context.Context) (*types.SourceInfo, error) {
	if p.isClosed {
		return nil, types.ErrClosed
	}

	info := &types.SourceInfo{
		IsOrdered: true,
	}
	for _, stream := range p.input.FormatContext.Streams() {
		codecParams := stream.CodecParameters()
		kind := essenceKindFromMediaType(codecParams.MediaType())
		if !kind.IsValid() {
			logger.Tracef(ctx, "skipping stream #%d of type %s", stream.Index(), codecParams.MediaType())
			continue
		}

		track := types.TrackInfo{
			ID:   stream.Index(),
			Kind: kind,
		}
		switch kind {
		case types.EssenceKindVideo:
			track.NativeFormat = formatFromPixelFormat(codecParams.PixelFormat())
		case types.EssenceKindAudio:
			track.NativeFormat = formatFromSampleFormat(codecParams.SampleFormat())
		}
		if !track.NativeFormat.IsKnown() {
			// we can only hand out formats we know the plane layout of
			track.NativeFormat = types.FormatUndefined
		}

		if astiav.FindDecoder(codecParams.CodecID()) == nil {
			logger.Debugf(ctx, "no decoder for codec %v of stream #%d", codecParams.CodecID(), stream.Index())
			track.NativeFormat = types.FormatUndefined
		} else {
			track.SupportedFormats = supportedFormats(kind)
		}
		info.Tracks = append(info.Tracks, track)
	}

	if duration, ok := containerDuration(p.input.FormatContext); ok {
		info.Duration = &duration
	}
	p.canSeek = p.input.IsLocal || info.Duration != nil
	info.CanSeek = p.canSeek
	return info, nil
}

func supportedFormats(kind types.EssenceKind) types.Formats {
	switch kind {
	case types.EssenceKindVideo:
		return append(types.Formats(nil), supportedVideoFormats...)
	case types.EssenceKindAudio:
		return append(types.Formats(nil), supportedAudioFormats...)
	}
	return nil
}

func (p *Producer) SelectTrack(
	ctx context.Context,
	trackID int,
	output types.Format,
) error {
	return xsync.DoA3R1(ctx, &p.locker, p.selectTrackLocked, ctx, trackID, output)
}

func (p *Producer) selectTrackLocked(
	ctx context.Context,
	trackID int,
	output types.Format,
) error {
	if p.isClosed {
		return types.ErrClosed
	}
	if _, ok := p.decoders[trackID]; ok {
		return fmt.Errorf("track #%d is already selected", trackID)
	}

	streams := p.input.FormatContext.Streams()
	if trackID < 0 || trackID >= len(streams) {
		return fmt.Errorf("track #%d does not exist, there are %d tracks", trackID, len(streams))
	}

	d, err := newTrackDecoder(ctx, p.input, streams[trackID], output, p.config.MaxQueuedPackets)
	if err != nil {
		return fmt.Errorf("unable to initialize the decoder of track #%d: %w", trackID, err)
	}
	p.decoders[trackID] = d
	return nil
}

func (p *Producer) ReadNext(
	ctx context.Context,
	trackID int,
) (*types.Unit, error) {
	return xsync.DoA2R2(ctx, &p.locker, p.readNextLocked, ctx, trackID)
}

var errNeedInput = errors.New("the decoder needs more input")

func (p *Producer) readNextLocked(
	ctx context.Context,
	trackID int,
) (*types.Unit, error) {
	if p.isClosed {
		return nil, types.ErrClosed
	}
	d, ok := p.decoders[trackID]
	if !ok {
		return nil, fmt.Errorf("track #%d is not selected", trackID)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unit, err := p.receiveFrame(ctx, d)
		switch {
		case err == nil:
			return unit, nil
		case errors.Is(err, errNeedInput):
		default:
			return nil, err
		}

		if packet := d.queue.pop(); packet != nil {
			err := d.codecContext.SendPacket(packet)
			if errors.Is(err, astiav.ErrEagain) {
				d.queue.pushFront(packet)
				continue
			}
			packetPool.Put(packet)
			if err != nil {
				return nil, &types.ProducerError{
					Code:    errorCode(err),
					Message: fmt.Sprintf("unable to decode a packet of track #%d: %v", trackID, err),
				}
			}
			continue
		}

		if p.demuxEOF {
			if d.flushSent {
				return nil, io.EOF
			}
			if err := d.codecContext.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
				return nil, &types.ProducerError{
					Code:    errorCode(err),
					Message: fmt.Sprintf("unable to flush the decoder of track #%d: %v", trackID, err),
				}
			}
			d.flushSent = true
			continue
		}

		if err := p.demux(ctx); err != nil {
			return nil, err
		}
	}
}

func (p *Producer) receiveFrame(
	ctx context.Context,
	d *trackDecoder,
) (*types.Unit, error) {
	err := d.codecContext.ReceiveFrame(p.frame)
	switch {
	case err == nil:
	case errors.Is(err, astiav.ErrEof):
		return nil, io.EOF
	case errors.Is(err, astiav.ErrEagain):
		return nil, errNeedInput
	default:
		return nil, &types.ProducerError{
			Code:    errorCode(err),
			Message: fmt.Sprintf("unable to receive a frame of track #%d: %v", d.stream.Index(), err),
		}
	}
	defer p.frame.Unref()

	unit, err := d.converter.Convert(p.frame)
	if err != nil {
		return nil, &types.ProducerError{
			Code:    errorCode(err),
			Message: err.Error(),
		}
	}

	timestamp := d.nextTimestamp
	if pts := p.frame.Pts(); pts != noPTS {
		timestamp = toDuration(pts, d.stream.TimeBase().Float64())
	}
	duration := d.frameDuration
	if d.kind == types.EssenceKindAudio {
		duration = audioDuration(unit.FrameCount, unit.SampleRate)
	}
	unit.Timestamp, unit.Duration = timestamp, duration
	d.nextTimestamp = timestamp + duration
	logger.Tracef(ctx, "track #%d: %s unit at %v", d.stream.Index(), unit.Format, timestamp)
	return unit, nil
}

// demux reads the next packet of the container and queues it to its
// track if the track is selected.
func (p *Producer) demux(ctx context.Context) error {
	err := p.input.FormatContext.ReadFrame(p.packet)
	switch {
	case err == nil:
	case errors.Is(err, astiav.ErrEof):
		logger.Debugf(ctx, "input #%d reached the end", p.input.ID)
		p.demuxEOF = true
		return nil
	default:
		return &types.ProducerError{
			Code:    errorCode(err),
			Message: fmt.Sprintf("unable to read a packet: %v", err),
			Fatal:   true,
		}
	}
	defer p.packet.Unref()

	d, ok := p.decoders[p.packet.StreamIndex()]
	if !ok {
		return nil
	}
	packet, err := clonePacket(p.packet)
	if err != nil {
		return fmt.Errorf("unable to reference the packet: %w", err)
	}
	droppedBefore := d.queue.dropped
	d.queue.push(packet)
	if d.queue.dropped != droppedBefore {
		logger.Debugf(ctx, "track #%d queue overflow, dropped %d packets so far", d.stream.Index(), d.queue.dropped)
	}
	return nil
}

func (p *Producer) Seek(ctx context.Context, position time.Duration) error {
	return xsync.DoA2R1(ctx, &p.locker, p.seekLocked, ctx, position)
}

func (p *Producer) seekLocked(ctx context.Context, position time.Duration) error {
	if p.isClosed {
		return types.ErrClosed
	}
	if !p.canSeek {
		return types.ErrNotSeekable
	}

	ts := fromDuration(position, 1/float64(astiav.TimeBase))
	if err := p.input.FormatContext.SeekFrame(-1, ts, astiav.NewSeekFlags(astiav.SeekFlagBackward)); err != nil {
		return fmt.Errorf("unable to seek to %v: %w", position, err)
	}
	p.demuxEOF = false

	var mErr *multierror.Error
	for trackID, d := range p.decoders {
		if err := d.reset(ctx, position); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to reset the decoder of track #%d: %w", trackID, err))
		}
	}
	return mErr.ErrorOrNil()
}

func (p *Producer) Close() error {
	ctx := context.Background()
	return xsync.DoR1(ctx, &p.locker, func() error {
		if p.isClosed {
			return nil
		}
		p.isClosed = true
		for _, d := range p.decoders {
			d.Close()
		}
		p.decoders = nil
		logger.Debugf(ctx, "closing input #%d", p.input.ID)
		return p.input.Closer.Close()
	})
}

func errorCode(err error) int {
	var avErr astiav.Error
	if errors.As(err, &avErr) {
		return int(avErr)
	}
	return mediareader.ErrorCodeGeneric
}
