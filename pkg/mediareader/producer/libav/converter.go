package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

type converter interface {
	Convert(frame *astiav.Frame) (*types.Unit, error)
	Close()
}

type scaleKey struct {
	Width       int
	Height      int
	PixelFormat astiav.PixelFormat
}

type videoConverter struct {
	output       types.Format
	outputPixFmt astiav.PixelFormat
	scaleContext *astiav.SoftwareScaleContext
	scaleKey     scaleKey
	scaledFrame  *astiav.Frame
}

var _ converter = (*videoConverter)(nil)

func newVideoConverter(output types.Format) (*videoConverter, error) {
	pixFmt, err := pixelFormatFromFormat(output)
	if err != nil {
		return nil, err
	}
	return &videoConverter{
		output:       output,
		outputPixFmt: pixFmt,
		scaledFrame:  astiav.AllocFrame(),
	}, nil
}

func (c *videoConverter) ensureScaleContext(frame *astiav.Frame) error {
	key := scaleKey{
		Width:       frame.Width(),
		Height:      frame.Height(),
		PixelFormat: frame.PixelFormat(),
	}
	if c.scaleContext != nil && c.scaleKey == key {
		return nil
	}
	if c.scaleContext != nil {
		c.scaleContext.Free()
		c.scaleContext = nil
	}

	scaleContext, err := astiav.CreateSoftwareScaleContext(
		key.Width, key.Height, key.PixelFormat,
		key.Width, key.Height, c.outputPixFmt,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return fmt.Errorf("unable to create a scale context %s -> %s: %w", key.PixelFormat.Name(), c.outputPixFmt.Name(), err)
	}
	c.scaleContext, c.scaleKey = scaleContext, key
	return nil
}

func (c *videoConverter) Convert(frame *astiav.Frame) (*types.Unit, error) {
	src := frame
	if frame.PixelFormat() != c.outputPixFmt {
		if err := c.ensureScaleContext(frame); err != nil {
			return nil, err
		}
		c.scaledFrame.Unref()
		c.scaledFrame.SetWidth(frame.Width())
		c.scaledFrame.SetHeight(frame.Height())
		c.scaledFrame.SetPixelFormat(c.outputPixFmt)
		if err := c.scaledFrame.AllocBuffer(1); err != nil {
			return nil, fmt.Errorf("unable to allocate a frame buffer: %w", err)
		}
		if err := c.scaleContext.ScaleFrame(frame, c.scaledFrame); err != nil {
			return nil, fmt.Errorf("unable to convert the frame to %s: %w", c.output, err)
		}
		src = c.scaledFrame
	}

	data, err := src.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("unable to get the frame data: %w", err)
	}
	planes, err := c.output.SplitPacked(src.Width(), src.Height(), data)
	if err != nil {
		return nil, err
	}
	return &types.Unit{
		Format: c.output,
		Width:  src.Width(),
		Height: src.Height(),
		Planes: planes,
	}, nil
}

func (c *videoConverter) Close() {
	if c.scaleContext != nil {
		c.scaleContext.Free()
		c.scaleContext = nil
	}
	if c.scaledFrame != nil {
		c.scaledFrame.Free()
		c.scaledFrame = nil
	}
}

type audioConverter struct {
	output          types.Format
	outputSampleFmt astiav.SampleFormat
	resampleContext *astiav.SoftwareResampleContext
	resampledFrame  *astiav.Frame
}

var _ converter = (*audioConverter)(nil)

func newAudioConverter(output types.Format) (*audioConverter, error) {
	sampleFmt, err := sampleFormatFromFormat(output)
	if err != nil {
		return nil, err
	}
	resampleContext := astiav.AllocSoftwareResampleContext()
	if resampleContext == nil {
		return nil, fmt.Errorf("unable to allocate a resample context")
	}
	return &audioConverter{
		output:          output,
		outputSampleFmt: sampleFmt,
		resampleContext: resampleContext,
		resampledFrame:  astiav.AllocFrame(),
	}, nil
}

func (c *audioConverter) Convert(frame *astiav.Frame) (*types.Unit, error) {
	src := frame
	if frame.SampleFormat() != c.outputSampleFmt {
		c.resampledFrame.Unref()
		c.resampledFrame.SetChannelLayout(frame.ChannelLayout())
		c.resampledFrame.SetSampleRate(frame.SampleRate())
		c.resampledFrame.SetSampleFormat(c.outputSampleFmt)
		if err := c.resampleContext.ConvertFrame(frame, c.resampledFrame); err != nil {
			return nil, fmt.Errorf("unable to convert the audio frame to %s: %w", c.output, err)
		}
		src = c.resampledFrame
	}

	data, err := src.Data().Bytes(1)
	if err != nil {
		return nil, fmt.Errorf("unable to get the audio frame data: %w", err)
	}
	return &types.Unit{
		Format:     c.output,
		Channels:   src.ChannelLayout().Channels(),
		SampleRate: src.SampleRate(),
		FrameCount: src.NbSamples(),
		Data:       data,
	}, nil
}

func (c *audioConverter) Close() {
	if c.resampleContext != nil {
		c.resampleContext.Free()
		c.resampleContext = nil
	}
	if c.resampledFrame != nil {
		c.resampledFrame.Free()
		c.resampledFrame = nil
	}
}
