package nullcapture

import (
	"fmt"

	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

const barWidth = 16

// barX is where the white bar of the frame number "index" starts.
func barX(width int, index uint64) int {
	return int((index * 4) % uint64(width))
}

func inBar(x, start int) bool {
	return x >= start && x < start+barWidth
}

// renderPattern draws a horizontal gray gradient with a white vertical bar
// moving to the right by 4 pixels per frame.
func renderPattern(
	format types.Format,
	width, height int,
	index uint64,
) (*types.Unit, error) {
	strides, sizes, ok := format.PackedPlaneLayout(width, height)
	if !ok {
		return nil, fmt.Errorf("unable to render the pattern in %s", format)
	}
	var total int
	for _, size := range sizes {
		total += size
	}
	planes, err := format.SplitPacked(width, height, make([]byte, total))
	if err != nil {
		return nil, err
	}

	start := barX(width, index)
	luma := func(x int) byte {
		if inBar(x, start) {
			return 0xff
		}
		return byte(x * 0xff / width)
	}

	switch format {
	case types.FormatNV12, types.FormatI420:
		y := planes[0]
		for row := 0; row < height; row++ {
			line := y.Data[row*strides[0]:]
			for x := 0; x < width; x++ {
				line[x] = luma(x)
			}
		}
		for _, chroma := range planes[1:] {
			for i := range chroma.Data {
				chroma.Data[i] = 0x80
			}
		}
	case types.FormatBGRA8, types.FormatRGBA8:
		data := planes[0].Data
		for row := 0; row < height; row++ {
			line := data[row*strides[0]:]
			for x := 0; x < width; x++ {
				v := luma(x)
				line[4*x+0] = v
				line[4*x+1] = v
				line[4*x+2] = v
				line[4*x+3] = 0xff
			}
		}
	}

	return &types.Unit{
		Format: format,
		Width:  width,
		Height: height,
		Planes: planes,
	}, nil
}

func renderSilence(
	format types.Format,
	channels, sampleRate, frameCount int,
) *types.Unit {
	return &types.Unit{
		Format:     format,
		Channels:   channels,
		SampleRate: sampleRate,
		FrameCount: frameCount,
		Data:       make([]byte, frameCount*channels*format.BytesPerSample()),
	}
}
