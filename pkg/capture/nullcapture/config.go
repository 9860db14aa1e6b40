package nullcapture

import (
	"time"

	"github.com/xaionaro-go/mediareader/pkg/clock"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

type Config struct {
	Width       int
	Height      int
	FrameRate   int
	VideoFormat types.Format

	SampleRate int
	Channels   int
	AudioChunk time.Duration

	// UnitLimit ends every track after this many units; zero means never.
	UnitLimit uint64

	// Clock paces the produced units; nil means the process clock.
	Clock clock.Clock
}

var DefaultConfig = Config{
	Width:       320,
	Height:      240,
	FrameRate:   30,
	VideoFormat: types.FormatNV12,
	SampleRate:  48000,
	Channels:    2,
	AudioChunk:  20 * time.Millisecond,
}

func (cfg Config) withDefaults() Config {
	if cfg.Width <= 0 {
		cfg.Width = DefaultConfig.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultConfig.Height
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultConfig.FrameRate
	}
	if cfg.VideoFormat == types.FormatUndefined {
		cfg.VideoFormat = DefaultConfig.VideoFormat
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig.SampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultConfig.Channels
	}
	if cfg.AudioChunk <= 0 {
		cfg.AudioChunk = DefaultConfig.AudioChunk
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Get()
	}
	return cfg
}

func (cfg Config) frameInterval() time.Duration {
	return time.Second / time.Duration(cfg.FrameRate)
}

func (cfg Config) audioFrameCount() int {
	return int(int64(cfg.SampleRate) * int64(cfg.AudioChunk) / int64(time.Second))
}
