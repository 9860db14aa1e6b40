// Package config is the YAML configuration of the mediareader tooling.
package config

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mediareader/pkg/mediareader"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/xpath"
)

type CustomOption struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type LibAV struct {
	CustomOptions    []CustomOption `yaml:"custom_options,omitempty"`
	MaxQueuedPackets int            `yaml:"max_queued_packets,omitempty"`
}

type Encoder struct {
	Quality   int  `yaml:"quality,omitempty"`
	Lossless  bool `yaml:"lossless,omitempty"`
	MaxWidth  int  `yaml:"max_width,omitempty"`
	MaxHeight int  `yaml:"max_height,omitempty"`
}

func (cfg Encoder) MaxSize() image.Point {
	return image.Point{X: cfg.MaxWidth, Y: cfg.MaxHeight}
}

type Presenter struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Brightness float64 `yaml:"brightness,omitempty"`
	Contrast   float64 `yaml:"contrast,omitempty"`
	Background string  `yaml:"background,omitempty"`
}

type NullCapture struct {
	Width       int          `yaml:"width"`
	Height      int          `yaml:"height"`
	FrameRate   int          `yaml:"frame_rate"`
	VideoFormat types.Format `yaml:"video_format"`
}

type Config struct {
	AudioPolicy          types.Policy `yaml:"audio_policy"`
	VideoPolicy          types.Policy `yaml:"video_policy"`
	MaxConsecutiveErrors uint         `yaml:"max_consecutive_errors"`

	LibAV       LibAV       `yaml:"libav"`
	Encoder     Encoder     `yaml:"encoder"`
	Presenter   Presenter   `yaml:"presenter"`
	NullCapture NullCapture `yaml:"null_capture"`
}

func DefaultConfig() Config {
	return Config{
		AudioPolicy: types.NativeOrDefault(),
		VideoPolicy: types.NativeOrDefault(),
		LibAV: LibAV{
			MaxQueuedPackets: 512,
		},
		Encoder: Encoder{
			Quality: 90,
		},
		Presenter: Presenter{
			Width:      640,
			Height:     360,
			Background: "black",
		},
		NullCapture: NullCapture{
			Width:       320,
			Height:      240,
			FrameRate:   30,
			VideoFormat: types.FormatNV12,
		},
	}
}

// ReaderOptions returns the Reader creation options described by the config.
func (cfg Config) ReaderOptions() mediareader.Options {
	return mediareader.Options{
		mediareader.OptionMaxConsecutiveErrors(cfg.MaxConsecutiveErrors),
	}
}

// ReadConfigFromPath reads the file over the values already in cfg.
func ReadConfigFromPath(
	cfgPath string,
	cfg *Config,
) error {
	cfgPath, err := xpath.Expand(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to expand path '%s': %w", cfgPath, err)
	}

	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to read file '%s': %w", cfgPath, err)
	}

	_, err = cfg.Read(b)
	return err
}

func WriteConfigToPath(
	ctx context.Context,
	cfgPath string,
	cfg Config,
) error {
	cfgPath, err := xpath.Expand(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to expand path '%s': %w", cfgPath, err)
	}

	pathNew := cfgPath + ".new"
	f, err := os.OpenFile(pathNew, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0640)
	if err != nil {
		return fmt.Errorf("unable to open the data file '%s': %w", pathNew, err)
	}
	_, err = cfg.WriteTo(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("unable to write data to file '%s': %w", pathNew, err)
	}
	err = os.Rename(pathNew, cfgPath)
	if err != nil {
		return fmt.Errorf("cannot move '%s' to '%s': %w", pathNew, cfgPath, err)
	}
	logger.Infof(ctx, "wrote the config to '%s'", cfgPath)
	return nil
}
