package commands

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mediareader/pkg/colorx"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/mediareader/pkg/presenter"
	"github.com/xaionaro-go/mediareader/pkg/sampleencoder"
	"github.com/xaionaro-go/xpath"
)

func present(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg, err := getConfig(cmd)
	assertNoError(ctx, err)
	flags := cmd.Flags()
	position, err := flags.GetDuration("seek")
	assertNoError(ctx, err)

	for flagName, value := range map[string]*int{
		"width":  &cfg.Presenter.Width,
		"height": &cfg.Presenter.Height,
	} {
		assertNoError(ctx, overrideFlag(flags, flagName, flags.GetInt, value))
	}
	for flagName, value := range map[string]*float64{
		"brightness": &cfg.Presenter.Brightness,
		"contrast":   &cfg.Presenter.Contrast,
	} {
		assertNoError(ctx, overrideFlag(flags, flagName, flags.GetFloat64, value))
	}
	assertNoError(ctx, overrideFlag(flags, "background", flags.GetString, &cfg.Presenter.Background))
	background, err := colorx.Parse(cfg.Presenter.Background)
	assertNoError(ctx, err)
	if cfg.Presenter.Width <= 0 || cfg.Presenter.Height <= 0 {
		assertNoError(ctx, fmt.Errorf("invalid surface size %dx%d", cfg.Presenter.Width, cfg.Presenter.Height))
	}

	outputPath, err := xpath.Expand(args[1])
	assertNoError(ctx, err)
	compression, err := sampleencoder.CompressionFromPath(outputPath)
	assertNoError(ctx, err)

	r, err := openReader(ctx, cfg, args[0])
	assertNoError(ctx, err)
	defer r.Close()

	sample, err := readVideoSample(ctx, r, position)
	assertNoError(ctx, err)
	defer sample.Release()

	var filters []presenter.Filter
	colorFilter := &presenter.FilterColor{
		Brightness: cfg.Presenter.Brightness,
		Contrast:   cfg.Presenter.Contrast,
	}
	if !colorFilter.IsNoop() {
		filters = append(filters, colorFilter)
	}

	surface := image.NewRGBA(image.Rect(0, 0, cfg.Presenter.Width, cfg.Presenter.Height))
	p := presenter.New(filters...)
	p.Background = background
	assertNoError(ctx, p.Present(ctx, sample, surface))

	// the surface itself goes through the encoder as an RGBA8 sample
	planes, err := types.FormatRGBA8.SplitPacked(cfg.Presenter.Width, cfg.Presenter.Height, surface.Pix)
	assertNoError(ctx, err)
	surfaceSample, err := types.NewSample(types.EssenceKindVideo, &types.Unit{
		Format:    types.FormatRGBA8,
		Timestamp: sample.Timestamp(),
		Width:     cfg.Presenter.Width,
		Height:    cfg.Presenter.Height,
		Planes:    planes,
	})
	assertNoError(ctx, err)
	defer surfaceSample.Release()

	enc := sampleencoder.New(sampleencoder.Config{Quality: cfg.Encoder.Quality, Lossless: cfg.Encoder.Lossless})
	assertNoError(ctx, enc.SaveToFile(ctx, surfaceSample, outputPath, compression))
	fmt.Fprintf(cmd.OutOrStdout(), "presented the frame at %v onto a %dx%d surface saved to '%s'\n",
		sample.Timestamp(), cfg.Presenter.Width, cfg.Presenter.Height, outputPath)
}
