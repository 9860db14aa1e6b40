package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mediareader/pkg/sampleencoder"
	"github.com/xaionaro-go/xpath"
)

func snapshot(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg, err := getConfig(cmd)
	assertNoError(ctx, err)
	flags := cmd.Flags()
	position, err := flags.GetDuration("seek")
	assertNoError(ctx, err)
	compressionString, err := flags.GetString("compression")
	assertNoError(ctx, err)

	for flagName, value := range map[string]*int{
		"quality":    &cfg.Encoder.Quality,
		"max-width":  &cfg.Encoder.MaxWidth,
		"max-height": &cfg.Encoder.MaxHeight,
	} {
		assertNoError(ctx, overrideFlag(flags, flagName, flags.GetInt, value))
	}
	assertNoError(ctx, overrideFlag(flags, "lossless", flags.GetBool, &cfg.Encoder.Lossless))

	outputPath, err := xpath.Expand(args[1])
	assertNoError(ctx, err)
	var compression sampleencoder.Compression
	if compressionString != "" {
		compression, err = sampleencoder.ParseCompression(compressionString)
	} else {
		compression, err = sampleencoder.CompressionFromPath(outputPath)
	}
	assertNoError(ctx, err)

	r, err := openReader(ctx, cfg, args[0])
	assertNoError(ctx, err)
	defer r.Close()

	sample, err := readVideoSample(ctx, r, position)
	assertNoError(ctx, err)
	defer sample.Release()
	logger.Debugf(ctx, "got %v", sample)

	enc := sampleencoder.New(sampleencoder.Config{
		Quality:  cfg.Encoder.Quality,
		Lossless: cfg.Encoder.Lossless,
		MaxSize:  cfg.Encoder.MaxSize(),
	})
	assertNoError(ctx, enc.SaveToFile(ctx, sample, outputPath, compression))

	stat, err := os.Stat(outputPath)
	assertNoError(ctx, err)
	fmt.Fprintf(cmd.OutOrStdout(), "saved the frame at %v as %s to '%s' (%s)\n",
		sample.Timestamp(), compression, outputPath, humanize.Bytes(uint64(stat.Size())))
}
