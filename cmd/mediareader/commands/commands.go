package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mediareader/pkg/astiavlogger"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/config"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/observability"
)

var (
	// Access these variables only from a main package:

	Root = &cobra.Command{
		Use:   "mediareader",
		Short: "reads decoded samples from media files and capture devices",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			l := logger.FromCtx(ctx).WithLevel(LoggerLevel)
			ctx = logger.CtxWithLogger(ctx, l)
			cmd.SetContext(ctx)
			logger.Debugf(ctx, "log-level: %v", LoggerLevel)

			astiav.SetLogLevel(astiavlogger.LevelToAstiav(LoggerLevel))
			astiav.SetLogCallback(astiavlogger.Callback(l))

			metricsAddr, err := cmd.Flags().GetString("metrics-listen")
			assertNoError(ctx, err)
			if metricsAddr != "" {
				serveMetrics(ctx, metricsAddr)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			logger.Debug(ctx, "end")
		},
	}

	Probe = &cobra.Command{
		Use:   "probe <source>",
		Short: "prints the streams of a source and the negotiated formats",
		Args:  cobra.ExactArgs(1),
		Run:   probe,
	}

	Read = &cobra.Command{
		Use:   "read <source>",
		Short: "reads samples and prints one line per read result",
		Args:  cobra.ExactArgs(1),
		Run:   read,
	}

	Snapshot = &cobra.Command{
		Use:   "snapshot <source> <output file>",
		Short: "saves a video frame as an image",
		Args:  cobra.ExactArgs(2),
		Run:   snapshot,
	}

	Present = &cobra.Command{
		Use:   "present <source> <output file>",
		Short: "renders a video frame onto a surface of the configured size and saves the surface",
		Args:  cobra.ExactArgs(2),
		Run:   present,
	}

	ConfigCmd = &cobra.Command{
		Use:   "config",
		Short: "prints the effective configuration",
		Args:  cobra.ExactArgs(0),
		Run:   configPrint,
	}

	LoggerLevel = logger.LevelWarning
)

func init() {
	Root.AddCommand(Probe)
	Root.AddCommand(Read)
	Root.AddCommand(Snapshot)
	Root.AddCommand(Present)
	Root.AddCommand(ConfigCmd)

	Root.PersistentFlags().Var(&LoggerLevel, "log-level", "")
	Root.PersistentFlags().String("config", "", "the path to a YAML config file")
	Root.PersistentFlags().String("metrics-listen", "", "address to serve Prometheus metrics at (/metrics)")
	Root.PersistentFlags().String("audio", "", "audio policy: native, deselected, pcm, pcm_f32le; append ',optional' to not fail on unsupported formats")
	Root.PersistentFlags().String("video", "", "video policy: native, deselected, nv12, i420, bgra8, rgba8; append ',optional' to not fail on unsupported formats")
	Root.PersistentFlags().Uint("max-consecutive-errors", 0, "treat the N-th consecutive read error of a stream as fatal (0: never)")

	Probe.Flags().Bool("spew", false, "dump the tracks with all the details")

	Read.Flags().Int("count", 0, "the amount of samples to read per stream (0: until the end)")
	Read.Flags().Duration("seek", 0, "seek to this position before reading")

	Snapshot.Flags().Duration("seek", 0, "seek to this position before reading")
	Snapshot.Flags().String("compression", "", "jpeg, png, gif, bmp, tiff or webp; guessed from the file extension by default")
	Snapshot.Flags().Int("quality", 0, "jpeg/webp quality in range [1, 100]")
	Snapshot.Flags().Bool("lossless", false, "lossless webp")
	Snapshot.Flags().Int("max-width", 0, "downscale wider frames")
	Snapshot.Flags().Int("max-height", 0, "downscale higher frames")

	Present.Flags().Duration("seek", 0, "seek to this position before reading")
	Present.Flags().Int("width", 0, "the surface width")
	Present.Flags().Int("height", 0, "the surface height")
	Present.Flags().Float64("brightness", 0, "brightness change in range [-1, 1]")
	Present.Flags().Float64("contrast", 0, "contrast change in range [-1, 1]")
	Present.Flags().String("background", "", "the color of the uncovered part of the surface: a name or #rrggbb[aa]")
}

func assertNoError(ctx context.Context, err error) {
	if err != nil {
		logger.Panic(ctx, err)
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	observability.Go(ctx, func(ctx context.Context) {
		logger.Infof(ctx, "starting to listen for metrics requests at '%s'", addr)
		logger.Error(ctx, http.ListenAndServe(addr, mux))
	})
}

// getConfig returns the config file values overridden by the explicitly set flags.
func getConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.DefaultConfig()
	flags := cmd.Flags()

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return cfg, err
	}
	if cfgPath != "" {
		if err := config.ReadConfigFromPath(cfgPath, &cfg); err != nil {
			return cfg, err
		}
	}

	for flagName, policy := range map[string]*types.Policy{
		"audio": &cfg.AudioPolicy,
		"video": &cfg.VideoPolicy,
	} {
		if !flags.Changed(flagName) {
			continue
		}
		value, err := flags.GetString(flagName)
		if err != nil {
			return cfg, err
		}
		*policy, err = types.ParsePolicy(value)
		if err != nil {
			return cfg, fmt.Errorf("invalid --%s value '%s': %w", flagName, value, err)
		}
	}
	if err := overrideFlag(flags, "max-consecutive-errors", flags.GetUint, &cfg.MaxConsecutiveErrors); err != nil {
		return cfg, err
	}
	return cfg, nil
}
