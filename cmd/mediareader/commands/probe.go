package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func probe(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg, err := getConfig(cmd)
	assertNoError(ctx, err)
	isSpew, err := cmd.Flags().GetBool("spew")
	assertNoError(ctx, err)

	r, err := openReader(ctx, cfg, args[0])
	assertNoError(ctx, err)
	defer r.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "source:   %s\n", r.SourceID())
	fmt.Fprintf(out, "opened:   %s\n", humanize.Time(r.CreatedAt()))
	fmt.Fprintf(out, "seekable: %t\n", r.CanSeek())
	if duration, ok := r.Duration(); ok {
		fmt.Fprintf(out, "duration: %v (%s ticks of 100ns)\n", duration, humanize.Comma(int64(duration/100)))
	} else {
		fmt.Fprintf(out, "duration: unknown\n")
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "#\tKIND\tSELECTED\tFORMAT\tNATIVE\tSUPPORTED\n")
	for _, s := range r.Streams() {
		format, _ := s.Format()
		track := s.Track()
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\t%s\n", s.Index(), s.Kind(), s.IsSelected(), format, track.NativeFormat, track.SupportedFormats)
	}
	assertNoError(ctx, w.Flush())

	if isSpew {
		for _, s := range r.Streams() {
			spew.Fdump(out, s.Track())
		}
	}
}
