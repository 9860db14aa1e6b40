package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mediareader/pkg/mediareader"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/observability"
)

type readStats struct {
	Delivered uint64
	Errors    uint64
	Bytes     uint64
}

func read(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg, err := getConfig(cmd)
	assertNoError(ctx, err)
	count, err := cmd.Flags().GetInt("count")
	assertNoError(ctx, err)
	position, err := cmd.Flags().GetDuration("seek")
	assertNoError(ctx, err)

	r, err := openReader(ctx, cfg, args[0])
	assertNoError(ctx, err)
	defer r.Close()

	if position > 0 {
		assertNoError(ctx, r.Seek(ctx, position))
	}

	out := cmd.OutOrStdout()
	var (
		outLocker sync.Mutex
		wg        sync.WaitGroup
	)
	for _, s := range r.Streams() {
		if !s.IsSelected() {
			continue
		}
		wg.Add(1)
		observability.Go(ctx, func(ctx context.Context) {
			defer wg.Done()
			stats := readStream(ctx, s, count, func(line string) {
				outLocker.Lock()
				defer outLocker.Unlock()
				fmt.Fprintln(out, line)
			})
			outLocker.Lock()
			defer outLocker.Unlock()
			fmt.Fprintf(out, "stream #%d (%s): %s samples, %d errors, %s\n",
				s.Index(), s.Kind(), humanize.Comma(int64(stats.Delivered)), stats.Errors, humanize.Bytes(stats.Bytes))
		})
	}
	wg.Wait()
}

func readStream(
	ctx context.Context,
	s *mediareader.Stream,
	count int,
	emit func(string),
) readStats {
	var stats readStats
	for count <= 0 || stats.Delivered < uint64(count) {
		result, err := s.Read(ctx)
		if err != nil {
			logger.Errorf(ctx, "unable to read stream #%d: %v", s.Index(), err)
			return stats
		}
		switch result := result.(type) {
		case types.Delivered:
			stats.Delivered++
			stats.Bytes += sampleSize(result.Sample)
			emit(fmt.Sprintf("#%d %v", s.Index(), result.Sample))
			result.Sample.Release()
		case types.ReadError:
			stats.Errors++
			emit(fmt.Sprintf("#%d %s", s.Index(), result))
			if result.Fatal {
				return stats
			}
		case types.EndOfStream, types.Cancelled:
			emit(fmt.Sprintf("#%d %s", s.Index(), result))
			return stats
		}
	}
	return stats
}

func sampleSize(sample types.Sample) uint64 {
	switch sample := sample.(type) {
	case *types.Sample2D:
		var size int
		for _, plane := range sample.Planes() {
			size += len(plane.Data)
		}
		return uint64(size)
	case *types.SampleAudio:
		return uint64(len(sample.Data()))
	}
	return 0
}

