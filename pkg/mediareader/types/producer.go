package types

import (
	"context"
	"io"
	"time"
)

// TrackInfo describes one essence track as the producer sees it.
type TrackInfo struct {
	// ID is the producer-side identifier passed back to SelectTrack and ReadNext.
	ID               int
	Kind             EssenceKind
	NativeFormat     Format
	SupportedFormats Formats
}

// SourceInfo is the result of a capability probe.
type SourceInfo struct {
	Tracks   []TrackInfo
	CanSeek  bool
	Duration *time.Duration

	// IsOrdered is set when Tracks are in the source's own order; otherwise
	// the reader puts video tracks before audio tracks.
	IsOrdered bool
}

// Producer is the decode/demux/capture engine behind a Reader.
//
// ReadNext may be called concurrently for different tracks, but never
// concurrently for the same track. It returns io.EOF at the end of data
// and *ProducerError (or any other error) on failure.
type Producer interface {
	Probe(ctx context.Context) (*SourceInfo, error)
	SelectTrack(ctx context.Context, trackID int, output Format) error
	ReadNext(ctx context.Context, trackID int) (*Unit, error)
	io.Closer
}

// Seeker is implemented by producers of seekable sources.
type Seeker interface {
	Seek(ctx context.Context, position time.Duration) error
}

// PathOpener opens a Producer for a file path or URL. It is expected to
// wrap ErrSourceUnavailable or ErrUnsupportedContainer on failure.
type PathOpener func(ctx context.Context, path string) (Producer, error)

// CaptureSession is an already initialized live source. The reader never
// initializes it.
type CaptureSession interface {
	ID() string
	IsInitialized() bool
	OpenProducer(ctx context.Context) (Producer, error)
}
