package types

import (
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable    = errors.New("source unavailable")
	ErrUnsupportedContainer = errors.New("unsupported container")
	ErrDeviceNotReady       = errors.New("capture device is not ready")
	ErrConcurrentRead       = errors.New("concurrent read violation: a read is already in flight on this stream")
	ErrNotSeekable          = errors.New("the source is not seekable")
	ErrSeekInProgress       = errors.New("the reader is seeking, retry the read after Seek returns")
	ErrClosed               = errors.New("the reader is closed")
)

// ErrUnsupportedFormat is returned by the negotiator when the requested
// format is not among the formats the producer can decode the track to.
type ErrUnsupportedFormat struct {
	Kind      EssenceKind
	Requested Format
	Available Formats
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("%s format %s is not supported, available formats: %s", e.Kind, e.Requested, e.Available)
}

// ErrNegotiationFailed aborts a Reader creation when a required track
// cannot be matched to an acceptable format.
type ErrNegotiationFailed struct {
	TrackIndex int
	Kind       EssenceKind
	Err        error
}

func (e ErrNegotiationFailed) Error() string {
	return fmt.Sprintf("negotiation failed for %s track #%d: %v", e.Kind, e.TrackIndex, e.Err)
}

func (e ErrNegotiationFailed) Unwrap() error {
	return e.Err
}

// ProducerError is a per-read failure reported by a Producer. Code is the
// producer's native error code.
type ProducerError struct {
	Code    int
	Message string
	Fatal   bool
}

func (e *ProducerError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("fatal producer error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("producer error %d: %s", e.Code, e.Message)
}
