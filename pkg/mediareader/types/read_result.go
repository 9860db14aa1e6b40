package types

import (
	"fmt"
)

type ReadResultKind uint

const (
	ReadResultKindUndefined = ReadResultKind(iota)
	ReadResultKindDelivered
	ReadResultKindEndOfStream
	ReadResultKindError
	ReadResultKindCancelled
)

func (k ReadResultKind) String() string {
	switch k {
	case ReadResultKindUndefined:
		return "<undefined>"
	case ReadResultKindDelivered:
		return "delivered"
	case ReadResultKindEndOfStream:
		return "end_of_stream"
	case ReadResultKindError:
		return "error"
	case ReadResultKindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("<unexpected_result_kind_%d>", uint(k))
	}
}

// ReadResult is the outcome of a single read. It is exactly one of
// Delivered, EndOfStream, ReadError or Cancelled; use a type switch:
//
//	switch r := result.(type) {
//	case types.Delivered:
//		use(r.Sample)
//	case types.EndOfStream:
//	case types.ReadError:
//	case types.Cancelled:
//	}
type ReadResult interface {
	ReadResultKind() ReadResultKind
	isReadResult()
}

// Delivered carries a decoded Sample; the receiver owns one reference to it.
type Delivered struct {
	Sample Sample
}

func (Delivered) ReadResultKind() ReadResultKind { return ReadResultKindDelivered }
func (Delivered) isReadResult() {}

func (r Delivered) String() string {
	return fmt.Sprintf("Delivered(%v)", r.Sample)
}

// EndOfStream is reported for drained, deselected and closed streams.
type EndOfStream struct{}

func (EndOfStream) ReadResultKind() ReadResultKind { return ReadResultKindEndOfStream }
func (EndOfStream) isReadResult() {}

func (EndOfStream) String() string {
	return "EndOfStream"
}

// ReadError is a producer or data fault. Fatal is set when the stream
// has become Faulted, in which case every later read returns the same error.
type ReadError struct {
	Code    int
	Message string
	Fatal   bool
}

func (ReadError) ReadResultKind() ReadResultKind { return ReadResultKindError }
func (ReadError) isReadResult() {}

func (r ReadError) String() string {
	return fmt.Sprintf("Error(%d, %q, fatal:%t)", r.Code, r.Message, r.Fatal)
}

// Cancelled is reported when the read was abandoned by its context; the
// stream is not advanced and the read may be retried.
type Cancelled struct {
	Cause error
}

func (Cancelled) ReadResultKind() ReadResultKind { return ReadResultKindCancelled }
func (Cancelled) isReadResult() {}

func (r Cancelled) String() string {
	return fmt.Sprintf("Cancelled(%v)", r.Cause)
}
