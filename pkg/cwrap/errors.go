package cwrap

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the path is missing or not a regular file.
	ErrNotFound = errors.New("file doesn't exist or is not a regular file")
	// ErrUnknownCompression indicates detection finished without a match.
	ErrUnknownCompression = errors.New("cannot detect compression type")
	// ErrDetectionEngine indicates the content sniffer itself failed.
	ErrDetectionEngine = errors.New("mime detection failed")
	// ErrIO wraps operating system read, write and close failures.
	ErrIO = errors.New("i/o error")
	// ErrBadArgument indicates an operation that does not match the stream's
	// mode or state.
	ErrBadArgument = errors.New("bad argument")
	// ErrMemory indicates formatted output could not be rendered.
	ErrMemory = errors.New("cannot render formatted output")
)

// CodecError is a failure reported by one of the compression libraries.
// Msg is the human readable status, Err the library error when there is one.
type CodecError struct {
	Codec Kind
	Op    string
	Msg   string
	Err   error
}

func (e *CodecError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Codec, e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Codec, e.Op, e.Msg, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func codecError(codec Kind, op, msg string, err error) error {
	return &CodecError{Codec: codec, Op: op, Msg: msg, Err: err}
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
