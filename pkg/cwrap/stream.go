// Package cwrap provides one read/write stream over uncompressed, gzip,
// bzip2 and xz files, optionally counting and checksumming what is written.
package cwrap

import (
	"fmt"
	"hash"
	"io"
	"os"
	"regexp"

	"github.com/eunmann/mdstream/pkg/checksum"
	"github.com/eunmann/mdstream/pkg/logging"
)

// handle is the codec-specific part of an open stream. Exactly one
// implementation exists per resolved Kind.
//
// read fills p as far as the input allows. It returns (n, nil) for a short
// read that hit the end of input and (0, io.EOF) once nothing is left.
type handle interface {
	read(p []byte) (int, error)
	write(p []byte) (int, error)
	close() error
}

// Stream is an open file in one compression format and one direction.
// A Stream is not safe for concurrent use.
type Stream struct {
	path   string
	kind   Kind
	mode   Mode
	h      handle
	stats  *ContentStats
	hasher hash.Hash
	eof    bool
	closed bool
}

// Open opens path for reading or writing in the given compression format.
//
// AutoDetect resolves the format with DetectCompression first. Opening for
// writing with AutoDetect or Unknown, or with an invalid mode, is a
// programming error and panics before the filesystem is touched.
//
// When stats is non-nil every written byte is counted into it and, unless
// its ChecksumType is checksum.None, hashed; the digest is stored on Close.
func Open(path string, mode Mode, kind Kind, stats *ContentStats) (*Stream, error) {
	return open(target{path: path, mode: mode}, kind, stats)
}

// Create opens a new file for writing like Open in Write mode, but fails
// with an ErrIO wrapping fs.ErrExist instead of truncating when path is
// already taken.
func Create(path string, kind Kind, stats *ContentStats) (*Stream, error) {
	return open(target{path: path, mode: Write, exclusive: true}, kind, stats)
}

func open(t target, kind Kind, stats *ContentStats) (*Stream, error) {
	if t.mode != Read && t.mode != Write {
		panic(fmt.Sprintf("cwrap: invalid open mode %d", int(t.mode)))
	}
	if t.mode == Write && (kind == AutoDetect || kind == Unknown) {
		panic(fmt.Sprintf("cwrap: compression %s cannot be used for writing", kind))
	}

	resolved := kind
	if kind == AutoDetect {
		var err error
		resolved, err = DetectCompression(t.path)
		if err != nil {
			return nil, err
		}
	}
	if resolved == Unknown {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, t.path)
	}

	// Before the file: a checksum failure must not leave a file behind.
	var hasher hash.Hash
	if stats != nil && stats.ChecksumType != checksum.None {
		var err error
		hasher, err = checksum.New(stats.ChecksumType)
		if err != nil {
			return nil, fmt.Errorf("create checksum context: %w", err)
		}
	}

	h, err := openHandle(t, resolved)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		path:   t.path,
		kind:   resolved,
		mode:   t.mode,
		h:      h,
		stats:  stats,
		hasher: hasher,
	}

	logging.L().Debug().
		Str("path", t.path).
		Stringer("mode", t.mode).
		Stringer("compression", resolved).
		Bool("exclusive", t.exclusive).
		Msg("stream opened")
	return s, nil
}

func openHandle(t target, kind Kind) (handle, error) {
	switch kind {
	case None:
		return openRaw(t)
	case Gzip:
		return openGzip(t)
	case Bzip2:
		return openBzip2(t)
	case Xz:
		return openXz(t)
	default:
		return nil, fmt.Errorf("%w: bad compressed file type %s", ErrBadArgument, kind)
	}
}

// target names the raw file underneath every codec.
type target struct {
	path      string
	mode      Mode
	exclusive bool
}

func (t target) open() (*os.File, error) {
	if t.mode == Write {
		flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if t.exclusive {
			flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
		}
		f, err := os.OpenFile(t.path, flag, 0o644)
		if err != nil {
			return nil, ioError("open", err)
		}
		return f, nil
	}

	f, err := os.Open(t.path)
	if err != nil {
		return nil, ioError("open", err)
	}
	adviseSequential(f)
	return f, nil
}

// Path returns the path the stream was opened with.
func (s *Stream) Path() string { return s.path }

// Kind returns the resolved compression kind; never AutoDetect or Unknown.
func (s *Stream) Kind() Kind { return s.kind }

// Mode returns the direction the stream was opened in.
func (s *Stream) Mode() Mode { return s.mode }

// Read decompresses into p. It fills p completely unless the end of the
// input is reached, in which case the remaining bytes are returned with a nil
// error and every later call returns (0, io.EOF). Reading never touches the
// attached ContentStats.
func (s *Stream) Read(p []byte) (int, error) {
	if s.mode != Read {
		return 0, fmt.Errorf("%w: file is not opened in read mode", ErrBadArgument)
	}
	if s.closed {
		return 0, fmt.Errorf("%w: file is closed", ErrBadArgument)
	}
	if s.eof {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := s.h.read(p)
	if err == io.EOF {
		s.eof = true
		return 0, io.EOF
	}
	return n, err
}

// Write compresses p into the file. The attached ContentStats is updated
// before the data reaches the codec, zero-length writes included.
func (s *Stream) Write(p []byte) (int, error) {
	if s.mode != Write {
		return 0, fmt.Errorf("%w: file is not opened in write mode", ErrBadArgument)
	}
	if s.closed {
		return 0, fmt.Errorf("%w: file is closed", ErrBadArgument)
	}

	if s.stats != nil {
		s.stats.Size += uint64(len(p))
		if s.hasher != nil {
			if _, err := s.hasher.Write(p); err != nil {
				return 0, fmt.Errorf("update checksum: %w", err)
			}
		}
	}

	if len(p) == 0 {
		return 0, nil
	}
	return s.h.write(p)
}

// WriteString writes the bytes of str.
func (s *Stream) WriteString(str string) (int, error) {
	n, err := s.Write([]byte(str))
	if err != nil {
		return n, err
	}
	if n != len(str) {
		return n, ioError("write", io.ErrShortWrite)
	}
	return n, nil
}

// fmt reports argument mismatches inline instead of failing.
var badFormat = regexp.MustCompile(`%!([a-zA-Z]\(|\(EXTRA |\(NOVERB\)|\(BADWIDTH\)|\(BADPREC\)|\(BADINDEX\))`)

// Printf renders format with args and writes the result. A template that
// does not match its arguments fails with ErrMemory and writes nothing.
func (s *Stream) Printf(format string, args ...any) (int, error) {
	if s.mode != Write {
		return 0, fmt.Errorf("%w: file is not opened in write mode", ErrBadArgument)
	}

	out := fmt.Sprintf(format, args...)
	if renderFailed(out, format, args) {
		return 0, fmt.Errorf("%w: %q", ErrMemory, out)
	}
	return s.WriteString(out)
}

// renderFailed reports whether fmt added error markers to out. Markers that
// come verbatim from the template or from an argument's own text are data.
func renderFailed(out, format string, args []any) bool {
	found := len(badFormat.FindAllStringIndex(out, -1))
	if found == 0 {
		return false
	}
	carried := len(badFormat.FindAllStringIndex(format, -1))
	for _, arg := range args {
		carried += len(badFormat.FindAllStringIndex(fmt.Sprint(arg), -1))
	}
	return found > carried
}

// Close finalizes the codec and releases the file. For write streams this
// flushes all pending compressed output. The checksum of the attached
// ContentStats is stored afterwards whether or not finalization failed.
// Closing a nil or already closed stream is a no-op.
func (s *Stream) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	err := s.h.close()

	if s.stats != nil {
		if s.hasher != nil {
			s.stats.Checksum = s.hasher.Sum(nil)
		} else {
			s.stats.Checksum = nil
		}
	}

	log := logging.L()
	if err != nil {
		log.Debug().Err(err).Str("path", s.path).Stringer("compression", s.kind).Msg("stream closed with error")
	} else {
		log.Debug().Str("path", s.path).Stringer("compression", s.kind).Msg("stream closed")
	}
	return err
}

// fill reads from src until p is full or src is exhausted, following the
// handle.read contract.
func fill(src io.Reader, p []byte) (int, error) {
	n := 0
	empty := 0
	for n < len(p) {
		m, err := src.Read(p[n:])
		n += m
		if err != nil {
			if err == io.EOF {
				if n == 0 {
					return 0, io.EOF
				}
				return n, nil
			}
			return n, err
		}
		if m == 0 {
			empty++
			if empty >= 100 {
				return n, io.ErrNoProgress
			}
			continue
		}
		empty = 0
	}
	return n, nil
}
