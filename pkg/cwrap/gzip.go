package cwrap

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

const (
	// gzipBufferSize is the buffer between the codec and the file.
	gzipBufferSize = 128 * 1024
	// gzipLevel keeps the library default level and strategy.
	gzipLevel = gzip.DefaultCompression
)

var gzipMagic = []byte{0x1f, 0x8b}

// gzipHandle is a gzip file. Reading content without the gzip magic passes
// it through unchanged, as zlib's gzread does.
type gzipHandle struct {
	f *os.File

	br        *bufio.Reader
	zr        *gzip.Reader
	src       io.Reader
	truncated bool

	bw *bufio.Writer
	zw *gzip.Writer
}

func openGzip(t target) (*gzipHandle, error) {
	f, err := t.open()
	if err != nil {
		return nil, err
	}

	h := &gzipHandle{f: f}
	if t.mode == Read {
		h.br = bufio.NewReaderSize(f, gzipBufferSize)
		return h, nil
	}

	h.bw = bufio.NewWriterSize(f, gzipBufferSize)
	h.zw, err = gzip.NewWriterLevel(h.bw, gzipLevel)
	if err != nil {
		f.Close()
		return nil, codecError(Gzip, "open", "cannot set compression parameters", err)
	}
	return h, nil
}

// probe decides between decompression and pass-through on the first read.
func (h *gzipHandle) probe() error {
	magic, err := h.br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return codecError(Gzip, "read", gzipStatus(err), err)
	}
	if !bytes.Equal(magic, gzipMagic) {
		h.src = h.br
		return nil
	}

	zr, err := gzip.NewReader(h.br)
	if err != nil {
		return codecError(Gzip, "read", gzipStatus(err), err)
	}
	h.zr = zr
	h.src = zr
	return nil
}

func (h *gzipHandle) read(p []byte) (int, error) {
	if h.src == nil {
		if err := h.probe(); err != nil {
			return 0, err
		}
	}

	n, err := fill(h.src, p)
	if err != nil && err != io.EOF {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			h.truncated = true
		}
		return n, codecError(Gzip, "read", gzipStatus(err), err)
	}
	return n, err
}

func (h *gzipHandle) write(p []byte) (int, error) {
	n, err := h.zw.Write(p)
	if err != nil {
		return n, codecError(Gzip, "write", gzipStatus(err), err)
	}
	return n, nil
}

func (h *gzipHandle) close() error {
	if h.zw != nil {
		err := h.zw.Close()
		if err == nil {
			err = h.bw.Flush()
		}
		if cerr := h.f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return codecError(Gzip, "close", gzipCloseStatus(err), err)
		}
		return nil
	}

	var err error
	if h.zr != nil {
		err = h.zr.Close()
	}
	if cerr := h.f.Close(); err == nil {
		err = cerr
	}
	if err == nil && h.truncated {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return codecError(Gzip, "close", gzipCloseStatus(err), err)
	}
	return nil
}

// gzipStatus describes a read or write failure. Operating system failures
// are reported with the OS error text.
func gzipStatus(err error) string {
	var pathErr *fs.PathError
	var corrupt flate.CorruptInputError
	switch {
	case errors.As(err, &pathErr):
		return pathErr.Err.Error()
	case errors.Is(err, gzip.ErrHeader):
		return "invalid gzip header"
	case errors.Is(err, gzip.ErrChecksum):
		return "data integrity error in the compressed stream"
	case errors.As(err, &corrupt):
		return "compressed data is corrupt"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "unexpected end of compressed stream"
	default:
		return "gzip error"
	}
}

// gzipCloseStatus maps a close failure onto the status table of gzclose.
func gzipCloseStatus(err error) string {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "last read ended in the middle of a stream"
	case errors.As(err, &pathErr), errors.Is(err, os.ErrClosed):
		return "file operation error"
	case errors.Is(err, gzip.ErrHeader), errors.Is(err, gzip.ErrChecksum):
		return "file is not valid"
	default:
		return "error"
	}
}
