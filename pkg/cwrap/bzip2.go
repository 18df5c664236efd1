package cwrap

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/dsnet/compress/bzip2"
)

// bzip2Level trades speed for ratio at the usual block size.
const bzip2Level = 5

// bzip2Handle is a bzip2 file. Concatenated streams are read as one.
type bzip2Handle struct {
	f *os.File

	zr *bzip2.Reader

	bw *bufio.Writer
	zw *bzip2.Writer
}

func openBzip2(t target) (*bzip2Handle, error) {
	f, err := t.open()
	if err != nil {
		return nil, err
	}

	h := &bzip2Handle{f: f}
	if t.mode == Read {
		h.zr, err = bzip2.NewReader(bufio.NewReader(f), nil)
		if err != nil {
			f.Close()
			return nil, codecError(Bzip2, "open", bzip2Status(err), err)
		}
		return h, nil
	}

	h.bw = bufio.NewWriter(f)
	h.zw, err = bzip2.NewWriter(h.bw, &bzip2.WriterConfig{Level: bzip2Level})
	if err != nil {
		f.Close()
		return nil, codecError(Bzip2, "open", bzip2Status(err), err)
	}
	return h, nil
}

func (h *bzip2Handle) read(p []byte) (int, error) {
	n, err := fill(h.zr, p)
	if err != nil && err != io.EOF {
		return n, codecError(Bzip2, "read", bzip2Status(err), err)
	}
	return n, err
}

func (h *bzip2Handle) write(p []byte) (int, error) {
	n, err := h.zw.Write(p)
	if err != nil {
		return n, codecError(Bzip2, "write", bzip2Status(err), err)
	}
	return n, nil
}

func (h *bzip2Handle) close() error {
	var err error
	if h.zw != nil {
		err = h.zw.Close()
		if err == nil {
			err = h.bw.Flush()
		}
	} else {
		err = h.zr.Close()
	}
	if cerr := h.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return codecError(Bzip2, "close", bzip2Status(err), err)
	}
	return nil
}

func bzip2Status(err error) string {
	var pathErr *fs.PathError
	var corrupt interface{ IsCorrupted() bool }
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "the compressed file ended before the logical end-of-stream was detected"
	case errors.As(err, &corrupt) && corrupt.IsCorrupted():
		return "data integrity error was detected in the compressed stream"
	case errors.As(err, &pathErr), errors.Is(err, os.ErrClosed):
		return "file operation error"
	default:
		return "other error"
	}
}
