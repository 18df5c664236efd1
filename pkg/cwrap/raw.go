package cwrap

import (
	"bufio"
	"io"
	"os"
)

// rawHandle is an uncompressed file.
type rawHandle struct {
	f *os.File
	r *bufio.Reader
	w *bufio.Writer
}

func openRaw(t target) (*rawHandle, error) {
	f, err := t.open()
	if err != nil {
		return nil, err
	}

	h := &rawHandle{f: f}
	if t.mode == Write {
		h.w = bufio.NewWriter(f)
	} else {
		h.r = bufio.NewReader(f)
	}
	return h, nil
}

func (h *rawHandle) read(p []byte) (int, error) {
	n, err := fill(h.r, p)
	if err != nil && err != io.EOF {
		return n, ioError("read", err)
	}
	return n, err
}

func (h *rawHandle) write(p []byte) (int, error) {
	n, err := h.w.Write(p)
	if err != nil {
		return n, ioError("write", err)
	}
	return n, nil
}

func (h *rawHandle) close() error {
	if h.w != nil {
		if err := h.w.Flush(); err != nil {
			h.f.Close()
			return ioError("flush", err)
		}
	}
	if err := h.f.Close(); err != nil {
		return ioError("close", err)
	}
	return nil
}
