package cwrap

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

const (
	// xzDictCap matches the dictionary of xz preset 5.
	xzDictCap = 8 << 20
	// xzStagingSize is the output buffer flushed to the file after each write.
	xzStagingSize = 32 * 1024
)

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// xzHandle is an xz file. Reading also accepts the legacy .lzma format.
type xzHandle struct {
	f *os.File

	br  *bufio.Reader
	src io.Reader

	staging *bufio.Writer
	zw      *xz.Writer
}

func openXz(t target) (*xzHandle, error) {
	if t.mode == Write {
		return createXz(t)
	}

	f, err := t.open()
	if err != nil {
		return nil, err
	}
	return &xzHandle{f: f, br: bufio.NewReader(f)}, nil
}

func createXz(t target) (*xzHandle, error) {
	cfg := xz.WriterConfig{DictCap: xzDictCap, CheckSum: xz.CRC32}
	if err := cfg.Verify(); err != nil {
		return nil, codecError(Xz, "open", "Unsupported options", err)
	}

	f, err := t.open()
	if err != nil {
		return nil, err
	}

	staging := bufio.NewWriterSize(f, xzStagingSize)
	zw, err := cfg.NewWriter(staging)
	if err != nil {
		f.Close()
		return nil, codecError(Xz, "open", "Cannot allocate memory", err)
	}
	return &xzHandle{f: f, staging: staging, zw: zw}, nil
}

// probe picks the decoder from the stream magic on the first read.
func (h *xzHandle) probe() error {
	magic, err := h.br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return ioError("read", err)
	}
	if len(magic) == 0 {
		h.src = h.br
		return nil
	}

	if bytes.Equal(magic, xzMagic) {
		zr, err := xz.ReaderConfig{}.NewReader(h.br)
		if err != nil {
			return codecError(Xz, "read", xzStatus(err), err)
		}
		h.src = zr
		return nil
	}

	zr, err := lzma.NewReader(h.br)
	if err != nil {
		return codecError(Xz, "read", "The input is not in the .xz format", err)
	}
	h.src = zr
	return nil
}

func (h *xzHandle) read(p []byte) (int, error) {
	if h.src == nil {
		if err := h.probe(); err != nil {
			return 0, err
		}
	}

	n, err := fill(h.src, p)
	if err != nil && err != io.EOF {
		return n, codecError(Xz, "read", xzStatus(err), err)
	}
	return n, err
}

func (h *xzHandle) write(p []byte) (int, error) {
	n, err := h.zw.Write(p)
	if err != nil {
		return n, codecError(Xz, "write", xzStatus(err), err)
	}
	if err := h.staging.Flush(); err != nil {
		return n, ioError("write", err)
	}
	return n, nil
}

func (h *xzHandle) close() error {
	if h.zw == nil {
		if err := h.f.Close(); err != nil {
			return ioError("close", err)
		}
		return nil
	}

	err := h.zw.Close()
	if err != nil {
		h.f.Close()
		return codecError(Xz, "close", xzStatus(err), err)
	}
	if err := h.staging.Flush(); err != nil {
		h.f.Close()
		return ioError("write", err)
	}
	if err := h.f.Close(); err != nil {
		return ioError("close", err)
	}
	return nil
}

func xzStatus(err error) string {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return "Compressed file is truncated or otherwise corrupt"
	}
	return "Compressed file is corrupt"
}
