package cwrap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeSniffer struct {
	mime  string
	err   error
	calls int
}

func (f *fakeSniffer) Sniff(string) (string, error) {
	f.calls++
	return f.mime, f.err
}

func touch(t *testing.T, path string, data []byte) string {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectBySuffix(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		want Kind
	}{
		{"primary.xml.gz", Gzip},
		{"primary.gzip", Gzip},
		{"primary.gunzip", Gzip},
		{"filelists.xml.bz2", Bzip2},
		{"filelists.bzip2", Bzip2},
		{"other.xml.xz", Xz},
		{"repomd.xml", None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := touch(t, filepath.Join(dir, tt.name), []byte("garbage"))
			sniffer := &fakeSniffer{mime: "application/x-bzip2"}

			got, err := DetectCompressionWith(path, sniffer)
			if err != nil {
				t.Fatalf("detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectCompressionWith(%s) = %v, want %v", tt.name, got, tt.want)
			}
			if sniffer.calls != 0 {
				t.Error("suffix match should not sniff content")
			}
		})
	}
}

func TestDetectByMime(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, filepath.Join(dir, "noext"), []byte("data"))

	tests := []struct {
		mime string
		want Kind
	}{
		{"application/gzip", Gzip},
		{"application/x-gzip", Gzip},
		{"multipart/x-gzip", Gzip},
		{"application/x-bzip2", Bzip2},
		{"application/x-xz", Xz},
		{"text/plain; charset=utf-8", None},
		{"text/xml; charset=utf-8", None},
		{"inode/x-empty", None},
		{"application/octet-stream", Unknown},
		{"image/png", Unknown},
	}

	for _, tt := range tests {
		got, err := DetectCompressionWith(path, &fakeSniffer{mime: tt.mime})
		if err != nil {
			t.Fatalf("detect %s: %v", tt.mime, err)
		}
		if got != tt.want {
			t.Errorf("mime %q detected as %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestDetectNotFound(t *testing.T) {
	dir := t.TempDir()

	if _, err := DetectCompression(filepath.Join(dir, "missing.gz")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: expected ErrNotFound, got %v", err)
	}
	if _, err := DetectCompression(dir); !errors.Is(err, ErrNotFound) {
		t.Errorf("directory: expected ErrNotFound, got %v", err)
	}
}

func TestDetectEngineFailure(t *testing.T) {
	path := touch(t, filepath.Join(t.TempDir(), "noext"), []byte("data"))
	sniffErr := errors.New("magic database missing")

	_, err := DetectCompressionWith(path, &fakeSniffer{err: sniffErr})
	if !errors.Is(err, ErrDetectionEngine) {
		t.Errorf("expected ErrDetectionEngine, got %v", err)
	}
	if !errors.Is(err, sniffErr) {
		t.Errorf("expected sniffer error to be wrapped, got %v", err)
	}
}

func TestDetectContent(t *testing.T) {
	dir := t.TempDir()

	for _, kind := range []Kind{Gzip, Bzip2, Xz} {
		t.Run(kind.String(), func(t *testing.T) {
			path := filepath.Join(dir, "compressed-"+kind.String())
			writeAll(t, path, kind, nil, []byte("<metadata/>"))

			got, err := DetectCompression(path)
			if err != nil {
				t.Fatalf("detect: %v", err)
			}
			if got != kind {
				t.Errorf("detected %v, want %v", got, kind)
			}
		})
	}

	xml := touch(t, filepath.Join(dir, "doc"), []byte("<?xml version=\"1.0\"?>\n<metadata/>\n"))
	if got, err := DetectCompression(xml); err != nil || got != None {
		t.Errorf("xml content = (%v, %v), want (none, nil)", got, err)
	}

	empty := touch(t, filepath.Join(dir, "empty"), nil)
	if got, err := DetectCompression(empty); err != nil || got != None {
		t.Errorf("empty file = (%v, %v), want (none, nil)", got, err)
	}

	binary := touch(t, filepath.Join(dir, "blob"), []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x10})
	if got, err := DetectCompression(binary); err != nil || got != Unknown {
		t.Errorf("binary content = (%v, %v), want (unknown, nil)", got, err)
	}
}

func TestOpenAutoDetectUnknown(t *testing.T) {
	path := touch(t, filepath.Join(t.TempDir(), "blob"), []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x10})
	if _, err := Open(path, Read, AutoDetect, nil); !errors.Is(err, ErrUnknownCompression) {
		t.Errorf("expected ErrUnknownCompression, got %v", err)
	}
}
