package cwrap

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/eunmann/mdstream/pkg/fileutil"
	"github.com/eunmann/mdstream/pkg/logging"
)

// Sniffer guesses the MIME type of a file from its content.
type Sniffer interface {
	Sniff(path string) (string, error)
}

// MimeSniffer sniffs content with github.com/gabriel-vasile/mimetype.
// Empty files are reported as inode/x-empty.
type MimeSniffer struct{}

// Sniff implements Sniffer.
func (MimeSniffer) Sniff(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "inode/x-empty", nil
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// DefaultSniffer is used by DetectCompression and by Open with AutoDetect.
var DefaultSniffer Sniffer = MimeSniffer{}

var suffixKinds = []struct {
	suffix string
	kind   Kind
}{
	{".gz", Gzip},
	{".gzip", Gzip},
	{".gunzip", Gzip},
	{".bz2", Bzip2},
	{".bzip2", Bzip2},
	{".xz", Xz},
	{".xml", None},
}

var mimeKinds = []struct {
	prefix string
	kind   Kind
}{
	{"application/x-gzip", Gzip},
	{"application/gzip", Gzip},
	{"application/gzip-compressed", Gzip},
	{"application/gzipped", Gzip},
	{"application/x-gzip-compressed", Gzip},
	{"application/x-compress", Gzip},
	{"application/x-gunzip", Gzip},
	{"multipart/x-gzip", Gzip},

	{"application/x-bzip2", Bzip2},
	{"application/x-bz2", Bzip2},
	{"application/bzip2", Bzip2},
	{"application/bz2", Bzip2},

	{"application/x-xz", Xz},

	{"text/plain", None},
	{"text/xml", None},
	{"application/xml", None},
	{"application/x-xml", None},
	{"application/x-empty", None},
	{"inode/x-empty", None},
}

// DetectCompression resolves the compression kind of an existing file using
// DefaultSniffer.
func DetectCompression(path string) (Kind, error) {
	return DetectCompressionWith(path, DefaultSniffer)
}

// DetectCompressionWith resolves the compression kind of an existing file.
// A known filename suffix wins without looking at the content. Otherwise the
// sniffed MIME type decides; no match yields Unknown with a nil error.
func DetectCompressionWith(path string, sniffer Sniffer) (Kind, error) {
	log := logging.L()

	if !fileutil.IsRegular(path) {
		log.Debug().Str("path", path).Msg("detect: not a regular file")
		return Unknown, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if kind, ok := kindFromSuffix(path); ok {
		return kind, nil
	}

	mime, err := sniffer.Sniff(path)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %s: %w", ErrDetectionEngine, path, err)
	}

	kind := kindFromMime(mime)
	log.Debug().Str("path", path).Str("mime", mime).Stringer("kind", kind).Msg("detect: sniffed mime type")
	return kind, nil
}

func kindFromSuffix(path string) (Kind, bool) {
	for _, s := range suffixKinds {
		if strings.HasSuffix(path, s.suffix) {
			return s.kind, true
		}
	}
	return Unknown, false
}

func kindFromMime(mime string) Kind {
	for _, m := range mimeKinds {
		if strings.HasPrefix(mime, m.prefix) {
			return m.kind
		}
	}
	return Unknown
}
