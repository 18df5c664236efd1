package cwrap

import (
	"fmt"
	"strings"
)

// Kind is the compression format of a stream.
type Kind int

const (
	// Unknown is the result of a detection that found no match. It is never
	// a valid kind for opening a stream.
	Unknown Kind = iota
	// AutoDetect asks Open to resolve the kind from the file before opening.
	// Only valid for reading.
	AutoDetect
	// None is an uncompressed stream.
	None
	Gzip
	Bzip2
	Xz
)

// String returns the name used in logs and error messages.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case AutoDetect:
		return "auto"
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Xz:
		return "xz"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a compression name as accepted on the command line and in
// config files.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auto", "":
		return AutoDetect, nil
	case "none", "no":
		return None, nil
	case "gz", "gzip":
		return Gzip, nil
	case "bz2", "bzip2":
		return Bzip2, nil
	case "xz":
		return Xz, nil
	default:
		return Unknown, fmt.Errorf("unknown compression type: %q", name)
	}
}

// Suffix returns the conventional file suffix for compressed output, or ""
// for kinds that have none.
func Suffix(k Kind) string {
	switch k {
	case Gzip:
		return ".gz"
	case Bzip2:
		return ".bz2"
	case Xz:
		return ".xz"
	default:
		return ""
	}
}

// Mode is the direction a stream was opened in. It never changes.
type Mode int

const (
	Read Mode = iota + 1
	Write
)

func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}
