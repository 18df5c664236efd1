package cwrap

import "github.com/eunmann/mdstream/pkg/checksum"

// ContentStats collects the size and checksum of everything written through
// a stream. The caller owns it; a stream only updates it.
//
// Checksum stays nil until the stream is closed and remains nil when
// ChecksumType is checksum.None.
type ContentStats struct {
	ChecksumType checksum.Kind
	Checksum     []byte
	Size         uint64
}

// NewContentStats returns empty stats that will be checksummed with kind.
func NewContentStats(kind checksum.Kind) *ContentStats {
	return &ContentStats{ChecksumType: kind}
}

// ChecksumHex returns the hex digest, or "" before the stream is closed.
func (s *ContentStats) ChecksumHex() string {
	if s == nil || s.Checksum == nil {
		return ""
	}
	return checksum.Hex(s.Checksum)
}
