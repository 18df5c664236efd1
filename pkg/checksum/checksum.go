// Package checksum provides the incremental hash engine used to fingerprint
// metadata files while they are being written.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"hash/crc64"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// ErrUnsupported is returned when a hash context is requested for a kind
// that has no engine behind it.
var ErrUnsupported = errors.New("unsupported checksum type")

// Kind identifies a checksum algorithm.
type Kind int

// Checksum kinds. None means no checksum is calculated.
const (
	None Kind = iota
	MD5
	SHA1
	SHA224
	SHA256
	SHA384
	SHA512
	CRC32
	CRC64
	XXH64
	BLAKE3
)

var kindNames = map[Kind]string{
	None:   "none",
	MD5:    "md5",
	SHA1:   "sha1",
	SHA224: "sha224",
	SHA256: "sha256",
	SHA384: "sha384",
	SHA512: "sha512",
	CRC32:  "crc32",
	CRC64:  "crc64",
	XXH64:  "xxh64",
	BLAKE3: "blake3",
}

// String returns the canonical lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Valid reports whether k names a known kind (None included).
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Parse returns the kind for a checksum name. Matching is case-insensitive
// and "sha" is accepted as an alias of sha1. An empty name parses as None.
func Parse(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		return None, nil
	case "sha":
		return SHA1, nil
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// New creates an incremental hash context for the kind.
// None and unknown kinds have no context and return ErrUnsupported.
func New(k Kind) (hash.Hash, error) {
	switch k {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA224:
		return sha256.New224(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	case CRC32:
		return crc32.NewIEEE(), nil
	case CRC64:
		return crc64.New(crc64.MakeTable(crc64.ECMA)), nil
	case XXH64:
		return xxhash.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, k)
	}
}

// Sum hashes data in one shot.
func Sum(k Kind, data []byte) ([]byte, error) {
	h, err := New(k)
	if err != nil {
		return nil, err
	}
	if _, err := h.Write(data); err != nil {
		return nil, fmt.Errorf("hash update: %w", err)
	}
	return h.Sum(nil), nil
}

// Hex formats a digest the way repository metadata records it.
func Hex(digest []byte) string {
	return hex.EncodeToString(digest)
}
