package checksum

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"", None},
		{"none", None},
		{"md5", MD5},
		{"SHA", SHA1},
		{"sha1", SHA1},
		{"sha224", SHA224},
		{" sha256 ", SHA256},
		{"sha384", SHA384},
		{"sha512", SHA512},
		{"crc32", CRC32},
		{"crc64", CRC64},
		{"xxh64", XXH64},
		{"Blake3", BLAKE3},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse("whirlpool")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for k := range kindNames {
		got, err := Parse(k.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("Parse(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if Kind(99).Valid() {
		t.Error("Kind(99) should not be valid")
	}
	if Kind(99).String() != "unknown(99)" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}

func TestNewNoneFails(t *testing.T) {
	if _, err := New(None); !errors.Is(err, ErrUnsupported) {
		t.Errorf("New(None): expected ErrUnsupported, got %v", err)
	}
	if _, err := New(Kind(42)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("New(42): expected ErrUnsupported, got %v", err)
	}
}

func TestKnownDigests(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{MD5, "900150983cd24fb0d6963f7d28e17f72"},
		{SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{CRC32, "352441c2"},
	}

	for _, tt := range tests {
		digest, err := Sum(tt.kind, []byte("abc"))
		if err != nil {
			t.Fatalf("Sum(%v): %v", tt.kind, err)
		}
		if got := Hex(digest); got != tt.want {
			t.Errorf("Sum(%v, abc) = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestIncrementalMatchesOneShot(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	for k := range kindNames {
		if k == None {
			continue
		}
		h, err := New(k)
		if err != nil {
			t.Fatalf("New(%v): %v", k, err)
		}
		h.Write(data[:10])
		h.Write(nil)
		h.Write(data[10:])

		want, err := Sum(k, data)
		if err != nil {
			t.Fatalf("Sum(%v): %v", k, err)
		}
		if Hex(h.Sum(nil)) != Hex(want) {
			t.Errorf("%v: incremental digest differs from one-shot digest", k)
		}
	}
}
