package s3fetch

import (
	"errors"
	"path"
	"strings"
)

const uriScheme = "s3://"

// IsURI reports whether s names an S3 object rather than a local path.
func IsURI(s string) bool {
	return strings.HasPrefix(s, uriScheme)
}

// ParseURI parses an S3 URI (s3://bucket/key) into bucket and key components.
// The key must name an object, not a prefix.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsURI(uri) {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	rest := strings.TrimPrefix(uri, uriScheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", errors.New("invalid S3 URI: missing object key")
	}
	return bucket, key, nil
}

// localName converts an S3 key to a local filename. The final component is
// kept so suffix based compression detection still works.
func localName(key string) string {
	return path.Base(key)
}
