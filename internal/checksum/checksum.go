// Package checksum computes content digests used for change detection
// between the repositories and their storage, and for HTTP entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns the quoted entity tag for data.
func ETag(data []byte) string {
	return `"` + Sum(data) + `"`
}

// MatchETag reports whether an If-Match header value refers to data.
// Surrounding quotes and a weak prefix are tolerated.
func MatchETag(header string, data []byte) bool {
	tag := strings.TrimPrefix(strings.TrimSpace(header), "W/")
	return strings.Trim(tag, `"`) == Sum(data)
}
