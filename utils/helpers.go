package utils

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMime sniffs data and returns its MIME type without parameters,
// e.g. "image/png" or "image/svg+xml".  Empty input yields "".
func DetectMime(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	m := mimetype.Detect(data)
	s := m.String()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return s
}

// DetectFormat maps sniffed content to a format name ("png", "jpeg", "webp",
// "svg", "svgz", "pdf") or "unknown".
func DetectFormat(data []byte) string {
	switch DetectMime(data) {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpeg"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	case "application/pdf":
		return "pdf"
	case "application/gzip":
		return "svgz"
	}
	return "unknown"
}

// CloneBytes returns a copy of b (safe for use after the source buffer is released).
func CloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
