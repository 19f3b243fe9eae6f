package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for analysis.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// MaxUploadBytes caps the size of a single invoice file (16 MiB).
const MaxUploadBytes int64 = 16 << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) can be analyzed.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
