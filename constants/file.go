package constants

import "strings"

// AllowedExtensions holds the document extensions accepted for screening.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

const (
	// PageSeparator joins page texts in page order.
	PageSeparator = "\n\n"

	// MinTextLength is the minimum trimmed length (in characters) of extracted text.
	MinTextLength = 20

	// MaxUploadBytesDefault caps document uploads on the network surfaces.
	MaxUploadBytesDefault = 25 << 20
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
