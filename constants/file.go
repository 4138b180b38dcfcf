package constants

import "strings"

// Source types for a scan.
const (
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// AllowedExtensions holds the file extensions accepted for scanning.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat classifies an extension into a source type; unknown
// extensions default to IMAGE since that is what a scanner hands us.
func MapExtToFormat(ext string) string {
	if NormalizeExt(ext) == "txt" {
		return TXT
	}
	return IMAGE
}
