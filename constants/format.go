package constants

import "strings"

// DocFormat is the canonical source-document format.
type DocFormat string

const (
	PDF   DocFormat = "PDF"
	DOCX  DocFormat = "DOCX"
	TXT   DocFormat = "TXT"
	HTML  DocFormat = "HTML"
	IMAGE DocFormat = "IMAGE"
)

// AllowedExtensions holds the default allowed file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
	"html": {},
	"htm":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its DocFormat.
// The second return is false for unsupported extensions.
func MapExtToFormat(ext string) (DocFormat, bool) {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF, true
	case "docx":
		return DOCX, true
	case "txt", "text":
		return TXT, true
	case "html", "htm":
		return HTML, true
	case "png", "jpg", "jpeg":
		return IMAGE, true
	default:
		return "", false
	}
}
