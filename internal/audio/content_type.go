package audio

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackContentType = "application/octet-stream"

var extensionContentTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".json": "application/json",
}

// ContentType sniffs the MIME type of a local file, falling back to the
// file extension when the file cannot be read or sniffing is inconclusive.
func ContentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil || mt.Is(fallbackContentType) || mt.Is("text/plain") {
		return contentTypeFromExtension(path)
	}
	return mt.String()
}

func contentTypeFromExtension(path string) string {
	if ct, ok := extensionContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return fallbackContentType
}
