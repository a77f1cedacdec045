package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"podo/internal/services"
)

// File is one local audio file supplied by the caller.
type File struct {
	Path     string
	ModelTag string
	Tags     []string
	Script   string
	IsRef    bool
}

// NewFile builds a File with its own copy of tags.
func NewFile(path, modelTag string, tags []string, script string, isRef bool) File {
	return File{
		Path:     path,
		ModelTag: modelTag,
		Tags:     cloneStrings(tags),
		Script:   script,
		IsRef:    isRef,
	}
}

// Name returns the display name of the file (its base name).
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// HasScript reports whether a non-blank script is attached.
func (f File) HasScript() bool {
	return strings.TrimSpace(f.Script) != ""
}

// CheckReadable fails with ErrNotFound when the path is missing, a
// directory, or cannot be opened.
func (f File) CheckReadable() error {
	path := strings.TrimSpace(f.Path)
	if path == "" {
		return services.Wrap(services.ErrValidation, "audio", "check file", "empty path", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "audio", "check file", fmt.Sprintf("%s doesn't exist", path), err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrNotFound, "audio", "check file", fmt.Sprintf("%s is a directory", path), nil)
	}
	fh, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "audio", "check file", fmt.Sprintf("%s isn't readable", path), err)
	}
	return fh.Close()
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
