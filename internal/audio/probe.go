package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"podo/internal/media/ffprobe"
	"podo/internal/services"
)

// SupportedExtensions lists the audio containers accepted for evaluation.
var SupportedExtensions = []string{".wav", ".mp3", ".flac"}

// Prober extracts channel count, sample rate, and duration from a file.
type Prober interface {
	Probe(ctx context.Context, path string) (Metadata, error)
}

// FFprobeProber probes files with the ffprobe binary.
type FFprobeProber struct {
	Binary string
}

// NewFFprobeProber returns a prober using the given ffprobe binary.
func NewFFprobeProber(binary string) *FFprobeProber {
	return &FFprobeProber{Binary: binary}
}

// Probe implements Prober.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (Metadata, error) {
	if err := CheckExtension(path); err != nil {
		return Metadata{}, err
	}
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrValidation, "audio", "probe", path, err)
	}
	return MetadataFromResult(path, result)
}

// MetadataFromResult converts ffprobe output into Metadata, rejecting files
// without an audio stream or with zero channels, rate, or duration.
func MetadataFromResult(path string, result ffprobe.Result) (Metadata, error) {
	stream, ok := result.FirstAudioStream()
	if !ok {
		return Metadata{}, services.Wrap(services.ErrValidation, "audio", "probe",
			fmt.Sprintf("%s has no audio stream", path), nil)
	}
	meta := Metadata{
		Channels:   stream.Channels,
		SampleRate: stream.SampleRateHz(),
		DurationMS: result.DurationMillis(),
	}
	switch {
	case meta.Channels <= 0:
		return Metadata{}, services.Wrap(services.ErrValidation, "audio", "probe", fmt.Sprintf("%s reports no channels", path), nil)
	case meta.SampleRate <= 0:
		return Metadata{}, services.Wrap(services.ErrValidation, "audio", "probe", fmt.Sprintf("%s reports no sample rate", path), nil)
	case meta.DurationMS <= 0:
		return Metadata{}, services.Wrap(services.ErrValidation, "audio", "probe", fmt.Sprintf("%s has zero duration", path), nil)
	}
	return meta, nil
}

// CheckExtension rejects files that are not wav, mp3, or flac.
func CheckExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return nil
		}
	}
	return services.Wrap(services.ErrValidation, "audio", "check extension",
		fmt.Sprintf("unsupported file format: %s. It must be wav, mp3, or flac", path), nil)
}
