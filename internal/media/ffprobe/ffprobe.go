package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// entries limits ffprobe output to the fields audio probing reads.
const entries = "stream=codec_type,codec_name,sample_rate,channels,duration:format=format_name,duration"

// Result is the subset of ffprobe JSON output covering audio streams and the
// container duration.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one stream entry.
type Stream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
}

// Format is the container entry.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// Inspect runs ffprobe on path, restricted to audio streams, and decodes
// its JSON output.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", entries,
		"-of", "json",
		"--", path,
	)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, msg)
		}
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// FirstAudioStream returns the first audio stream, if any.
func (r Result) FirstAudioStream() (Stream, bool) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			return s, true
		}
	}
	return Stream{}, false
}

// DurationMillis returns the duration truncated to whole milliseconds. The
// container duration wins over the first audio stream's; 0 means unknown.
func (r Result) DurationMillis() int64 {
	seconds, ok := positive(r.Format.Duration)
	if !ok {
		if s, found := r.FirstAudioStream(); found {
			seconds, ok = positive(s.Duration)
		}
	}
	if !ok {
		return 0
	}
	return int64(seconds * 1000)
}

// SampleRateHz returns the stream sample rate, or 0 when unavailable.
func (s Stream) SampleRateHz() int {
	rate, ok := positive(s.SampleRate)
	if !ok {
		return 0
	}
	return int(rate)
}

// positive parses a decimal ffprobe field, rejecting "N/A", NaN, infinities,
// and values <= 0.
func positive(value string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
