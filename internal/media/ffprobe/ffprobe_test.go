package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutput = `{
  "streams": [
    {"codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "24000", "channels": 1, "duration": "2.500000"}
  ],
  "format": {"duration": "2.499979", "format_name": "wav"}
}`

func TestParseSelectsFirstAudioStream(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	require.NoError(t, err)

	stream, ok := result.FirstAudioStream()
	require.True(t, ok)
	assert.Equal(t, 1, stream.Channels)
	assert.Equal(t, 24000, stream.SampleRateHz())
	assert.EqualValues(t, 2499, result.DurationMillis())
	assert.Equal(t, "wav", result.Format.FormatName)
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "1.25"}},
		Format:  Format{Duration: "N/A"},
	}
	assert.EqualValues(t, 1250, result.DurationMillis())
}

func TestInvalidNumbersReadAsUnknown(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", SampleRate: "bad", Duration: "-3"}},
		Format:  Format{Duration: "NaN"},
	}
	stream, ok := result.FirstAudioStream()
	require.True(t, ok)
	assert.Equal(t, 0, stream.SampleRateHz())
	assert.EqualValues(t, 0, result.DurationMillis())
}

func TestNoAudioStream(t *testing.T) {
	_, ok := Result{Streams: []Stream{{CodecType: "video"}}}.FirstAudioStream()
	assert.False(t, ok)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("not json"))
	require.Error(t, err)
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	_, err := Inspect(context.Background(), "", "  ")
	require.Error(t, err)
}

func TestInspectReportsStderr(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n"), 0o755))

	_, err := Inspect(context.Background(), bin, "broken.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found")
	assert.Contains(t, err.Error(), "broken.wav")
}
