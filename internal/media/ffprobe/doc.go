// Package ffprobe runs ffprobe against audio files and decodes the handful of
// fields audio probing needs: channel count, sample rate, and duration.
package ffprobe
