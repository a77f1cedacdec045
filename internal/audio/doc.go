// Package audio describes the local audio files submitted to an evaluation.
//
// File is the caller's input; Descriptor is the value the evaluator builds
// from it once the file has been probed and assigned a remote object key,
// role, and group. Descriptors are values: accessors hand out copies and the
// only mutation is the write-once upload timestamp pair.
//
// Prober abstracts metadata extraction. FFprobeProber shells out to ffprobe
// and accepts wav, mp3, and flac files only.
package audio
