// Package evaluator runs one evaluation session: it registers the session
// with the backend, accepts audio files while uploading them in the
// background, and on Close registers the files and publishes the session
// manifest.
//
// Two variants share a session delegate. SingleStimulusEvaluator accepts one
// file per call (NMOS, QMOS, P808). DoubleStimuliEvaluator accepts grouped
// pairs (CMOS and DMOS with a reference, SMOS and PREF without).
package evaluator
