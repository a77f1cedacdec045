// Package services defines shared utilities consumed by the evaluator, the
// upload pool, and the backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp evaluation IDs, remote object keys, and
//     upload worker indexes for logging.
//   - Structured error markers plus the Wrap helper and HTTPError type that
//     let callers classify failures with errors.Is instead of string matching.
//
// Use these helpers when wiring new components so error classification and
// log context stay uniform across the client.
package services
