// Package api is the entry point used by the CLI and by programs embedding
// the evaluation workflow. Client wires configuration into the backend
// client, upload storage, the audio prober, and the upload authorizer for
// the configured storage mode, then exposes session creation, evaluation
// listing, and statistics export.
//
// View types use camelCase JSON tags and RFC3339 timestamps with
// milliseconds so they render the same in tables and JSON output.
package api
