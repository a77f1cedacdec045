// Package manifest builds the session manifest uploaded when an evaluation
// closes: the evaluation settings, the optional question, and every file
// grouped in add order. Documents are validated against an embedded JSON
// schema before they leave the process.
package manifest
