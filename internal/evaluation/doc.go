// Package evaluation validates the parameters of an evaluation session and
// freezes them into an immutable Config.
//
// The closed sets of evaluation types and languages live here, as do the two
// derived views of a Config: the manifest header fields and the backend
// create request.
package evaluation
