// Package backend talks to the hosted evaluation service over REST.
//
// Client wraps the API endpoints (API key check, evaluation creation and
// listing, per-file upload URLs, batch file registration, statistics).
// Storage performs the PUTs against pre-authorized storage URLs, which must
// not carry the API key. Non-2xx responses become *services.HTTPError so
// callers can classify them with errors.Is.
package backend
