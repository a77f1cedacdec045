// Package config loads, normalizes, and validates podo configuration data.
//
// It supplies repository defaults, reads the TOML file, and overlays
// environment variables (PODONOS_API_KEY and the PODO_* family) after loading
// an optional .env file. Always obtain settings through this package so
// downstream code receives trimmed URLs, canonical log formats, and clear
// validation errors.
package config
