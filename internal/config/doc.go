// Package config loads, normalizes, and validates cardpress configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI and publish pipeline need: backend endpoint, baked output format,
// draft snapshot TTL, and plan tier defaults.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
