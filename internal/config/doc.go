// Package config loads, normalizes, and validates feedrelay configuration
// from TOML, layering credentials from the environment (.env files included).
package config
