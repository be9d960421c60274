// Package logging provides slog construction and shared attribute helpers.
// Console output is a compact key=value line format; JSON output is the
// stock slog JSON handler with normalized field names.
package logging
