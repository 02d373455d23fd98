// Package logging assembles structured slog loggers used across Glimpse
// services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes attr helpers plus standardized field keys so session
// and pipeline code tag log lines consistently. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape as the rest of the system.
package logging
