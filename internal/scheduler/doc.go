// Package scheduler runs capture sessions on per-session goroutines with
// sequential, interval-spaced capture attempts.
package scheduler
