// Package captures persists accepted screenshot records in SQLite.
package captures
