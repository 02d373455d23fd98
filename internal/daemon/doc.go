// Package daemon wires the capture store, pipeline, and scheduler into a
// single-instance background service.
package daemon
