// Package embedding turns recognized text into vectors and compares them so
// near-duplicate screenshots can be detected.
package embedding
