// Package services holds cross-cutting helpers shared by the collaborator
// clients and the pipeline: the sentinel error taxonomy used to classify
// collaborator failures, and context annotation helpers for session and stage
// identifiers.
package services
