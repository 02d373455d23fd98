// Package pipeline implements the capture dedup flow: screen grab, text
// recognition, embedding, and a cosine similarity decision against the last
// accepted capture in the session.
package pipeline
