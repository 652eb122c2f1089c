// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): persistence, the vector index, embedding
// and answer-generation services, and metrics.
package driven
