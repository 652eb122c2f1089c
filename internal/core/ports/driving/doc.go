// Package driving provides interfaces for use cases exposed to the
// outside world (primary/inbound ports): ingestion and pipeline
// orchestration, retrieval-backed question answering, document history
// inspection, and the background scheduler.
package driving
