// Package services implements the application's use cases: pipeline
// orchestration, retrieval-context assembly and question answering,
// document history inspection, and background scheduling. Services
// depend only on domain types and port interfaces; adapters are
// injected at construction.
package services
