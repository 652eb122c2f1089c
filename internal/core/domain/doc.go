// Package domain defines the core business entities for Lexica.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The immutable logical identity of a legal document
//   - Revision: One content-addressed version of a document's masked text
//   - MaskRecord: An audit record for a single redacted span
//   - Segment: A structural unit of a revision with extracted metadata
//   - RetrievalContext: The bounded context assembled for one query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
