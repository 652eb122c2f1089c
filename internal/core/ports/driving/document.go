package driving

import (
	"context"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// RevisionInfo summarises one revision for history listings.
type RevisionInfo struct {
	// Revision is the stored revision, text omitted.
	Revision domain.Revision

	// Segments is the number of segments stored for the revision under
	// the active segmenter version.
	Segments int

	// MaskedSpans is the number of PII spans recorded in the audit.
	MaskedSpans int
}

// DocumentService inspects stored documents and their histories.
type DocumentService interface {
	// Get retrieves a document.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all documents.
	List(ctx context.Context) ([]domain.Document, error)

	// History returns a document's revisions in sequence order.
	History(ctx context.Context, documentID string) ([]RevisionInfo, error)

	// Diff computes a line-level edit script between two revisions of
	// the same document. Either ID may be "latest".
	Diff(ctx context.Context, documentID, fromRevisionID, toRevisionID string) ([]domain.DiffOp, error)

	// Segments returns the segments of a revision under the active
	// segmenter version.
	Segments(ctx context.Context, documentID, revisionID string) ([]domain.Segment, error)

	// Purge removes a document and all dependent state: revisions,
	// audit, segments, embeddings and index entries.
	Purge(ctx context.Context, documentID string) error
}
