package driven

import (
	"context"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// VersionStore is the content-addressed, append-only record of document
// revisions. Every append extends an immutable history; there is no
// in-place mutation and no deletion except explicit purge.
type VersionStore interface {
	// SaveDocument records a document's logical identity. Idempotent on ID.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all recorded documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// AppendRevision appends a revision of maskedText for the document.
	// Content dedup is scoped per document: if the latest revision has
	// identical content addressing, the existing revision is returned
	// with created=false and nothing is written. A content hash already
	// present under a different sequence yields domain.ErrDuplicateRevision.
	AppendRevision(
		ctx context.Context, documentID, maskedText string, audit []domain.MaskRecord,
	) (rev *domain.Revision, created bool, err error)

	// GetRevision retrieves a revision by ID, or the latest revision when
	// revisionID is "latest". Returns domain.ErrNotFound if absent.
	GetRevision(ctx context.Context, documentID, revisionID string) (*domain.Revision, error)

	// GetDocumentByRevision resolves the document owning a revision.
	// Returns domain.ErrNotFound if the revision is unknown.
	GetDocumentByRevision(ctx context.Context, revisionID string) (*domain.Document, error)

	// ListRevisions returns a document's revisions in sequence order.
	ListRevisions(ctx context.Context, documentID string) ([]domain.Revision, error)

	// PurgeDocument removes a document, its revisions and mask audit.
	// Callers must also purge dependent segments and embeddings so no
	// orphaned state remains addressable.
	PurgeDocument(ctx context.Context, documentID string) error
}
