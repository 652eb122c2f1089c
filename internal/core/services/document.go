package services

import (
	"context"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
)

// Ensure Document implements the interface.
var _ driving.DocumentService = (*Document)(nil)

// Document inspects stored documents, their revision histories and
// segment sets, and handles full purges.
type Document struct {
	cfg        domain.PipelineConfig
	versions   driven.VersionStore
	segments   driven.SegmentStore
	embeddings driven.EmbeddingStore
	index      driven.VectorIndex
	processing driven.ProcessingStore
}

// NewDocument creates a document service.
func NewDocument(
	cfg domain.PipelineConfig,
	versions driven.VersionStore,
	segments driven.SegmentStore,
	embeddings driven.EmbeddingStore,
	index driven.VectorIndex,
	processing driven.ProcessingStore,
) *Document {
	return &Document{
		cfg:        cfg.Normalize(),
		versions:   versions,
		segments:   segments,
		embeddings: embeddings,
		index:      index,
		processing: processing,
	}
}

// Get retrieves a document.
func (d *Document) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return d.versions.GetDocument(ctx, documentID)
}

// List returns all documents.
func (d *Document) List(ctx context.Context) ([]domain.Document, error) {
	return d.versions.ListDocuments(ctx)
}

// History returns a document's revisions in sequence order, with
// segment and mask-audit counts. Revision text is omitted.
func (d *Document) History(ctx context.Context, documentID string) ([]driving.RevisionInfo, error) {
	revs, err := d.versions.ListRevisions(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}

	infos := make([]driving.RevisionInfo, 0, len(revs))
	for _, rev := range revs {
		segs, err := d.segments.GetSegments(ctx, rev.RevisionID, d.cfg.SegmenterVersion)
		if err != nil {
			return nil, fmt.Errorf("counting segments of %s: %w", rev.RevisionID, err)
		}
		info := driving.RevisionInfo{
			Revision:    rev,
			Segments:    len(segs),
			MaskedSpans: len(rev.MaskAudit),
		}
		info.Revision.MaskedText = ""
		infos = append(infos, info)
	}
	return infos, nil
}

// Diff computes a line-level edit script between two revisions of the
// same document. Either ID may be "latest".
func (d *Document) Diff(ctx context.Context, documentID, fromRevisionID, toRevisionID string) ([]domain.DiffOp, error) {
	from, err := d.versions.GetRevision(ctx, documentID, fromRevisionID)
	if err != nil {
		return nil, fmt.Errorf("loading from revision: %w", err)
	}
	to, err := d.versions.GetRevision(ctx, documentID, toRevisionID)
	if err != nil {
		return nil, fmt.Errorf("loading to revision: %w", err)
	}

	fromLines := difflib.SplitLines(from.MaskedText)
	toLines := difflib.SplitLines(to.MaskedText)

	matcher := difflib.NewMatcher(fromLines, toLines)

	var ops []domain.DiffOp //nolint:prealloc // equal runs may be merged by the matcher
	for _, oc := range matcher.GetOpCodes() {
		op := domain.DiffOp{
			FromStart: oc.I1,
			FromEnd:   oc.I2,
			ToStart:   oc.J1,
			ToEnd:     oc.J2,
		}
		switch oc.Tag {
		case 'e':
			op.Kind = domain.DiffEqual
		case 'i':
			op.Kind = domain.DiffInsert
			op.Lines = trimNewlines(toLines[oc.J1:oc.J2])
		case 'd':
			op.Kind = domain.DiffDelete
			op.Lines = trimNewlines(fromLines[oc.I1:oc.I2])
		case 'r':
			op.Kind = domain.DiffReplace
			op.Lines = trimNewlines(toLines[oc.J1:oc.J2])
		default:
			return nil, fmt.Errorf("unexpected diff opcode %q", oc.Tag)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Segments returns the segments of a revision under the active
// segmenter version. revisionID may be "latest".
func (d *Document) Segments(ctx context.Context, documentID, revisionID string) ([]domain.Segment, error) {
	rev, err := d.versions.GetRevision(ctx, documentID, revisionID)
	if err != nil {
		return nil, fmt.Errorf("loading revision: %w", err)
	}
	return d.segments.GetSegments(ctx, rev.RevisionID, d.cfg.SegmenterVersion)
}

// Purge removes a document and all dependent state. Order matters:
// embeddings and index entries go before their segments, segments
// before their revisions, so a failure partway leaves no orphan that
// is still addressable through the document.
func (d *Document) Purge(ctx context.Context, documentID string) error {
	revs, err := d.versions.ListRevisions(ctx, documentID)
	if err != nil {
		return fmt.Errorf("listing revisions: %w", err)
	}

	for _, rev := range revs {
		segIDs, err := d.segments.ListSegmentIDs(ctx, rev.RevisionID)
		if err != nil {
			return fmt.Errorf("listing segments of %s: %w", rev.RevisionID, err)
		}
		if err := d.embeddings.DeleteBySegments(ctx, segIDs); err != nil {
			return fmt.Errorf("purging embeddings of %s: %w", rev.RevisionID, err)
		}
		if err := d.index.DeleteByRevision(ctx, rev.RevisionID); err != nil {
			return fmt.Errorf("purging index entries of %s: %w", rev.RevisionID, err)
		}
		if err := d.segments.DeleteByRevision(ctx, rev.RevisionID); err != nil {
			return fmt.Errorf("purging segments of %s: %w", rev.RevisionID, err)
		}
	}

	if err := d.versions.PurgeDocument(ctx, documentID); err != nil {
		return fmt.Errorf("purging document: %w", err)
	}
	if err := d.processing.DeleteRecord(ctx, documentID); err != nil {
		return fmt.Errorf("purging processing record: %w", err)
	}
	return nil
}

// trimNewlines strips the trailing newline SplitLines keeps on each
// line.
func trimNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if n := len(line); n > 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		out[i] = line
	}
	return out
}
