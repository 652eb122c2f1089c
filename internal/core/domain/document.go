package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DocType classifies a legal document.
type DocType string

const (
	// DocTypeDecision is a court decision.
	DocTypeDecision DocType = "decision"

	// DocTypeStatute is a statute or regulation.
	DocTypeStatute DocType = "statute"

	// DocTypeOther is any other legal document.
	DocTypeOther DocType = "other"
)

// Valid reports whether the doc type is a known value.
func (t DocType) Valid() bool {
	switch t {
	case DocTypeDecision, DocTypeStatute, DocTypeOther:
		return true
	}
	return false
}

// Document is the immutable logical identity of a legal document.
// Content lives in its Revisions; the document itself never changes
// after creation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceURI is the original location the document was collected from.
	SourceURI string

	// DocType classifies the document (decision, statute, other).
	DocType DocType

	// Language is the BCP 47 language tag of the document text.
	Language string

	// Collector names the system or person that submitted the document.
	Collector string

	// CreatedAt is when the document identity was first recorded.
	CreatedAt time.Time
}

// Revision is one immutable, content-addressed version of a document's
// masked text. Revisions of a document form a strictly increasing,
// gapless sequence.
type Revision struct {
	// RevisionID is the hex SHA-256 of MaskedText (content addressing).
	// Identical masked content within a document never duplicates storage.
	RevisionID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Sequence is the monotonic position within the document's history,
	// starting at 1.
	Sequence int

	// MaskedText is the full text after PII masking. Raw pre-mask text
	// is never persisted.
	MaskedText string

	// MaskAudit records every redaction applied to produce MaskedText.
	MaskAudit []MaskRecord

	// CreatedAt is when the revision was appended.
	CreatedAt time.Time
}

// MaskRecord is the audit trail entry for a single redacted span.
// It is produced exactly once per detected span and is immutable.
type MaskRecord struct {
	// Start is the rune offset of the span in the pre-mask text.
	Start int

	// End is the rune offset one past the span's last rune.
	End int

	// Category is the PII category (e.g. "PHONE", "NATIONAL_ID").
	Category string

	// RuleID identifies the detector rule that matched.
	RuleID string

	// OriginalHash is the hex SHA-256 of the redacted value.
	// The plaintext value is never stored.
	OriginalHash string
}

// SegmentType classifies a structural unit of a revision.
type SegmentType string

const (
	// SegmentArticle is an article or clause introduced by a numbering marker.
	SegmentArticle SegmentType = "article"

	// SegmentParagraph is a plain paragraph within a section.
	SegmentParagraph SegmentType = "paragraph"

	// SegmentCitationBlock is a block dominated by cross-references.
	SegmentCitationBlock SegmentType = "citation-block"

	// SegmentUnclassified covers spans the structural grammar could not
	// classify. Segmentation is total: nothing is silently dropped.
	SegmentUnclassified SegmentType = "unclassified"
)

// SegmentMetadata holds legal entities extracted from a segment.
type SegmentMetadata struct {
	// Citations are case-number cross-references found in the segment.
	Citations []string `json:"citations,omitempty"`

	// Parties are party names tagged by their procedural role.
	Parties []string `json:"parties,omitempty"`

	// Dates are date expressions found in the segment.
	Dates []string `json:"dates,omitempty"`

	// LawRefs are statute article references (e.g. "第184條").
	LawRefs []string `json:"law_refs,omitempty"`

	// LegalTerms are standardized legal-term tags.
	LegalTerms []string `json:"legal_terms,omitempty"`
}

// Segment is a structurally meaningful unit of a revision. Segments are
// immutable; re-processing a revision produces a fresh set under a new
// segmenter version rather than mutating existing ones.
type Segment struct {
	// ID is the unique identifier for the segment.
	ID string

	// RevisionID links to the owning Revision.
	RevisionID string

	// SegmenterVersion tags the segmenter that produced this segment.
	SegmenterVersion string

	// Ordinal is the position within the revision, contiguous from 0.
	Ordinal int

	// Text is the segment content. Concatenating all segments of a
	// revision in ordinal order reproduces the masked text exactly.
	Text string

	// Type classifies the segment.
	Type SegmentType

	// Metadata holds extracted legal entities.
	Metadata SegmentMetadata
}

// Embedding is the vector representation of one segment under one
// embedding model version. Vector dimension is fixed per model version.
type Embedding struct {
	// SegmentID links to the embedded Segment.
	SegmentID string

	// Vector is the fixed-dimension embedding.
	Vector []float32

	// ModelVersion identifies the embedding model that produced Vector.
	// Look-ups always specify a model version so incompatible spaces are
	// never compared.
	ModelVersion string
}

// HashContent returns the hex SHA-256 of text. Used both for revision
// content addressing and for MaskRecord original hashes.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
