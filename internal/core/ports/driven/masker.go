package driven

import (
	"context"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// MaskResult is the outcome of one masking pass.
type MaskResult struct {
	// MaskedText is the input with every detected span replaced by a
	// category placeholder.
	MaskedText string

	// Audit records each replacement with positions in the masked text
	// and a hash of the original span. Raw values are never retained.
	Audit []domain.MaskRecord
}

// Masker detects and replaces personally identifying information.
// Masking is deterministic and idempotent: masking already-masked text
// returns it unchanged with an empty audit.
type Masker interface {
	// Mask applies the engine's rule set to text.
	Mask(ctx context.Context, text string) (*MaskResult, error)

	// Rules returns the active rule set, highest priority first.
	Rules() []domain.DetectorRule
}

// SegmenterRegistry resolves segmenter versions. Superseded versions
// stay resolvable so stored segment sets remain reproducible.
type SegmenterRegistry interface {
	// Get returns the segmenter for a version.
	// Returns domain.ErrNotFound for unknown versions.
	Get(version string) (Segmenter, error)
}

// Segmenter splits masked text into typed, ordered segments. Output is
// total: concatenating segment texts in ordinal order reproduces the
// input exactly.
type Segmenter interface {
	// Version identifies the segmentation algorithm. Changing behaviour
	// requires a new version.
	Version() string

	// Segment splits masked revision text, assigns contiguous ordinals
	// starting at zero, and extracts per-segment metadata.
	Segment(ctx context.Context, revisionID, maskedText string) ([]domain.Segment, error)
}
