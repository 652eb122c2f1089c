// Package segmenter splits masked legal text into typed, ordered
// segments and extracts legal entities from each one. Segmentation is
// total: every rune of the input, including whitespace, lands in
// exactly one segment, so concatenating the segments in ordinal order
// reproduces the input byte for byte.
package segmenter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// V1Version identifies the initial segmentation algorithm. Behaviour
// changes require a new version so stored segment sets stay stable.
const V1Version = "v1"

var (
	// articleRe matches statute article markers at the start of a line.
	articleRe = regexp.MustCompile(`^第[0-9０-９零一二三四五六七八九十百千]+條`)

	// sectionHeaderRe matches judgment section headers on their own line.
	sectionHeaderRe = regexp.MustCompile(`^(主文|事實|理由|事實及理由|犯罪事實)\s*$`)

	// citationRe matches court decision cross-references.
	citationRe = regexp.MustCompile(`(最高|臺灣高等|臺灣[\p{Han}]{2,3}地方)法院[0-9]{2,3}年度[\p{Han}]+字第[0-9]+號(民事|刑事)?(判決|裁定)?`)

	// proseRe reports whether a line carries any prose at all.
	proseRe = regexp.MustCompile(`[\p{Han}\p{L}0-9]`)
)

// V1 is the initial rule-based segmenter for Taiwanese legal documents.
// It recognises statute articles, judgment section paragraphs and
// citation blocks; anything the grammar cannot classify is kept as an
// unclassified segment rather than dropped.
type V1 struct{}

// Compile-time check that V1 satisfies the port.
var _ driven.Segmenter = (*V1)(nil)

// NewV1 returns the v1 segmenter.
func NewV1() *V1 {
	return &V1{}
}

// Version identifies the segmentation algorithm.
func (s *V1) Version() string {
	return V1Version
}

// Segment splits maskedText into typed segments with contiguous
// ordinals starting at zero.
func (s *V1) Segment(ctx context.Context, revisionID, maskedText string) ([]domain.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maskedText == "" {
		return nil, nil
	}

	blocks := splitBlocks(maskedText)

	segments := make([]domain.Segment, 0, len(blocks))
	for i, text := range blocks {
		segType := classify(text)
		segments = append(segments, domain.Segment{
			ID:               segmentID(revisionID, V1Version, i),
			RevisionID:       revisionID,
			SegmenterVersion: V1Version,
			Ordinal:          i,
			Text:             text,
			Type:             segType,
			Metadata:         extractMetadata(text),
		})
	}
	return segments, nil
}

// segmentID derives a stable identifier from the segment's coordinates
// so re-running the same segmenter over the same revision is idempotent.
func segmentID(revisionID, version string, ordinal int) string {
	return domain.HashContent(fmt.Sprintf("%s|%s|%d", revisionID, version, ordinal))[:16]
}

// splitBlocks partitions text into contiguous blocks. A new block opens
// at an article marker or a section header; a block closes after a run
// of blank lines. Blank lines stay attached to the block they follow so
// no bytes are lost.
func splitBlocks(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var blocks []string
	var current strings.Builder
	blankTail := false

	flush := func() {
		if current.Len() > 0 {
			blocks = append(blocks, current.String())
			current.Reset()
		}
		blankTail = false
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			current.WriteString(line)
			blankTail = true
			continue
		}
		if blankTail || articleRe.MatchString(trimmed) || sectionHeaderRe.MatchString(trimmed) {
			flush()
		}
		current.WriteString(line)
		// Section headers stand alone so the section body gets its own
		// classification.
		if sectionHeaderRe.MatchString(trimmed) {
			flush()
		}
	}
	flush()
	return blocks
}

// classify assigns a segment type to one block.
func classify(text string) domain.SegmentType {
	var nonBlank, cited int
	prose := false
	first := ""
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if first == "" {
			first = trimmed
		}
		nonBlank++
		if citationRe.MatchString(trimmed) {
			cited++
		}
		if proseRe.MatchString(trimmed) {
			prose = true
		}
	}

	switch {
	case nonBlank == 0 || !prose:
		return domain.SegmentUnclassified
	case articleRe.MatchString(first):
		return domain.SegmentArticle
	case nonBlank > 0 && cited == nonBlank:
		return domain.SegmentCitationBlock
	default:
		return domain.SegmentParagraph
	}
}
