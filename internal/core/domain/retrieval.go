package domain

import "unicode"

// QueryFilter restricts a vector query before scoring (pre-filter).
// Zero-value fields impose no restriction.
type QueryFilter struct {
	// DocTypes restricts hits to segments of documents with these types.
	DocTypes []DocType

	// DocumentIDs restricts hits to segments of these documents.
	DocumentIDs []string

	// SegmenterVersion restricts hits to segments of this segmenter
	// version.
	SegmenterVersion string
}

// VectorHit is a single nearest-neighbour result.
type VectorHit struct {
	// SegmentID is the matched segment.
	SegmentID string

	// Score is the cosine similarity (higher = more similar).
	Score float64
}

// ContextItem is one ranked segment inside a retrieval context.
type ContextItem struct {
	// Segment is the retrieved segment.
	Segment Segment

	// DocumentID is the owning document, resolved during hydration.
	DocumentID string

	// DocType is the owning document's type, used for authority boosts.
	DocType DocType

	// Score is the blended relevance score the item was ranked by.
	Score float64

	// Tokens is the estimated token cost of the segment text.
	Tokens int
}

// RetrievalContext is the ordered, budget-respecting set of segments
// assembled for one query. It is ephemeral and scoped to the query.
type RetrievalContext struct {
	// QueryID uniquely identifies the query for audit correlation.
	QueryID string

	// Items are the packed segments in rank order.
	Items []ContextItem

	// TokenBudget is the maximum number of tokens the context may hold.
	TokenBudget int

	// TokensUsed is the total estimated tokens consumed by Items.
	// Always <= TokenBudget.
	TokensUsed int
}

// SessionTurn records segments confirmed relevant in a prior turn.
type SessionTurn struct {
	// SegmentIDs are the segments the turn's context was built from.
	SegmentIDs []string
}

// SessionState carries multi-turn retrieval state. Prior turns'
// segments are re-ranked with a decayed weight so conversations stay
// coherent without unbounded context growth.
type SessionState struct {
	// SessionID identifies the conversation.
	SessionID string

	// Turns are prior turns, oldest first. Bounded by the caller.
	Turns []SessionTurn
}

// EstimateTokens returns a deterministic token estimate for text:
// each CJK rune counts as one token, each run of non-space, non-CJK
// characters counts as one token. Reproducible without a model
// tokenizer, which keeps context packing auditable.
func EstimateTokens(text string) int {
	tokens := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			tokens++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				tokens++
				inWord = true
			}
		}
	}
	return tokens
}
