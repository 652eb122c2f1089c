package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
)

// Ensure Question implements the interface.
var _ driving.QuestionService = (*Question)(nil)

// maxSessionTurns bounds the per-session history used for repetition
// decay.
const maxSessionTurns = 8

// repetitionDecay is applied once per prior turn a segment appeared in.
const repetitionDecay = 0.5

// Question assembles token-budgeted retrieval contexts and generates
// grounded answers over them.
type Question struct {
	cfg       domain.PipelineConfig
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	segments  driven.SegmentStore
	versions  driven.VersionStore
	generator driven.AnswerGenerator
	metrics   driven.Metrics

	mu       sync.Mutex
	sessions map[string]*domain.SessionState
}

// NewQuestion creates a question service. The generator may be nil, in
// which case Ask is unavailable but BuildContext still works.
func NewQuestion(
	cfg domain.PipelineConfig,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	segments driven.SegmentStore,
	versions driven.VersionStore,
	generator driven.AnswerGenerator,
	metrics driven.Metrics,
) *Question {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	cfg = cfg.Normalize()
	if cfg.ModelVersion == "" && embedder != nil {
		cfg.ModelVersion = embedder.ModelVersion()
	}
	return &Question{
		cfg:       cfg,
		embedder:  embedder,
		index:     index,
		segments:  segments,
		versions:  versions,
		generator: generator,
		metrics:   metrics,
		sessions:  make(map[string]*domain.SessionState),
	}
}

// candidate is a hydrated vector hit awaiting ranking and packing.
type candidate struct {
	segment    domain.Segment
	documentID string
	docType    domain.DocType
	sequence   int
	score      float64
}

// BuildContext assembles a budgeted retrieval context for a query.
// Candidates are over-fetched, hydrated, deduplicated, re-ranked by a
// blended score, then packed greedily as whole segments until the token
// budget or item count is reached.
func (q *Question) BuildContext(ctx context.Context, req driving.ContextRequest) (*domain.RetrievalContext, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query must not be empty: %w", domain.ErrInvalidInput)
	}
	started := time.Now()
	budget := req.TokenBudget
	if budget <= 0 {
		budget = q.cfg.TokenBudget
	}
	topK := req.TopK
	if topK <= 0 {
		topK = q.cfg.TopK
	}

	vector, err := q.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := q.index.Query(ctx, vector, q.cfg.ModelVersion, topK*q.cfg.OverfetchFactor, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	seen := q.sessionCounts(req.SessionID)

	//nolint:prealloc // dedup shrinks the set
	var candidates []candidate
	for _, hit := range hits {
		seg, err := q.segments.GetSegment(ctx, hit.SegmentID)
		if err != nil {
			return nil, fmt.Errorf("hydrating segment %s: %w", hit.SegmentID, err)
		}
		doc, err := q.versions.GetDocumentByRevision(ctx, seg.RevisionID)
		if err != nil {
			return nil, fmt.Errorf("resolving document of revision %s: %w", seg.RevisionID, err)
		}
		rev, err := q.versions.GetRevision(ctx, doc.ID, seg.RevisionID)
		if err != nil {
			return nil, fmt.Errorf("resolving revision %s: %w", seg.RevisionID, err)
		}

		score := hit.Score * authorityBoost(doc.DocType)
		for i := 0; i < seen[seg.ID]; i++ {
			score *= repetitionDecay
		}

		candidates = append(candidates, candidate{
			segment:    *seg,
			documentID: doc.ID,
			docType:    doc.DocType,
			sequence:   rev.Sequence,
			score:      score,
		})
	}

	// Score descending, newer revisions first on equal score, segment ID
	// as the final stable tie-break.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].sequence != candidates[j].sequence {
			return candidates[i].sequence > candidates[j].sequence
		}
		return candidates[i].segment.ID < candidates[j].segment.ID
	})

	retrieval := &domain.RetrievalContext{
		QueryID:     uuid.NewString(),
		TokenBudget: budget,
	}
	for _, cand := range candidates {
		if len(retrieval.Items) >= topK {
			break
		}
		if duplicates(retrieval.Items, cand) {
			continue
		}
		tokens := domain.EstimateTokens(cand.segment.Text)
		if retrieval.TokensUsed+tokens > budget {
			// Segments are packed whole; a too-large segment is skipped,
			// not truncated, so later smaller segments can still fit.
			continue
		}
		retrieval.Items = append(retrieval.Items, domain.ContextItem{
			Segment:    cand.segment,
			DocumentID: cand.documentID,
			DocType:    cand.docType,
			Score:      cand.score,
			Tokens:     tokens,
		})
		retrieval.TokensUsed += tokens
	}

	q.recordTurn(req.SessionID, retrieval.Items)
	q.metrics.ObserveQueryResults(len(retrieval.Items))
	q.metrics.ObserveRetrievalLatency(time.Since(started))

	return retrieval, nil
}

// Ask assembles a retrieval context and generates a grounded answer.
func (q *Question) Ask(ctx context.Context, req driving.ContextRequest) (*driving.Answer, error) {
	if q.generator == nil {
		return nil, fmt.Errorf("no answer generator configured: %w", domain.ErrGeneratorUnavailable)
	}

	retrieval, err := q.BuildContext(ctx, req)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(retrieval.Items))
	for i, item := range retrieval.Items {
		texts[i] = item.Segment.Text
	}

	text, err := q.generator.Generate(ctx, req.Query, texts)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &driving.Answer{Text: text, Context: retrieval}, nil
}

// sessionCounts returns how many prior turns each segment appeared in
// for the session. Empty session IDs yield no history.
func (q *Question) sessionCounts(sessionID string) map[string]int {
	counts := make(map[string]int)
	if sessionID == "" {
		return counts
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	state, ok := q.sessions[sessionID]
	if !ok {
		return counts
	}
	for _, turn := range state.Turns {
		for _, id := range turn.SegmentIDs {
			counts[id]++
		}
	}
	return counts
}

// recordTurn appends the packed segments to the session history,
// dropping the oldest turn past the cap.
func (q *Question) recordTurn(sessionID string, items []domain.ContextItem) {
	if sessionID == "" || len(items) == 0 {
		return
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.Segment.ID
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	state, ok := q.sessions[sessionID]
	if !ok {
		state = &domain.SessionState{SessionID: sessionID}
		q.sessions[sessionID] = state
	}
	state.Turns = append(state.Turns, domain.SessionTurn{SegmentIDs: ids})
	if len(state.Turns) > maxSessionTurns {
		state.Turns = state.Turns[len(state.Turns)-maxSessionTurns:]
	}
}

// authorityBoost weights candidates by document authority: statutes
// over decisions over everything else.
func authorityBoost(docType domain.DocType) float64 {
	switch docType {
	case domain.DocTypeStatute:
		return 1.2
	case domain.DocTypeDecision:
		return 1.1
	default:
		return 1.0
	}
}

// duplicates reports whether a candidate repeats an already-packed item
// from the same document, either exactly or by text containment.
func duplicates(items []domain.ContextItem, cand candidate) bool {
	for _, item := range items {
		if item.Segment.ID == cand.segment.ID {
			return true
		}
		if item.DocumentID != cand.documentID {
			continue
		}
		if strings.Contains(item.Segment.Text, cand.segment.Text) ||
			strings.Contains(cand.segment.Text, item.Segment.Text) {
			return true
		}
	}
	return false
}
