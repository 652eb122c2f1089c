package driving

import (
	"context"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// ContextRequest parameterises retrieval-context assembly.
type ContextRequest struct {
	// Query is the natural-language question. Required.
	Query string

	// TokenBudget caps the total token cost of returned segments.
	// Zero uses the configured default.
	TokenBudget int

	// TopK is the requested number of context items before packing.
	// Zero uses the configured default.
	TopK int

	// Filter restricts candidates before similarity ranking.
	Filter *domain.QueryFilter

	// SessionID links the query to a conversation for repetition decay.
	// Empty disables session tracking.
	SessionID string
}

// Answer is a generated response with its supporting context.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Context is the retrieval context the answer was grounded in.
	Context *domain.RetrievalContext
}

// QuestionService answers questions over the indexed corpus.
type QuestionService interface {
	// BuildContext assembles a budgeted retrieval context for a query
	// without generating an answer.
	BuildContext(ctx context.Context, req ContextRequest) (*domain.RetrievalContext, error)

	// Ask assembles a retrieval context and generates a grounded answer.
	Ask(ctx context.Context, req ContextRequest) (*Answer, error)
}
