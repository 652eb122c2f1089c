package driven

import "context"

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// Returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of produced vectors.
	Dimensions() int

	// ModelVersion identifies the model producing the vectors. Vectors
	// from different model versions are not comparable.
	ModelVersion() string

	// Ping verifies the service is reachable and the model is available.
	Ping(ctx context.Context) error

	// Close releases any resources held by the service.
	Close() error
}

// AnswerGenerator produces a grounded natural-language answer from a
// question and its assembled retrieval context.
type AnswerGenerator interface {
	// Generate returns an answer constrained to the supplied context.
	Generate(ctx context.Context, question string, items []string) (string, error)

	// Ping verifies the generator backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the generator.
	Close() error
}
