// Package local provides a deterministic, fully offline embedding
// service based on token feature hashing. It exists for air-gapped
// deployments and tests; retrieval quality is well below a learned
// model, but identical text always embeds to the identical vector.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions   = 256
	DefaultModelVersion = "local-hash-v1"
)

// EmbeddingService embeds text by hashing tokens into a fixed-size
// vector and normalising the result.
type EmbeddingService struct {
	dimensions   int
	modelVersion string
}

// NewEmbeddingService creates a local hashing embedder. Zero values
// select the defaults.
func NewEmbeddingService(dimensions int, modelVersion string) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	if modelVersion == "" {
		modelVersion = DefaultModelVersion
	}
	return &EmbeddingService{dimensions: dimensions, modelVersion: modelVersion}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, s.dimensions)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		idx := int(sum % uint32(s.dimensions))
		// The high bit decides the sign so hash collisions partially
		// cancel instead of always accumulating.
		if sum&0x80000000 != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) * inv)
		}
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelVersion returns the version tag for vectors produced by this
// service.
func (s *EmbeddingService) ModelVersion() string {
	return s.modelVersion
}

// Ping always succeeds; the embedder has no external dependency.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// tokenize splits text into CJK runes and lower-cased word runs. CJK
// bigrams are added so adjacent characters contribute phrase features.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	var prevCJK rune

	flushWord := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToLower(word.String()))
			word.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushWord()
			tokens = append(tokens, string(r))
			if prevCJK != 0 {
				tokens = append(tokens, string(prevCJK)+string(r))
			}
			prevCJK = r
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
			prevCJK = 0
		default:
			flushWord()
			prevCJK = 0
		}
	}
	flushWord()
	return tokens
}
