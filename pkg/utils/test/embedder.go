package testutils

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/mnemohq/mnemo/pkg/embeddings"
)

// MockEmbedder is a deterministic embedder for tests. Identical inputs
// yield identical vectors, so similarity checks behave predictably.
type MockEmbedder struct {
	// Dimensions is the length of returned vectors.
	Dimensions int

	// FailEmbed causes Embed to return an error.
	FailEmbed bool
}

// NewMockEmbedder creates a mock embedder with the given dimensionality.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	return &MockEmbedder{Dimensions: dimensions}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.FailEmbed {
		return nil, errors.New("embed failed")
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, m.Dimensions)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return vec, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)
