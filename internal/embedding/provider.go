// Package embedding provides the client for the external embedding service
package embedding

import "context"

// Provider defines the interface for embedding providers
type Provider interface {
	// EmbedBatch generates one embedding per input text, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// GetDimensions returns the dimensionality of embeddings produced by this provider
	GetDimensions() int

	// GetName returns the provider name for identification
	GetName() string
}

// EmbedOne embeds a single text through the batch path
func EmbedOne(ctx context.Context, p Provider, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}
