package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/singabi/dbkb/internal/config"
	"github.com/singabi/dbkb/internal/errors"
)

// OpenAIProvider talks to an OpenAI-compatible /embeddings endpoint.
// OpenRouter and local gateways that speak the same wire format work by
// overriding the base URL.
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

// NewOpenAIProvider creates a provider from the embedding configuration
func NewOpenAIProvider(cfg config.EmbeddingConfig, client *http.Client) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrTypeConfig, "embedding API key is not set").
			WithSuggestion("Set OPENAI_API_KEY (or add it to .env)")
	}

	if client == nil {
		client = &http.Client{}
	}

	return &OpenAIProvider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     client,
	}, nil
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// EmbedBatch sends one request for the whole batch and returns the vectors
// in input order. A dimension mismatch against the configured size is an
// error: silently storing differently sized vectors would corrupt the index.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embeddingRequest{
		Model:      p.model,
		Input:      texts,
		Dimensions: p.dimensions,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "failed to encode embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "failed to create embedding request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "embedding request failed").
			WithSuggestion("Check DBKB_EMBEDDING_BASE_URL and network connectivity")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "failed to read embedding response")
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeEmbedding,
			"failed to parse embedding response (status %d)", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}

		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding service returned status %d: %s", resp.StatusCode, msg)
	}

	if len(parsed.Data) != len(texts) {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding count mismatch: sent %d texts, got %d vectors",
			len(texts), len(parsed.Data))
	}

	vectors := make([][]float32, len(texts))

	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, errors.Newf(errors.ErrTypeEmbedding,
				"embedding response index out of range: %d", item.Index)
		}

		if len(item.Embedding) != p.dimensions {
			return nil, errors.Newf(errors.ErrTypeEmbedding,
				"dimension mismatch: expected %d, got %d", p.dimensions, len(item.Embedding))
		}

		vectors[item.Index] = item.Embedding
	}

	return vectors, nil
}

// GetDimensions returns the configured embedding dimensionality
func (p *OpenAIProvider) GetDimensions() int {
	return p.dimensions
}

// GetName returns the provider name for identification
func (p *OpenAIProvider) GetName() string {
	return fmt.Sprintf("openai-compatible (%s)", p.model)
}
