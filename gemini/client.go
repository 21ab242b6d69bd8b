// Package gemini implements the embedding, generation, and precedent-lookup
// capabilities against the Gemini API. Services consume these through narrow
// interfaces; nothing outside this package speaks to the API.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	embeddingAPI  = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	batchAPI      = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:batchEmbedContents"
	generationAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-3-pro-preview:generateContent"

	streamModel = "gemini-3-pro-preview"

	maxRetries     = 3
	initialBackoff = time.Second
)

// EmbeddingDimensions is the fixed vector length requested from the model.
// The ranker fails fast on anything else.
const EmbeddingDimensions = 768

var (
	ErrEmbeddingFailed  = errors.New("failed to generate embedding")
	ErrGenerationFailed = errors.New("failed to generate content")
)

// Client talks to the Gemini API. Embedding and non-streaming generation go
// through the REST endpoints directly; the streaming chat path uses the genai
// SDK client.
type Client struct {
	apiKey      string
	httpClient  *http.Client
	genaiClient *genai.Client
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Client{
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		genaiClient: genaiClient,
	}, nil
}

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	if c.genaiClient != nil {
		return c.genaiClient.Close()
	}
	return nil
}
