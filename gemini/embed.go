package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

type batchEmbeddingRequest struct {
	Requests []embeddingRequest `json:"requests"`
}

// Batch responses carry values directly, without the nested "embedding" key.
type batchEmbeddingResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

// EmbedQuery embeds a retrieval query, with retry and exponential backoff.
// The returned vector is L2-normalized.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	reqBody := embeddingRequest{
		Model: "models/gemini-embedding-001",
		Content: contentInput{
			Parts: []partInput{{Text: text}},
		},
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: EmbeddingDimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", embeddingAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp embeddingResponse
			decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp)
			resp.Body.Close()
			if decodeErr != nil {
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
				}
				continue
			}

			vec := apiResp.Embedding.Values
			normalize(vec)
			return vec, nil
		}

		resp.Body.Close()

		// 400/401 will not succeed on retry
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode)
		}
		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

// EmbedDocuments embeds one batch of document texts via the batch endpoint.
// Vectors come back same-length and L2-normalized, in input order. The caller
// is responsible for batching to the API limit.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	requests := make([]embeddingRequest, len(texts))
	for i, text := range texts {
		requests[i] = embeddingRequest{
			Model: "models/gemini-embedding-001",
			Content: contentInput{
				Parts: []partInput{{Text: text}},
			},
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: EmbeddingDimensions,
		}
	}

	jsonData, err := json.Marshal(batchEmbeddingRequest{Requests: requests})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", batchAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %d - %s", resp.StatusCode, string(body))
	}

	var apiResp batchEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("mismatch: got %d embeddings for %d texts", len(apiResp.Embeddings), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for i := range apiResp.Embeddings {
		if len(apiResp.Embeddings[i].Values) == 0 {
			return nil, fmt.Errorf("text %d has empty embedding", i)
		}
		vectors[i] = apiResp.Embeddings[i].Values
		normalize(vectors[i])
	}

	return vectors, nil
}

// normalize scales a vector to unit L2 norm in place. Required for
// dimensionalities below the model's native size.
func normalize(vec []float64) {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
