package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
)

// maxPromptChars bounds prompts against model context limits.
const maxPromptChars = 30000

// GenerateJSON requests a JSON response and decodes it into out. A response
// that fails to decode is reported as an error; callers treat it exactly like
// a generation failure.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error {
	fullPrompt := systemPrompt + "\n\n" + userPrompt
	if len(fullPrompt) > maxPromptChars {
		log.Printf("Warning: prompt too long (%d chars), truncating", len(fullPrompt))
		fullPrompt = fullPrompt[:maxPromptChars] + "\n\n[Content truncated due to length...]"
	}

	var content string
	var err error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		content, err = c.callGenerationAPI(ctx, fullPrompt, 0.2)
		if err == nil && content != "" {
			break
		}
		if attempt == maxRetries-1 {
			if err != nil {
				return fmt.Errorf("failed to generate structured output after %d attempts: %w", maxRetries, err)
			}
			return ErrGenerationFailed
		}
	}

	payload := stripCodeFences(content)
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to decode structured output: %w", err)
	}
	return nil
}

// GenerateStream streams generated tokens over a channel, with a terminal
// close as the done event. Cancelling ctx stops emission; the error channel
// carries at most one error.
func (c *Client) GenerateStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan error) {
	tokens := make(chan string, 16)
	errs := make(chan error, 1)

	model := c.genaiClient.GenerativeModel(streamModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	go func() {
		defer close(tokens)
		defer close(errs)

		iter := model.GenerateContentStream(ctx, genai.Text(userPrompt))
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errs <- fmt.Errorf("stream failed: %w", err)
				return
			}

			for _, candidate := range resp.Candidates {
				if candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					text, ok := part.(genai.Text)
					if !ok || text == "" {
						continue
					}
					select {
					case tokens <- string(text):
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return tokens, errs
}

// callGenerationAPI calls the Gemini generation REST endpoint directly,
// requesting a JSON response.
func (c *Client) callGenerationAPI(ctx context.Context, prompt string, temperature float64) (string, error) {
	generationConfig := map[string]interface{}{
		"temperature":      temperature,
		"responseMimeType": "application/json",
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": generationConfig,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", generationAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Printf("Gemini API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
		Error struct {
			Code    int    `json:"code,omitempty"`
			Message string `json:"message,omitempty"`
		} `json:"error,omitempty"`
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.Error.Message != "" {
		return "", fmt.Errorf("API error: %s (code: %d)", apiResp.Error.Message, apiResp.Error.Code)
	}
	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var responseText strings.Builder
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Printf("Warning: candidate %d finished with reason: %s", i, candidate.FinishReason)
		}
		if len(candidate.Content.Parts) == 0 {
			return "", fmt.Errorf("API candidate has no parts (finish reason: %s)", candidate.FinishReason)
		}
		for _, part := range candidate.Content.Parts {
			responseText.WriteString(part.Text)
		}
	}

	result := responseText.String()
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}
	return result, nil
}

// stripCodeFences unwraps a JSON payload the model wrapped in markdown fences.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	var kept []string
	inFence := false
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
