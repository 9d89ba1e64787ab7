package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAIChatURL       = "https://api.openai.com/v1/chat/completions"
	openAIEmbeddingsURL = "https://api.openai.com/v1/embeddings"
	openAIEmbedModel    = "text-embedding-3-small"
)

// OpenAIClient is the second vendor behind the Provider contract. It talks
// to the OpenAI HTTP API directly. Implements TextGenerator and Embedder.
type OpenAIClient interface {
	TextGenerator
	Embedder
}

type openAIClient struct {
	apiKey string
	model  string
	client *http.Client
}

func NewOpenAIClient(apiKey, model string) OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAIClient{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type openAIEmbeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *openAIError `json:"error,omitempty"`
}

// GenerateText implements TextGenerator.
func (c *openAIClient) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	reqBody := openAIChatRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: float64(temperature),
		MaxTokens:   4096,
	}

	body, err := c.post(ctx, openAIChatURL, reqBody)
	if err != nil {
		return "", err
	}

	var resp openAIChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no text content in response")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateEmbedding implements Embedder.
func (c *openAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if len(text) > 40000 {
		text = text[:40000]
	}

	// Pinned to the shared index vector size so either vendor can back
	// the same collection.
	body, err := c.post(ctx, openAIEmbeddingsURL, openAIEmbeddingRequest{
		Model:      openAIEmbedModel,
		Input:      text,
		Dimensions: 768,
	})
	if err != nil {
		return nil, err
	}

	var resp openAIEmbeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openai API error: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return resp.Data[0].Embedding, nil
}

func (c *openAIClient) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call openai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
