package finchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultLLMBaseURL = "https://api.together.xyz/v1"
	defaultLLMModel   = "meta-llama/Llama-3-8b-chat-hf"
	defaultGeminiBase = "https://generativelanguage.googleapis.com/"

	// llmTemperature is the fixed sampling temperature for every completion.
	llmTemperature = 0.7

	llmRequestTimeout  = 2 * time.Minute
	maxLLMResponseBody = 2 << 20
)

// HTTPDoer is an interface for making HTTP requests. It enables dependency
// injection for testing without network calls.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type llmClientOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	Logger     *slog.Logger
	HTTPClient HTTPDoer // Optional: inject custom client for testing
}

// LLMClient issues chat-completion requests against an OpenAI-compatible
// endpoint. Models named gemini* are dispatched through the native Gemini
// API instead.
type LLMClient struct {
	endpoint string
	apiKey   string
	model    string
	logger   *slog.Logger
	client   HTTPDoer
}

// geminiCompletion is swappable in tests to avoid real Gemini calls.
var geminiCompletion = requestGeminiCompletion

func newLLMClient(opts llmClientOptions) (*LLMClient, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultLLMModel
	}
	endpoint, err := buildCompletionsEndpoint(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: llmRequestTimeout}
	}
	return &LLMClient{
		endpoint: endpoint,
		apiKey:   opts.APIKey,
		model:    model,
		logger:   logger,
		client:   client,
	}, nil
}

// buildCompletionsEndpoint normalizes a configured base URL into a full
// chat-completions endpoint.
func buildCompletionsEndpoint(baseURL string) (string, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultLLMBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")
	lower := strings.ToLower(trimmed)

	endpoint := ""
	switch {
	case strings.HasSuffix(lower, "/chat/completions"):
		endpoint = trimmed
	case strings.HasSuffix(lower, "/v1"):
		endpoint = trimmed + "/chat/completions"
	default:
		endpoint = trimmed + "/v1/chat/completions"
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid llm base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid llm base url scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid llm base url host")
	}
	return endpoint, nil
}

func isGeminiModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gemini")
}

// Complete sends a single synchronous chat completion and returns the first
// choice's message content verbatim.
func (c *LLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", NewError(ErrCodeInvalidInput, "prompt is required")
	}

	ctx, cancel := context.WithTimeout(ctx, llmRequestTimeout)
	defer cancel()

	if isGeminiModel(c.model) {
		return geminiCompletion(ctx, c.apiKey, c.model, prompt)
	}
	return c.completeChat(ctx, prompt)
}

func (c *LLMClient) completeChat(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": llmTemperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", WrapError(ErrCodeInternal, "marshal llm request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", WrapError(ErrCodeInternal, "build llm request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Info("llm request", "endpoint", c.endpoint, "model", c.model, "prompt_chars", len(prompt))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", WrapError(ErrCodeUpstream, "llm request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxLLMResponseBody))
	if err != nil {
		return "", WrapError(ErrCodeUpstream, "read llm response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("llm request failed", "status", resp.StatusCode, "body", truncateForLog(respBody))
		return "", NewError(ErrCodeUpstream, fmt.Sprintf("llm http status %d", resp.StatusCode))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", WrapError(ErrCodeUpstream, "decode llm response", err)
	}
	if len(decoded.Choices) == 0 {
		return "", NewError(ErrCodeUpstream, "llm response has no choices")
	}
	content := decoded.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", NewError(ErrCodeUpstream, "llm response content is empty")
	}
	return content, nil
}

func requestGeminiCompletion(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    defaultGeminiBase,
			APIVersion: "v1beta",
		},
	})
	if err != nil {
		return "", WrapError(ErrCodeUpstream, "create gemini client", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(llmTemperature)),
	}
	response, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", WrapError(ErrCodeUpstream, "gemini generate content", err)
	}
	content := strings.TrimSpace(response.Text())
	if content == "" {
		return "", NewError(ErrCodeUpstream, "gemini response content is empty")
	}
	return content, nil
}

func truncateForLog(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "…"
	}
	return string(body)
}
