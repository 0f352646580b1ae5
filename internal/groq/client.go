// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package groq provides Groq integration for cloud LLM inference.
//
// Groq serves OpenAI-compatible chat completions for a set of open-weight
// models. This package implements the client the diagram assistant talks
// through, with retry logic, client-side rate limiting, and validation.
package groq

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the Groq API.
const (
	// DefaultBaseURL is the base URL for Groq's OpenAI-compatible API.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for
	// transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize caps the response body size read into memory.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// requestsPerSecond bounds outgoing request rate. Groq free-tier
	// limits are generous but bursty retries still trip 429s.
	requestsPerSecond = 2
	requestBurst      = 4
)

// Error variables for common Groq API errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("Groq API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist server-side.
	ErrModelNotFound = errors.New("model not found")

	// ErrUnknownModel indicates the model is not in the accepted model list.
	ErrUnknownModel = errors.New("unknown model")
)

// APIError represents an error returned by the Groq API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("Groq error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("Groq error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single message in a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", or "system"
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// ChatRequest is the request body for the chat completions endpoint.
// Temperature is a pointer so an explicit 0 reaches the wire while an
// unset temperature is omitted and the API default applies.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is the response body from the chat completions endpoint.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice, or "" if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// ModelInfo describes a model available on the server.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
	Active  bool   `json:"active"`
	Context int    `json:"context_window"`
}

// modelsResponse is the response structure for listing models.
type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// apiErrorResponse is the error envelope the API returns.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the Groq chat completions API.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	model       string
	maxRetries  int
	limiter     *rate.Limiter
	temperature float64
	maxTokens   int
	verbose     bool
}

// NewClient creates a Groq client with sane defaults. The key may be empty;
// calls fail with ErrNotConfigured until one is set.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		model:      DefaultModel,
		maxRetries: DefaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		// Negative means unset; 0 is a real temperature.
		temperature: -1,
	}
}

// WithBaseURL overrides the API base URL.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimRight(url, "/")
	}
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithMaxRetries sets the retry budget for transient errors.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	if maxRetries > 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// WithLimiter replaces the client-side rate limiter.
func (c *Client) WithLimiter(limiter *rate.Limiter) *Client {
	if limiter != nil {
		c.limiter = limiter
	}
	return c
}

// WithTemperature sets the sampling temperature. Zero is valid and is
// sent; the API default applies only when no temperature was ever set.
func (c *Client) WithTemperature(temperature float64) *Client {
	if temperature >= 0 {
		c.temperature = temperature
	}
	return c
}

// WithMaxTokens caps the completion length (0 = API default).
func (c *Client) WithMaxTokens(maxTokens int) *Client {
	if maxTokens > 0 {
		c.maxTokens = maxTokens
	}
	return c
}

// WithVerboseLogging enables request/response logging to stderr.
// The API key never appears in the logs.
func (c *Client) WithVerboseLogging(verbose bool) *Client {
	c.verbose = verbose
	return c
}

// SetModel switches the model used for chat requests.
func (c *Client) SetModel(model string) error {
	if err := c.ValidateModel(model); err != nil {
		return err
	}
	c.model = model
	return nil
}

// GetModel returns the currently selected model.
func (c *Client) GetModel() string {
	return c.model
}

// SetAPIKey replaces the API key.
func (c *Client) SetAPIKey(apiKey string) {
	c.apiKey = strings.TrimSpace(apiKey)
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// APIKeyMasked returns a displayable form of the key (gsk_...abcd).
func (c *Client) APIKeyMasked() string {
	if c.apiKey == "" {
		return "(not set)"
	}
	if len(c.apiKey) <= 8 {
		return "****"
	}
	return c.apiKey[:4] + "..." + c.apiKey[len(c.apiKey)-4:]
}

// KeyFingerprint returns a short hash of the API key for log correlation.
// The key itself is never logged.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(sum[:])[:8]
}

// ValidateModel checks a model identifier against the accepted list.
func (c *Client) ValidateModel(model string) error {
	if model == "" {
		return fmt.Errorf("%w: empty model name", ErrUnknownModel)
	}
	if !TextModels[model] {
		return fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return nil
}

// =============================================================================
// LOGGING
// =============================================================================

func (c *Client) logRequest(method, url string) {
	if !c.verbose {
		return
	}
	log.Printf("groq: %s %s key=%s model=%s", method, url, c.KeyFingerprint(), c.model)
}

func (c *Client) logResponse(status int, duration time.Duration) {
	if !c.verbose {
		return
	}
	log.Printf("groq: <- %d in %s", status, duration.Round(time.Millisecond))
}

// =============================================================================
// CHAT
// =============================================================================

// Chat performs a chat completion request with the given messages,
// retrying transient errors with exponential backoff.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	return c.ChatWithModel(ctx, c.model, messages)
}

// ChatWithModel performs a chat completion against a specific model
// without changing the client's default.
func (c *Client) ChatWithModel(ctx context.Context, model string, messages []ChatMessage) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if err := c.ValidateModel(model); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, errors.New("groq: no messages to send")
	}

	url := c.baseURL + "/chat/completions"
	reqBody := ChatRequest{
		Model:     model,
		Messages:  messages,
		Stream:    false,
		MaxTokens: c.maxTokens,
	}
	if c.temperature >= 0 {
		reqBody.Temperature = &c.temperature
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		response, err := c.doRequest(ctx, url, reqBody)
		if err != nil {
			if c.isRetryable(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return response, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return nil, errors.New("max retries exceeded")
}

// Generate is a convenience wrapper for a single-prompt completion.
func (c *Client) Generate(ctx context.Context, prompt string) (*ChatResponse, error) {
	return c.Chat(ctx, []ChatMessage{NewUserMessage(prompt)})
}

// doRequest performs a single HTTP request to the chat completions endpoint.
func (c *Client) doRequest(ctx context.Context, requestURL string, reqBody ChatRequest) (*ChatResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	c.logRequest(req.Method, requestURL)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp.StatusCode, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "umldraft/0.1.0")
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		e := &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, e.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, e.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, e.Message)
		default:
			return e
		}
	}

	// Fallback for unparseable error bodies.
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{Message: string(body), Status: statusCode}
	}
}

// isRetryable determines whether an error should trigger a retry.
func (c *Client) isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return false
}

// calculateBackoff returns the delay before the next retry attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// =============================================================================
// MODELS
// =============================================================================

// ListModels retrieves the models available to this API key.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	c.logRequest(req.Method, c.baseURL+"/models")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp.StatusCode, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return parsed.Data, nil
}

// =============================================================================
// KEY VALIDATION
// =============================================================================

// ValidateAPIKey performs a shallow plausibility check on a key.
// Groq keys start with "gsk_".
func ValidateAPIKey(apiKey string) bool {
	apiKey = strings.TrimSpace(apiKey)
	return strings.HasPrefix(apiKey, "gsk_") && len(apiKey) > 10
}

// IsConfigured reports whether an API key is visible in the environment.
func IsConfigured() bool {
	return os.Getenv("GROQ_API_KEY") != ""
}
