package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/journal"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/pkg/circuitbreaker"
	"github.com/lifequest/lifequest-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the OpenAI client.
type ClientConfig struct {
	// BaseURL is the API base URL (override for proxies and tests)
	BaseURL string

	// APIKey is the OpenAI API key
	APIKey string

	// Model is the chat model used for all completions
	Model string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Temperature controls output randomness. Titles and suggestions want
	// some flavor; analysis wants less, so AnalyzeEntry halves it.
	Temperature float64

	// MaxTokens bounds completion length
	MaxTokens int

	// RateLimiterConfig for request pacing
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:           "https://api.openai.com",
		APIKey:            apiKey,
		Model:             "gpt-4o-mini",
		Timeout:           30 * time.Second,
		Temperature:       0.8,
		MaxTokens:         600,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the OpenAI chat completions client. It backs three capabilities:
// level title generation, journal entry analysis, and daily task suggestion.
// All of them are flavor; callers degrade gracefully when the client fails.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
}

// NewClient creates a new OpenAI client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger.With("component", "openai_client")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker: circuitbreaker.OpenAIBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
		retrier: retry.OpenAIRetrier(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TITLE GENERATION
// ══════════════════════════════════════════════════════════════════════════════

const titleSystemPrompt = `You are the narrator of a life-gamification RPG.
Players level up real-life stats (physical, mental, social, craft, spirit,
wealth) and you award short, evocative titles for freshly reached levels.
Respond with a JSON object {"title": "..."}. The title must be at most 60
characters, contain no quotes, and must not mention the level number.`

// GenerateTitle produces a display title for a freshly reached level.
// Implements character.TitleGenerator.
func (c *Client) GenerateTitle(ctx context.Context, req character.TitleRequest) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Stat: %s. New level: %d.", req.Category.DisplayName(), req.NewLevel.Int())
	if req.Class != "" {
		fmt.Fprintf(&sb, " Character class: %s.", req.Class)
	}
	if req.Backstory != "" {
		fmt.Fprintf(&sb, " Backstory: %s", req.Backstory)
	}

	content, err := c.complete(ctx, titleSystemPrompt, sb.String(), c.config.Temperature)
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}

	var payload titlePayload
	if err := parseStrict(content, &payload); err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}
	return payload.validate()
}

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL ANALYSIS
// ══════════════════════════════════════════════════════════════════════════════

const analysisSystemPrompt = `You analyze a player's journal entry for a
life-gamification RPG and decide which real-life stats the described
activities exercised. Valid categories: physical, mental, social, craft,
spirit, wealth. Award between 1 and 50 XP per category, at most one award
per category, and only for activities actually described in the entry.
Respond with a JSON object:
{"summary": "one sentence recap", "awards": [{"category": "...", "xp": N}]}.
An entry describing nothing XP-worthy gets an empty awards array.`

// AnalyzeEntry turns an entry's text into per-stat XP awards.
// Implements command.EntryAnalyzer. Malformed model output is an error;
// the caller stores the entry without awards rather than guessing.
func (c *Client) AnalyzeEntry(ctx context.Context, body string, mood journal.Mood) (journal.Analysis, error) {
	var sb strings.Builder
	if mood != "" {
		fmt.Fprintf(&sb, "Player mood: %s.\n", mood)
	}
	sb.WriteString("Journal entry:\n")
	sb.WriteString(body)

	// Analysis decides XP, so it runs cooler than the flavor prompts.
	content, err := c.complete(ctx, analysisSystemPrompt, sb.String(), c.config.Temperature/2)
	if err != nil {
		return journal.Analysis{}, fmt.Errorf("analyze entry: %w", err)
	}

	var payload analysisPayload
	if err := parseStrict(content, &payload); err != nil {
		return journal.Analysis{}, fmt.Errorf("analyze entry: %w", err)
	}
	return payload.toAnalysis()
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK SUGGESTION
// ══════════════════════════════════════════════════════════════════════════════

const suggestionSystemPrompt = `You are the quest-giver of a life-gamification
RPG. Suggest small, concrete real-life tasks the player could do today.
Valid categories: physical, mental, social, craft, spirit, wealth.
Valid difficulties: easy, medium, hard, epic. Respond with a JSON object:
{"tasks": [{"title": "...", "description": "...", "category": "...",
"difficulty": "..."}]}.`

// SuggestTasksRequest shapes the daily suggestion prompt around one character.
type SuggestTasksRequest struct {
	Class     string
	Backstory string

	// WeakestCategories steers suggestions toward neglected stats.
	WeakestCategories []shared.StatCategory

	// Count is how many tasks to ask for.
	Count int
}

// SuggestTasks asks the model for daily task suggestions.
func (c *Client) SuggestTasks(ctx context.Context, req SuggestTasksRequest) ([]TaskSuggestion, error) {
	count := req.Count
	if count <= 0 {
		count = 3
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggest exactly %d tasks.", count)
	if req.Class != "" {
		fmt.Fprintf(&sb, " Character class: %s.", req.Class)
	}
	if len(req.WeakestCategories) > 0 {
		names := make([]string, len(req.WeakestCategories))
		for i, cat := range req.WeakestCategories {
			names[i] = cat.String()
		}
		fmt.Fprintf(&sb, " Favor these neglected stats: %s.", strings.Join(names, ", "))
	}
	if req.Backstory != "" {
		fmt.Fprintf(&sb, " Backstory: %s", req.Backstory)
	}

	content, err := c.complete(ctx, suggestionSystemPrompt, sb.String(), c.config.Temperature)
	if err != nil {
		return nil, fmt.Errorf("suggest tasks: %w", err)
	}

	var payload suggestionsPayload
	if err := parseStrict(content, &payload); err != nil {
		return nil, fmt.Errorf("suggest tasks: %w", err)
	}
	return payload.toSuggestions()
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// complete runs one chat completion through the rate limiter, circuit
// breaker and retrier, returning the completion content.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	reqBody := chatCompletionRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    temperature,
		MaxTokens:      c.config.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var content string
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Allow(ctx); err != nil {
				return retry.Permanent(fmt.Errorf("rate limiter: %w", err))
			}

			result, err := c.doSingleRequest(ctx, reqBody)
			if err != nil {
				return classify(err, c.rateLimiter)
			}
			content = result
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// doSingleRequest performs a single chat completion request.
func (c *Client) doSingleRequest(ctx context.Context, reqBody chatCompletionRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	if c.config.Debug {
		c.logger.Debug("openai request", "model", reqBody.Model)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 30 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return "", &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "openai rate limit exceeded",
		}
	}

	if resp.StatusCode >= 400 {
		var envelope apiErrorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != nil {
			envelope.Error.StatusCode = resp.StatusCode
			return "", envelope.Error
		}
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Type:       "http_error",
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if c.config.Debug {
		c.logger.Debug("openai response",
			"latency", time.Since(start),
			"prompt_tokens", completion.Usage.PromptTokens,
			"completion_tokens", completion.Usage.CompletionTokens)
	}

	return completion.content()
}

// classify maps a transport error to the retrier's retryable/permanent split.
// Rate limit hits also throttle the local pacer.
func classify(err error, rl *RateLimiter) error {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		rl.RecordRateLimitHit(rateLimitErr.RetryAfter)
		return retry.Retryable(err)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsRetryable() {
			return retry.Retryable(err)
		}
		return retry.Permanent(err)
	}

	if errors.Is(err, ErrMalformedResponse) {
		return retry.Permanent(err)
	}

	// Network-level failures are worth another attempt.
	return retry.Retryable(err)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ClientStatus is the current state of the client's protective layers.
type ClientStatus struct {
	RateLimiter    RateLimiterStatus
	CircuitBreaker circuitbreaker.State
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:    c.rateLimiter.Status(),
		CircuitBreaker: c.breaker.State(),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.breaker.Reset()
}
