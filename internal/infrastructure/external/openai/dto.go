package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHAT COMPLETION ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// chatCompletionRequest is the /v1/chat/completions request body.
type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat asks the API for a JSON object response. Older models
// ignore it, so the parser still strips code fences before decoding.
type responseFormat struct {
	Type string `json:"type"`
}

// chatCompletionResponse is the /v1/chat/completions response body.
type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// content returns the first choice's message content, or an error when the
// API returned no usable choice.
func (r *chatCompletionResponse) content() (string, error) {
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformedResponse)
	}
	content := strings.TrimSpace(r.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion content", ErrMalformedResponse)
	}
	return content, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// API ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// APIError is the OpenAI error envelope, carried with the HTTP status.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       string `json:"code"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("openai api error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsRetryable reports whether a retry could plausibly succeed.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// apiErrorEnvelope wraps the API's error field.
type apiErrorEnvelope struct {
	Error *APIError `json:"error"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MODEL OUTPUT PAYLOADS
// ══════════════════════════════════════════════════════════════════════════════

// ErrMalformedResponse is returned when the model's output cannot be strictly
// parsed into the expected shape. Callers never guess at partial output.
var ErrMalformedResponse = errors.New("openai: malformed model response")

// maxEntryAwardXP bounds what a single journal entry can award to one stat,
// no matter what the model claims.
const maxEntryAwardXP = 50

// maxTitleLen bounds generated titles so they fit the sheet display.
const maxTitleLen = 60

// titlePayload is the expected model output for title generation.
type titlePayload struct {
	Title string `json:"title"`
}

func (p titlePayload) validate() (string, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return "", fmt.Errorf("%w: empty title", ErrMalformedResponse)
	}
	if len(title) > maxTitleLen {
		return "", fmt.Errorf("%w: title exceeds %d characters", ErrMalformedResponse, maxTitleLen)
	}
	return title, nil
}

// awardPayload is one per-stat award in the model's analysis output.
type awardPayload struct {
	Category string `json:"category"`
	XP       int    `json:"xp"`
}

// analysisPayload is the expected model output for journal analysis.
type analysisPayload struct {
	Summary string         `json:"summary"`
	Awards  []awardPayload `json:"awards"`
}

// toAnalysis strictly converts the payload into a domain Analysis. Unknown
// categories, non-positive XP, out-of-bound XP, or duplicate categories all
// reject the whole response.
func (p analysisPayload) toAnalysis() (journal.Analysis, error) {
	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		return journal.Analysis{}, fmt.Errorf("%w: empty summary", ErrMalformedResponse)
	}

	seen := make(map[shared.StatCategory]bool, len(p.Awards))
	awards := make([]journal.StatAward, 0, len(p.Awards))
	for _, a := range p.Awards {
		category := shared.StatCategory(strings.ToLower(strings.TrimSpace(a.Category)))
		if !category.IsValid() {
			return journal.Analysis{}, fmt.Errorf("%w: unknown category %q", ErrMalformedResponse, a.Category)
		}
		if seen[category] {
			return journal.Analysis{}, fmt.Errorf("%w: duplicate category %q", ErrMalformedResponse, category)
		}
		if a.XP <= 0 || a.XP > maxEntryAwardXP {
			return journal.Analysis{}, fmt.Errorf("%w: award %d XP for %q out of range [1,%d]",
				ErrMalformedResponse, a.XP, category, maxEntryAwardXP)
		}
		seen[category] = true
		awards = append(awards, journal.StatAward{
			Category: category,
			XP:       shared.XP(a.XP),
		})
	}

	return journal.Analysis{
		Summary: summary,
		Awards:  awards,
	}, nil
}

// TaskSuggestion is one AI-proposed task, ready to be created as pending.
type TaskSuggestion struct {
	Title       string
	Description string
	Category    shared.StatCategory
	Difficulty  task.Difficulty
}

// suggestionPayload is one suggested task in the model's output.
type suggestionPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
}

// suggestionsPayload is the expected model output for task suggestion.
type suggestionsPayload struct {
	Tasks []suggestionPayload `json:"tasks"`
}

func (p suggestionsPayload) toSuggestions() ([]TaskSuggestion, error) {
	if len(p.Tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks suggested", ErrMalformedResponse)
	}

	suggestions := make([]TaskSuggestion, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: suggested task with empty title", ErrMalformedResponse)
		}
		category := shared.StatCategory(strings.ToLower(strings.TrimSpace(t.Category)))
		if !category.IsValid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrMalformedResponse, t.Category)
		}
		difficulty := task.Difficulty(strings.ToLower(strings.TrimSpace(t.Difficulty)))
		if !difficulty.IsValid() {
			return nil, fmt.Errorf("%w: unknown difficulty %q", ErrMalformedResponse, t.Difficulty)
		}
		suggestions = append(suggestions, TaskSuggestion{
			Title:       title,
			Description: strings.TrimSpace(t.Description),
			Category:    category,
			Difficulty:  difficulty,
		})
	}

	return suggestions, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PARSING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// extractJSON strips markdown code fences that some models wrap around JSON
// output despite response_format.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}

// parseStrict unmarshals model output, rejecting unknown fields so a drifted
// response shape fails loudly instead of half-filling the payload.
func parseStrict(content string, dest interface{}) error {
	dec := json.NewDecoder(strings.NewReader(extractJSON(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
