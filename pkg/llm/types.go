package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

const (
	// ResponseFormatText leaves the completion unconstrained.
	ResponseFormatText = ""
	// ResponseFormatQuery constrains the completion to {"sql": string|null, "explanation": string}.
	ResponseFormatQuery = "query"
)

// Message is one prior turn replayed into a chat session.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a stateful chat call: prior turns plus one new message.
type ChatRequest struct {
	SystemInstruction string
	History           []Message
	Message           string
	ResponseFormat    string
	// MaxOutputTokens overrides the client default when positive.
	MaxOutputTokens int
}

// Client defines the interface for LLM interactions
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Complete(ctx context.Context, prompt string) (string, error)
	// IsRateLimited reports whether err is the provider's rate-limit signal.
	IsRateLimited(err error) bool
	GetModelInfo() ModelInfo
}

// ModelInfo contains information about the LLM model
type ModelInfo struct {
	Name                string `json:"name"`
	Provider            string `json:"provider"`
	MaxCompletionTokens int    `json:"maxCompletionTokens"`
}

// Config holds configuration for LLM clients
type Config struct {
	Provider            string
	Model               string
	APIKey              string
	MaxCompletionTokens int
	Temperature         float64
}

var rateLimitMarkers = []string{
	"429",
	"resource exhausted",
	"resource_exhausted",
	"resourceexhausted",
	"too many requests",
}

// matchesRateLimitText checks both the message and the formatted value of err,
// since providers put the status in either place.
func matchesRateLimitText(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error() + " " + fmt.Sprintf("%+v", err))
	for _, marker := range rateLimitMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
