package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"pbm-portal/internal/constants"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client              *genai.Client
	model               string
	maxCompletionTokens int
	temperature         float64
}

func NewGeminiClient(config Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	// Create the Gemini SDK client using the provided API key.
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := config.Model
	if model == "" {
		model = constants.GetDefaultModel(constants.Gemini)
	}

	return &GeminiClient{
		client:              client,
		model:               model,
		maxCompletionTokens: config.MaxCompletionTokens,
		temperature:         config.Temperature,
	}, nil
}

func (c *GeminiClient) newModel(maxOutputTokens int) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.model)
	if maxOutputTokens <= 0 {
		maxOutputTokens = c.maxCompletionTokens
	}
	if maxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(maxOutputTokens))
	}
	model.SetTemperature(float32(c.temperature))
	return model
}

func (c *GeminiClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	model := c.newModel(req.MaxOutputTokens)
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}
	if req.ResponseFormat == ResponseFormatQuery {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = constants.GeminiQueryResponseSchema
	}

	session := model.StartChat()
	session.History = toGeminiHistory(req.History)

	log.Debug().Str("component", "gemini").Int("history", len(session.History)).Msg("Chat -> sending message")
	result, err := session.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	return responseText(result)
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.newModel(0)
	result, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	return responseText(result)
}

func (c *GeminiClient) IsRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	return matchesRateLimitText(err)
}

// GetModelInfo returns information about the Gemini model.
func (c *GeminiClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:                c.model,
		Provider:            constants.Gemini,
		MaxCompletionTokens: c.maxCompletionTokens,
	}
}

// Close releases the underlying SDK connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func toGeminiHistory(messages []Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := RoleUser
		if msg.Role == RoleModel {
			role = RoleModel
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history
}

func responseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini")
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
