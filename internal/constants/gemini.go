package constants

import "github.com/google/generative-ai-go/genai"

const (
	GeminiModel               = "gemini-2.0-flash"
	GeminiTemperature         = 0.2
	GeminiMaxCompletionTokens = 2048
)

// GeminiQueryResponseSchema constrains the SQL generation chat to the query artifact.
var GeminiQueryResponseSchema = &genai.Schema{
	Type:     genai.TypeObject,
	Required: []string{"explanation"},
	Properties: map[string]*genai.Schema{
		"sql": &genai.Schema{
			Type:     genai.TypeString,
			Nullable: true,
		},
		"explanation": &genai.Schema{
			Type: genai.TypeString,
		},
	},
}
