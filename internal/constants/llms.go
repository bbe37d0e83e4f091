package constants

const (
	OpenAI = "openai"
	Gemini = "gemini"
)

// LLM client names registered in the llm.Manager.
const (
	GatewayLLMClient   = "gateway"
	AssistantLLMClient = "assistant"
)

// AssistantMaxOutputTokens caps the FAQ assistant replies.
const AssistantMaxOutputTokens = 800

// GetDefaultModel returns the model used when none is configured for provider.
func GetDefaultModel(provider string) string {
	switch provider {
	case OpenAI:
		return OpenAIModel
	default:
		return GeminiModel
	}
}
