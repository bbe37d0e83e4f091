package constants

const (
	OpenAIModel               = "gpt-4o"
	OpenAITemperature         = 0.2
	OpenAIMaxCompletionTokens = 2048
)
