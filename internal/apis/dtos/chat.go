package dtos

// ChatHistoryPart mirrors the {text} parts some clients send.
type ChatHistoryPart struct {
	Text string `json:"text"`
}

// ChatHistoryTurn accepts both {role, text} and {role, parts: [{text}]}.
type ChatHistoryTurn struct {
	Role  string            `json:"role"`
	Text  string            `json:"text,omitempty"`
	Parts []ChatHistoryPart `json:"parts,omitempty"`
}

type PharmacyDetails struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type AssistantChatRequest struct {
	Message         string            `json:"message"`
	History         []ChatHistoryTurn `json:"history"`
	PharmacyDetails *PharmacyDetails  `json:"pharmacyDetails"`
}

type AssistantChatResponse struct {
	Text string `json:"text"`
}
