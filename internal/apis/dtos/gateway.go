package dtos

// ConversationTurn is one prior message of the data chat as kept by the client.
type ConversationTurn struct {
	Role        string  `json:"role"`
	Text        string  `json:"text,omitempty"`
	SQL         *string `json:"sql,omitempty"`
	Explanation *string `json:"explanation,omitempty"`
}

type QueryGatewayRequest struct {
	Message          string             `json:"message"`
	PreviousMessages []ConversationTurn `json:"previousMessages"`
	Table            string             `json:"table"`
}

type QueryGatewayResponse struct {
	Text         string                   `json:"text"`
	GeneratedSQL string                   `json:"generatedSql,omitempty"`
	Data         []map[string]interface{} `json:"data"`
	Explanation  string                   `json:"explanation,omitempty"`
	// Truncated is set when the store stopped reading at the row cap.
	Truncated bool `json:"truncated,omitempty"`
}

// QueryArtifact is what the model returns for a question.
type QueryArtifact struct {
	SQL         *string `json:"sql"`
	Explanation string  `json:"explanation"`
}
