package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/constants"
	"pbm-portal/pkg/llm"
	"strings"
	"unicode/utf8"
)

// BuildGatewaySystemPrompt returns the SQL generation instructions for table.
func BuildGatewaySystemPrompt(table string) string {
	schema := fmt.Sprintf(constants.HistoricalTableSchema, table)
	prompt := strings.ReplaceAll(constants.GatewaySystemPrompt, constants.SchemaPlaceholder, schema)
	return strings.ReplaceAll(prompt, constants.TablePlaceholder, table)
}

// BuildGatewayUserPrompt wraps the question for the SQL generation chat.
func BuildGatewayUserPrompt(question string) string {
	return fmt.Sprintf(constants.GatewayUserPrompt, question)
}

// BuildGatewayHistory converts client turns into chat history. Turns before
// the first user turn are dropped. Model turns are replayed as the JSON object
// the model would have produced, so the format reinforces itself. An empty
// result is replaced by the greeting exchange.
func BuildGatewayHistory(turns []dtos.ConversationTurn) []llm.Message {
	first := -1
	for i, turn := range turns {
		if turn.Role == llm.RoleUser {
			first = i
			break
		}
	}
	if first == -1 {
		return greetingHistory()
	}

	history := make([]llm.Message, 0, len(turns)-first)
	for _, turn := range turns[first:] {
		if turn.Role == llm.RoleUser {
			history = append(history, llm.Message{Role: llm.RoleUser, Content: turn.Text})
			continue
		}
		history = append(history, llm.Message{Role: llm.RoleModel, Content: encodeModelTurn(turn)})
	}
	return history
}

func greetingHistory() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleUser, Content: constants.GatewayGreetingUser},
		{Role: llm.RoleModel, Content: encodeArtifact(dtos.QueryArtifact{Explanation: constants.GatewayGreetingModel})},
	}
}

func encodeModelTurn(turn dtos.ConversationTurn) string {
	if turn.SQL != nil && *turn.SQL != "" {
		explanation := constants.GatewayDefaultExplanation
		if turn.Explanation != nil && *turn.Explanation != "" {
			explanation = *turn.Explanation
		}
		return encodeArtifact(dtos.QueryArtifact{SQL: turn.SQL, Explanation: explanation})
	}
	return encodeArtifact(dtos.QueryArtifact{Explanation: turn.Text})
}

func encodeArtifact(artifact dtos.QueryArtifact) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(artifact); err != nil {
		return `{"sql":null,"explanation":""}`
	}
	return strings.TrimRight(buf.String(), "\n")
}

// BuildSummaryPrompt embeds the question, the SQL as the model wrote it and at
// most the first 5000 characters of the rows as JSON.
func BuildSummaryPrompt(question, sql string, rows []map[string]interface{}) string {
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	rowsJSON := "[]"
	if err := enc.Encode(rows); err == nil {
		rowsJSON = strings.TrimRight(buf.String(), "\n")
	}

	marker := ""
	if len(rows) > constants.SummaryTruncateAfter {
		marker = constants.SummaryTruncatedMarker
	}
	return fmt.Sprintf(constants.GatewaySummaryPrompt, question, sql,
		truncateRunes(rowsJSON, constants.SummaryRowsJSONMaxChars), marker)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// ParseQueryArtifact decodes the model output. When plain decoding fails the
// Markdown code fences are removed and decoding is tried once more.
func ParseQueryArtifact(text string) (*dtos.QueryArtifact, error) {
	var artifact dtos.QueryArtifact
	if err := json.Unmarshal([]byte(text), &artifact); err == nil {
		return &artifact, nil
	}

	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	var retried dtos.QueryArtifact
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &retried); err != nil {
		return nil, fmt.Errorf("model output is not a query artifact: %w", err)
	}
	return &retried, nil
}
