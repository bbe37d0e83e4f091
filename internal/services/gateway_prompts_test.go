package services

import (
	"fmt"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/constants"
	"pbm-portal/pkg/llm"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestBuildGatewayHistory_SeedsGreetingWhenEmpty(t *testing.T) {
	for _, turns := range [][]dtos.ConversationTurn{
		nil,
		{{Role: "model", Text: "Bienvenido"}},
	} {
		history := BuildGatewayHistory(turns)
		if len(history) != 2 {
			t.Fatalf("len = %d, want 2", len(history))
		}
		if history[0].Role != llm.RoleUser || history[0].Content != constants.GatewayGreetingUser {
			t.Errorf("first = %+v", history[0])
		}
		want := `{"sql":null,"explanation":"` + constants.GatewayGreetingModel + `"}`
		if history[1].Role != llm.RoleModel || history[1].Content != want {
			t.Errorf("second = %+v, want %s", history[1], want)
		}
	}
}

func TestBuildGatewayHistory_ReplaysModelTurnsAsJSON(t *testing.T) {
	turns := []dtos.ConversationTurn{
		{Role: "model", Text: "Bienvenido"},
		{Role: "user", Text: "Total de copagos"},
		{Role: "model", Text: "El total es 10", SQL: strPtr("SELECT SUM(copago::NUMERIC) FROM dhm WHERE x < 3")},
		{Role: "user", Text: "¿Y por farmacia?"},
		{Role: "model", Text: "No aplica"},
	}
	history := BuildGatewayHistory(turns)
	if len(history) != 4 {
		t.Fatalf("len = %d, want 4", len(history))
	}
	if history[0].Content != "Total de copagos" {
		t.Errorf("leading model turn not dropped: %+v", history[0])
	}
	wantSQL := `{"sql":"SELECT SUM(copago::NUMERIC) FROM dhm WHERE x < 3","explanation":"Query generated"}`
	if history[1].Content != wantSQL {
		t.Errorf("model turn = %s, want %s", history[1].Content, wantSQL)
	}
	if want := `{"sql":null,"explanation":"No aplica"}`; history[3].Content != want {
		t.Errorf("text turn = %s, want %s", history[3].Content, want)
	}
}

func TestBuildGatewayHistory_KeepsExplanation(t *testing.T) {
	turns := []dtos.ConversationTurn{
		{Role: "user", Text: "q"},
		{Role: "model", SQL: strPtr("SELECT 1 FROM dhm"), Explanation: strPtr("Uno")},
	}
	history := BuildGatewayHistory(turns)
	if want := `{"sql":"SELECT 1 FROM dhm","explanation":"Uno"}`; history[1].Content != want {
		t.Errorf("got %s, want %s", history[1].Content, want)
	}
}

func TestBuildGatewaySystemPrompt(t *testing.T) {
	prompt := BuildGatewaySystemPrompt("dhm2")
	if strings.Contains(prompt, constants.TablePlaceholder) || strings.Contains(prompt, constants.SchemaPlaceholder) {
		t.Fatal("placeholders left in prompt")
	}
	if !strings.Contains(prompt, "FROM dhm2") {
		t.Error("table not substituted")
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	few := []map[string]interface{}{{"total": "10"}}
	prompt := BuildSummaryPrompt("¿Total?", "SELECT 1", few)
	if !strings.Contains(prompt, `[{"total":"10"}]`) {
		t.Errorf("rows JSON missing: %s", prompt)
	}
	if strings.Contains(prompt, constants.SummaryTruncatedMarker) {
		t.Error("marker added for a short result")
	}

	many := make([]map[string]interface{}, 0, 200)
	for i := 0; i < 200; i++ {
		many = append(many, map[string]interface{}{"descripcion": fmt.Sprintf("Acetaminofén <500mg> %d", i)})
	}
	prompt = BuildSummaryPrompt("q", "SELECT 1", many)
	if !strings.Contains(prompt, constants.SummaryTruncatedMarker) {
		t.Error("marker missing for a long result")
	}
	if !strings.Contains(prompt, "Acetaminofén <500mg> 0") {
		t.Error("rows JSON is HTML escaped")
	}
	if strings.Contains(prompt, "Acetaminofén <500mg> 199") {
		t.Error("rows JSON not truncated")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("ñandú", 3); got != "ñan" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("abc", 5); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestParseQueryArtifact(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		sql     *string
		wantErr bool
	}{
		{"plain", `{"sql":"SELECT 1","explanation":"e"}`, strPtr("SELECT 1"), false},
		{"null sql", `{"sql":null,"explanation":"hola"}`, nil, false},
		{"fenced", "```json\n{\"sql\":\"SELECT 2\",\"explanation\":\"e\"}\n```", strPtr("SELECT 2"), false},
		{"bare fence", "```\n{\"sql\":\"SELECT 3\",\"explanation\":\"e\"}```", strPtr("SELECT 3"), false},
		{"prose", "Aquí está la consulta", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQueryArtifact(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch {
			case tt.sql == nil && got.SQL != nil:
				t.Errorf("SQL = %q, want nil", *got.SQL)
			case tt.sql != nil && (got.SQL == nil || *got.SQL != *tt.sql):
				t.Errorf("SQL = %v, want %q", got.SQL, *tt.sql)
			}
		})
	}
}
