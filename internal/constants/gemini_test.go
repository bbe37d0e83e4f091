package constants

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestGeminiQueryResponseSchema(t *testing.T) {
	s := GeminiQueryResponseSchema
	if s.Type != genai.TypeObject {
		t.Fatalf("Type = %v", s.Type)
	}
	if len(s.Enum) != 0 {
		t.Errorf("object schema carries Enum %v", s.Enum)
	}
	if len(s.Required) != 1 || s.Required[0] != "explanation" {
		t.Errorf("Required = %v", s.Required)
	}
	sql, ok := s.Properties["sql"]
	if !ok || sql.Type != genai.TypeString || !sql.Nullable {
		t.Errorf("sql property = %+v", sql)
	}
	if len(sql.Enum) != 0 {
		t.Errorf("sql property carries Enum %v", sql.Enum)
	}
}
