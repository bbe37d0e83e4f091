package services

import (
	"context"
	"errors"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/pkg/dbmanager"
	"pbm-portal/pkg/llm"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var errFakeRateLimit = errors.New("googleapi: Error 429: Resource has been exhausted")

// fakeLLM replays scripted Chat and Complete results in order.
type fakeLLM struct {
	chatReplies     []string
	chatErrs        []error
	completeReplies []string
	completeErrs    []error

	chatCalls     int
	completeCalls int
	lastChat      llm.ChatRequest
	lastPrompt    string
}

func (f *fakeLLM) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	i := f.chatCalls
	f.chatCalls++
	f.lastChat = req
	if i < len(f.chatErrs) && f.chatErrs[i] != nil {
		return "", f.chatErrs[i]
	}
	if i < len(f.chatReplies) {
		return f.chatReplies[i], nil
	}
	return f.chatReplies[len(f.chatReplies)-1], nil
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	i := f.completeCalls
	f.completeCalls++
	f.lastPrompt = prompt
	if i < len(f.completeErrs) && f.completeErrs[i] != nil {
		return "", f.completeErrs[i]
	}
	if i < len(f.completeReplies) {
		return f.completeReplies[i], nil
	}
	return "resumen", nil
}

func (f *fakeLLM) IsRateLimited(err error) bool { return errors.Is(err, errFakeRateLimit) }

func (f *fakeLLM) GetModelInfo() llm.ModelInfo { return llm.ModelInfo{Name: "fake"} }

type fakeExecutor struct {
	rows      []map[string]interface{}
	truncated bool
	err       error
	calls     int
	sql       string
}

func (f *fakeExecutor) Query(ctx context.Context, query string, args ...interface{}) (*dbmanager.QueryResult, error) {
	f.calls++
	f.sql = query
	if f.err != nil {
		return nil, f.err
	}
	return &dbmanager.QueryResult{Rows: f.rows, RowCount: len(f.rows), Truncated: f.truncated}, nil
}

type fakeRecorder struct {
	outcomes []string
	stages   []string
}

func (f *fakeRecorder) RecordGatewayOutcome(table, outcome string) {
	f.outcomes = append(f.outcomes, table+"/"+outcome)
}

func (f *fakeRecorder) ObserveGatewayStage(stage string, d time.Duration) {
	f.stages = append(f.stages, stage)
}

type instantTimer struct {
	c      chan time.Time
	delays *[]time.Duration
}

func (t *instantTimer) Start(d time.Duration) {
	*t.delays = append(*t.delays, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func gatewayErr(t *testing.T, err error) *GatewayError {
	t.Helper()
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %v", err)
	}
	return gwErr
}

func TestGatewayAsk_ExecutesCastCorrectedSQL(t *testing.T) {
	model := &fakeLLM{
		chatReplies:     []string{`{"sql":"SELECT SUM(totalcobertura) FROM dhm","explanation":"Total"}`},
		completeReplies: []string{"El total es 12345.67."},
	}
	exec := &fakeExecutor{rows: []map[string]interface{}{{"sum": "12345.67"}}}
	rec := &fakeRecorder{}
	svc := NewGatewayService(model, exec, rec, false)

	resp, status, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "Total autorizado"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if want := "SELECT SUM(totalcobertura::NUMERIC) FROM dhm"; exec.sql != want {
		t.Errorf("executed %q, want %q", exec.sql, want)
	}
	if want := "SELECT SUM(totalcobertura) FROM dhm"; resp.GeneratedSQL != want {
		t.Errorf("GeneratedSQL = %q, want %q", resp.GeneratedSQL, want)
	}
	if len(resp.Data) != 1 || resp.Data[0]["sum"] != "12345.67" {
		t.Errorf("Data = %v", resp.Data)
	}
	if resp.Text != "El total es 12345.67." {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Explanation != "Total" {
		t.Errorf("Explanation = %q", resp.Explanation)
	}
	if !strings.Contains(model.lastPrompt, "SELECT SUM(totalcobertura) FROM dhm") {
		t.Errorf("summary prompt does not carry the generated SQL: %q", model.lastPrompt)
	}
	if model.lastChat.ResponseFormat != llm.ResponseFormatQuery {
		t.Errorf("ResponseFormat = %q", model.lastChat.ResponseFormat)
	}
	if !strings.Contains(model.lastChat.SystemInstruction, "'dhm'") {
		t.Error("system instruction does not name the table")
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != "dhm/"+OutcomeAnswered {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
	if len(rec.stages) != 3 {
		t.Errorf("stages = %v", rec.stages)
	}
}

func TestGatewayAsk_ReportsTruncatedResult(t *testing.T) {
	model := &fakeLLM{
		chatReplies:     []string{`{"sql":"SELECT numeroreceta FROM dhm","explanation":"Recetas"}`},
		completeReplies: []string{"Se muestran las primeras 2 recetas."},
	}
	exec := &fakeExecutor{
		rows:      []map[string]interface{}{{"numeroreceta": "1"}, {"numeroreceta": "2"}},
		truncated: true,
	}
	svc := NewGatewayService(model, exec, nil, false)

	resp, _, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "Lista de recetas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Truncated || len(resp.Data) != 2 {
		t.Errorf("Truncated = %v Data = %v", resp.Truncated, resp.Data)
	}

	exec.truncated = false
	resp, _, err = svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "Lista de recetas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Truncated {
		t.Error("complete result reported as truncated")
	}
}

func TestGatewayAsk_NoSQLSkipsExecution(t *testing.T) {
	model := &fakeLLM{chatReplies: []string{`{"sql":null,"explanation":"¡Hola! ¿En qué puedo ayudarte?"}`}}
	exec := &fakeExecutor{}
	svc := NewGatewayService(model, exec, nil, false)

	resp, status, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "Hola"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if exec.calls != 0 {
		t.Errorf("executor called %d times", exec.calls)
	}
	if model.completeCalls != 0 {
		t.Errorf("summary called %d times", model.completeCalls)
	}
	if resp.Text != "¡Hola! ¿En qué puedo ayudarte?" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Errorf("Data = %#v, want empty slice", resp.Data)
	}
	if resp.GeneratedSQL != "" {
		t.Errorf("GeneratedSQL = %q", resp.GeneratedSQL)
	}
}

func TestGatewayAsk_RejectsOtherTable(t *testing.T) {
	model := &fakeLLM{chatReplies: []string{`{"sql":"SELECT * FROM dhm2 LIMIT 20","explanation":"x"}`}}
	exec := &fakeExecutor{}
	rec := &fakeRecorder{}
	svc := NewGatewayService(model, exec, rec, false)

	_, status, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "todo", Table: "dhm"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if got := gatewayErr(t, err); got.Message != "Solo permitidas consultas a la tabla 'dhm'." || got.Kind != KindUnsafeQuery {
		t.Errorf("error = %+v", got)
	}
	if exec.calls != 0 {
		t.Errorf("executor called %d times", exec.calls)
	}
	if rec.outcomes[0] != "dhm/"+OutcomeRejected {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
}

func TestGatewayAsk_RejectsUnsafeSQL(t *testing.T) {
	tests := []string{
		`{"sql":"DELETE FROM dhm","explanation":"x"}`,
		`{"sql":"SELECT * FROM dhm; DROP TABLE dhm","explanation":"x"}`,
		`{"sql":"SELECT * FROM pg_shadow JOIN dhm ON true","explanation":"x"}`,
	}
	for _, reply := range tests {
		exec := &fakeExecutor{}
		svc := NewGatewayService(&fakeLLM{chatReplies: []string{reply}}, exec, nil, false)
		_, status, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "q"})
		if status != http.StatusBadRequest || err == nil {
			t.Errorf("%s: status = %d, err = %v", reply, status, err)
		}
		if exec.calls != 0 {
			t.Errorf("%s: executor called", reply)
		}
	}
}

func TestGatewayAsk_RetriesRateLimitedGeneration(t *testing.T) {
	model := &fakeLLM{
		chatErrs:    []error{errFakeRateLimit, errFakeRateLimit},
		chatReplies: []string{"", "", `{"sql":"SELECT count(*) FROM dhm","explanation":"Conteo"}`},
	}
	var delays []time.Duration
	retrying := llm.NewRetryingClient(model, llm.RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		NewTimer: func() backoff.Timer {
			return &instantTimer{delays: &delays}
		},
	})
	exec := &fakeExecutor{rows: []map[string]interface{}{{"count": int64(42)}}}
	svc := NewGatewayService(retrying, exec, nil, false)

	resp, status, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "¿Cuántas recetas?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if model.chatCalls != 3 {
		t.Errorf("chat calls = %d, want 3", model.chatCalls)
	}
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 2*delays[0] {
		t.Errorf("delays = %v, want [2s 4s]", delays)
	}
	if resp.GeneratedSQL != "SELECT count(*) FROM dhm" {
		t.Errorf("GeneratedSQL = %q", resp.GeneratedSQL)
	}
}

func TestGatewayAsk_RateLimitExhausted(t *testing.T) {
	model := &fakeLLM{
		chatErrs:    []error{errFakeRateLimit, errFakeRateLimit, errFakeRateLimit},
		chatReplies: []string{""},
	}
	var delays []time.Duration
	retrying := llm.NewRetryingClient(model, llm.RetryPolicy{
		MaxRetries:   2,
		InitialDelay: time.Second,
		NewTimer: func() backoff.Timer {
			return &instantTimer{delays: &delays}
		},
	})
	rec := &fakeRecorder{}
	svc := NewGatewayService(retrying, &fakeExecutor{}, rec, false)

	_, status, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "q"})
	if status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", status)
	}
	if got := gatewayErr(t, err); got.Kind != KindRateLimited || !errors.Is(err, errFakeRateLimit) {
		t.Errorf("error = %+v", got)
	}
	if model.chatCalls != 3 {
		t.Errorf("chat calls = %d, want 3", model.chatCalls)
	}
	if rec.outcomes[0] != "dhm/"+OutcomeRateLimited {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
}

func TestGatewayAsk_InvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		req     dtos.QueryGatewayRequest
		message string
		metric  string
	}{
		{"unknown table", dtos.QueryGatewayRequest{Message: "q", Table: "users"}, msgInvalidTable, "unknown/" + OutcomeInvalidRequest},
		{"empty message", dtos.QueryGatewayRequest{Message: "   "}, msgMessageRequired, "dhm/" + OutcomeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeLLM{chatReplies: []string{"{}"}}
			rec := &fakeRecorder{}
			svc := NewGatewayService(model, &fakeExecutor{}, rec, false)
			_, status, err := svc.Ask(context.Background(), &tt.req)
			if status != http.StatusBadRequest {
				t.Fatalf("status = %d", status)
			}
			if gatewayErr(t, err).Message != tt.message {
				t.Errorf("message = %q", err.Error())
			}
			if model.chatCalls != 0 {
				t.Error("model called for invalid request")
			}
			if rec.outcomes[0] != tt.metric {
				t.Errorf("outcomes = %v", rec.outcomes)
			}
		})
	}
}

func TestGatewayAsk_FencedModelOutput(t *testing.T) {
	model := &fakeLLM{chatReplies: []string{"```json\n{\"sql\":\"SELECT * FROM dhm2 LIMIT 20\",\"explanation\":\"x\"}\n```"}}
	exec := &fakeExecutor{rows: []map[string]interface{}{}}
	svc := NewGatewayService(model, exec, nil, false)

	resp, _, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "q", Table: "dhm2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.sql != "SELECT * FROM dhm2 LIMIT 20" {
		t.Errorf("executed %q", exec.sql)
	}
	if resp.Data == nil {
		t.Error("Data is nil, want empty slice")
	}
}

func TestGatewayAsk_InvalidModelOutput(t *testing.T) {
	svc := NewGatewayService(&fakeLLM{chatReplies: []string{"SELECT * FROM dhm"}}, &fakeExecutor{}, nil, false)
	_, status, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "q"})
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if got := gatewayErr(t, err); got.Kind != KindInvalidModelOutput || got.Message != msgInvalidModelOutput {
		t.Errorf("error = %+v", got)
	}
}

func TestGatewayAsk_ExecutionFailure(t *testing.T) {
	storeErr := errors.New(`pq: column "foo" does not exist`)
	tests := []struct {
		name    string
		expose  bool
		message string
	}{
		{"hidden", false, msgExecutionFailure},
		{"exposed", true, storeErr.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeLLM{chatReplies: []string{`{"sql":"SELECT foo FROM dhm","explanation":"x"}`}}
			svc := NewGatewayService(model, &fakeExecutor{err: storeErr}, nil, tt.expose)
			_, status, err := svc.Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "q"})
			if status != http.StatusInternalServerError {
				t.Fatalf("status = %d", status)
			}
			got := gatewayErr(t, err)
			if got.Message != tt.message {
				t.Errorf("message = %q, want %q", got.Message, tt.message)
			}
			if !errors.Is(err, storeErr) {
				t.Error("cause not preserved")
			}
			if model.completeCalls != 0 {
				t.Error("summary requested after failed execution")
			}
		})
	}
}

func TestGatewayAsk_ModelFailure(t *testing.T) {
	model := &fakeLLM{chatErrs: []error{errors.New("gemini API error: boom")}, chatReplies: []string{""}}
	_, status, err := NewGatewayService(model, &fakeExecutor{}, nil, false).
		Ask(context.Background(), &dtos.QueryGatewayRequest{Message: "q"})
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if got := gatewayErr(t, err); got.Kind != KindModelFailure {
		t.Errorf("kind = %s", got.Kind)
	}
}
