package services

import (
	"context"
	"errors"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/constants"
	"pbm-portal/pkg/dbmanager"
	"pbm-portal/pkg/llm"
	"pbm-portal/pkg/sqlguard"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Terminal outcomes of a gateway request, as counted in metrics.
const (
	OutcomeAnswered           = "answered"
	OutcomeNoSQL              = "no-sql"
	OutcomeRejected           = "rejected"
	OutcomeExecFailed         = "exec-failed"
	OutcomeInvalidModelOutput = "invalid-model-output"
	OutcomeRateLimited        = "rate-limited"
	OutcomeModelFailed        = "model-failed"
	OutcomeInvalidRequest     = "invalid-request"
)

// Gateway stages, as timed in metrics.
const (
	stageGenerating  = "generating_sql"
	stageExecuting   = "executing"
	stageSummarizing = "summarizing"
)

// GatewayRecorder receives gateway metrics.
type GatewayRecorder interface {
	RecordGatewayOutcome(table, outcome string)
	ObserveGatewayStage(stage string, d time.Duration)
}

type GatewayService interface {
	// Ask answers a natural language question about the historical claims
	// table. Errors are *GatewayError.
	Ask(ctx context.Context, req *dtos.QueryGatewayRequest) (*dtos.QueryGatewayResponse, uint32, error)
}

type gatewayService struct {
	llmClient         llm.Client
	executor          dbmanager.QueryExecutor
	recorder          GatewayRecorder
	guards            map[string]*sqlguard.Guard
	exposeStoreErrors bool
}

// NewGatewayService builds the gateway. llmClient should already retry rate
// limited calls. When exposeStoreErrors is false the database error text is
// replaced by a generic message.
func NewGatewayService(llmClient llm.Client, executor dbmanager.QueryExecutor, recorder GatewayRecorder, exposeStoreErrors bool) GatewayService {
	guards := make(map[string]*sqlguard.Guard, len(sqlguard.AllowedTables))
	for _, table := range sqlguard.AllowedTables {
		g, err := sqlguard.New(table)
		if err != nil {
			// AllowedTables only holds valid names.
			panic(err)
		}
		guards[table] = g
	}

	return &gatewayService{
		llmClient:         llmClient,
		executor:          executor,
		recorder:          recorder,
		guards:            guards,
		exposeStoreErrors: exposeStoreErrors,
	}
}

func (s *gatewayService) Ask(ctx context.Context, req *dtos.QueryGatewayRequest) (*dtos.QueryGatewayResponse, uint32, error) {
	table := req.Table
	if table == "" {
		table = constants.DefaultHistoricalTable
	}
	logger := log.With().Str("component", "gateway").Str("table", table).Logger()

	resp, outcome, err := s.ask(ctx, table, req)
	metricTable := table
	if !sqlguard.IsAllowedTable(table) {
		metricTable = "unknown"
	}
	s.record(metricTable, outcome)

	if err != nil {
		var gwErr *GatewayError
		if !errors.As(err, &gwErr) {
			gwErr = newGatewayError(KindModelFailure, err.Error(), err)
		}
		event := logger.Error()
		if gwErr.Status < http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.Str("kind", string(gwErr.Kind)).Str("outcome", outcome).Msg(gwErr.Detail())
		return nil, uint32(gwErr.Status), gwErr
	}

	logger.Info().Str("outcome", outcome).Int("rows", len(resp.Data)).Msg("Ask -> answered")
	return resp, http.StatusOK, nil
}

func (s *gatewayService) ask(ctx context.Context, table string, req *dtos.QueryGatewayRequest) (*dtos.QueryGatewayResponse, string, error) {
	guard, ok := s.guards[table]
	if !ok {
		return nil, OutcomeInvalidRequest, newGatewayError(KindInvalidRequest, msgInvalidTable, nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, OutcomeInvalidRequest, newGatewayError(KindInvalidRequest, msgMessageRequired, nil)
	}

	// GENERATING_SQL
	start := time.Now()
	raw, err := s.llmClient.Chat(ctx, llm.ChatRequest{
		SystemInstruction: BuildGatewaySystemPrompt(table),
		History:           BuildGatewayHistory(req.PreviousMessages),
		Message:           BuildGatewayUserPrompt(req.Message),
		ResponseFormat:    llm.ResponseFormatQuery,
	})
	s.observe(stageGenerating, start)
	if err != nil {
		return nil, s.modelOutcome(err), s.modelError(err)
	}
	log.Debug().Str("component", "gateway").Str("response", raw).Msg("Ask -> model response")

	artifact, err := ParseQueryArtifact(raw)
	if err != nil {
		return nil, OutcomeInvalidModelOutput, newGatewayError(KindInvalidModelOutput, msgInvalidModelOutput, err)
	}

	// NO_SQL
	if artifact.SQL == nil || strings.TrimSpace(*artifact.SQL) == "" {
		text := artifact.Explanation
		if text == "" {
			text = constants.GatewayNoQueryAnswer
		}
		return &dtos.QueryGatewayResponse{Text: text, Data: []map[string]interface{}{}}, OutcomeNoSQL, nil
	}
	generatedSQL := *artifact.SQL

	// VALIDATING
	checked, err := guard.Check(generatedSQL)
	if err != nil {
		var rejection *sqlguard.Rejection
		if errors.As(err, &rejection) {
			return nil, OutcomeRejected, newGatewayError(KindUnsafeQuery, rejection.Message, rejection)
		}
		return nil, OutcomeRejected, newGatewayError(KindUnsafeQuery, err.Error(), err)
	}
	if checked.Rewritten {
		log.Info().Str("component", "gateway").Str("original", generatedSQL).Str("executed", checked.Executable).Msg("Ask -> numeric casts added")
	}

	// EXECUTING
	start = time.Now()
	result, err := s.executor.Query(ctx, checked.Executable)
	s.observe(stageExecuting, start)
	if err != nil {
		message := msgExecutionFailure
		if s.exposeStoreErrors {
			message = err.Error()
		}
		return nil, OutcomeExecFailed, newGatewayError(KindExecutionFailure, message, err)
	}
	rows := result.Rows
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	if result.Truncated {
		log.Warn().Str("component", "gateway").Int("rows", result.RowCount).Msg("Ask -> result truncated at row cap")
	}

	// SUMMARIZING
	start = time.Now()
	summary, err := s.llmClient.Complete(ctx, BuildSummaryPrompt(req.Message, generatedSQL, rows))
	s.observe(stageSummarizing, start)
	if err != nil {
		return nil, s.modelOutcome(err), s.modelError(err)
	}

	return &dtos.QueryGatewayResponse{
		Text:         summary,
		GeneratedSQL: generatedSQL,
		Data:         rows,
		Explanation:  artifact.Explanation,
		Truncated:    result.Truncated,
	}, OutcomeAnswered, nil
}

func (s *gatewayService) modelError(err error) *GatewayError {
	if s.llmClient.IsRateLimited(err) {
		return newGatewayError(KindRateLimited, msgRateLimited, err)
	}
	return newGatewayError(KindModelFailure, err.Error(), err)
}

func (s *gatewayService) modelOutcome(err error) string {
	if s.llmClient.IsRateLimited(err) {
		return OutcomeRateLimited
	}
	return OutcomeModelFailed
}

func (s *gatewayService) record(table, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordGatewayOutcome(table, outcome)
	}
}

func (s *gatewayService) observe(stage string, start time.Time) {
	if s.recorder != nil {
		s.recorder.ObserveGatewayStage(stage, time.Since(start))
	}
}
