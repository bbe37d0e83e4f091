package services

import (
	"context"
	"net/http"
	"os"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/repositories"
	"pbm-portal/pkg/dbmanager"
	"pbm-portal/pkg/llm"
	"time"

	"github.com/rs/zerolog/log"
)

// EnvCheckVariables are reported by presence only, never by value.
var EnvCheckVariables = []string{
	"POSTGRES_URL",
	"SECONDARY_POSTGRES_URL",
	"KONTROLA_DB_HOST",
	"KONTROLA_DB_USER",
	"KONTROLA_DB_PASSWORD",
	"KONTROLA_DB_NAME",
	"JWT_SECRET",
	"GOOGLE_API_KEY",
	"OPENAI_API_KEY",
	"REDIS_HOST",
}

// ModelReporter lists the LLM models the process is configured with.
type ModelReporter interface {
	Models() map[string]llm.ModelInfo
}

type DiagnosticsService interface {
	Ping() *dtos.PingResponse
	Diagnose(ctx context.Context) (*dtos.DiagnoseResponse, uint32, error)
	EnvCheck() *dtos.EnvCheckResponse
}

type diagnosticsService struct {
	claimsRepo  repositories.ClaimsRepository
	dbManager   *dbmanager.Manager
	models      ModelReporter
	environment string
	lookupEnv   func(string) (string, bool)
	now         func() time.Time
}

func NewDiagnosticsService(claimsRepo repositories.ClaimsRepository, dbManager *dbmanager.Manager, models ModelReporter, environment string) DiagnosticsService {
	return &diagnosticsService{
		claimsRepo:  claimsRepo,
		dbManager:   dbManager,
		models:      models,
		environment: environment,
		lookupEnv:   os.LookupEnv,
		now:         time.Now,
	}
}

func (s *diagnosticsService) Ping() *dtos.PingResponse {
	return &dtos.PingResponse{Message: "pong", Time: s.now().UTC().Format(time.RFC3339)}
}

func (s *diagnosticsService) Diagnose(ctx context.Context) (*dtos.DiagnoseResponse, uint32, error) {
	resp := &dtos.DiagnoseResponse{
		Env:         s.envPresence(),
		Connections: []dbmanager.ConnectionInfo{},
	}
	if s.dbManager != nil {
		resp.Connections = s.dbManager.HealthCheck(ctx)
	}
	if s.models != nil {
		resp.Models = s.models.Models()
	}

	diagnosis, err := s.claimsRepo.Diagnose(ctx)
	if err != nil {
		log.Error().Str("component", "diagnostics").Err(err).Msg("Diagnose -> analytical store unreachable")
		resp.Status = "error"
		resp.Message = "Analytical database check failed"
		resp.Error = err.Error()
		return resp, http.StatusInternalServerError, err
	}

	resp.Status = "ok"
	resp.Message = "Analytical database reachable"
	resp.DBTime = diagnosis.DBTime
	resp.RowCount = diagnosis.RowCount
	return resp, http.StatusOK, nil
}

func (s *diagnosticsService) EnvCheck() *dtos.EnvCheckResponse {
	return &dtos.EnvCheckResponse{Variables: s.envPresence(), Environment: s.environment}
}

func (s *diagnosticsService) envPresence() map[string]bool {
	presence := make(map[string]bool, len(EnvCheckVariables))
	for _, key := range EnvCheckVariables {
		value, ok := s.lookupEnv(key)
		presence[key] = ok && value != ""
	}
	return presence
}
