package di

import (
	"pbm-portal/config"
	"pbm-portal/internal/apis/handlers"
	"pbm-portal/internal/constants"
	"pbm-portal/internal/repositories"
	"pbm-portal/internal/services"
	"pbm-portal/internal/utils"
	"pbm-portal/pkg/dbmanager"
	"pbm-portal/pkg/llm"
	"pbm-portal/pkg/metrics"
	"pbm-portal/pkg/redis"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	// Primary database (users, lookups, authorization history)
	primary, err := dbmanager.OpenPrimary(dbmanager.ConnectionConfig{
		DSN:            config.Env.PostgresURL,
		ConnectTimeout: config.Env.DBConnectTimeout,
		MaxOpenConns:   config.Env.DBMaxOpenConns,
		MaxIdleConns:   config.Env.DBMaxIdleConns,
	}, !config.Env.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to primary database")
	}

	// Analytical database (historical claims)
	analytical, err := dbmanager.NewPostgresExecutor(dbmanager.ConnectionConfig{
		DSN:            config.Env.AnalyticalDSN(),
		ConnectTimeout: config.Env.DBConnectTimeout,
		MaxOpenConns:   config.Env.DBMaxOpenConns,
		MaxIdleConns:   config.Env.DBMaxIdleConns,
		MaxRows:        config.Env.QueryMaxRows,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open analytical database")
	}

	dbManager := dbmanager.NewManager()
	dbManager.Register(dbmanager.PrimaryConnection, primary)
	dbManager.Register(dbmanager.AnalyticalConnection, analytical)

	// Initialize Redis
	redisClient, err := redis.RedisClient(config.Env.RedisHost, config.Env.RedisPort, config.Env.RedisUsername, config.Env.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	redisRepo := redis.NewRedisRepositories(redisClient)
	dbManager.Register(dbmanager.RedisConnection, redisRepo)

	jwtService := utils.NewJWTService(
		config.Env.JWTSecret,
		time.Millisecond*time.Duration(config.Env.JWTExpirationMilliseconds),
	)
	collector := metrics.NewCollector(nil)

	// Provide all dependencies to the container
	provide(func() *gorm.DB { return primary.DB() }, "primary database")
	provide(func() dbmanager.QueryExecutor { return analytical }, "analytical executor")
	provide(func() *dbmanager.Manager { return dbManager }, "DB manager")
	provide(func() redis.IRedisRepositories { return redisRepo }, "Redis repositories")
	provide(func() utils.JWTService { return jwtService }, "JWT service")
	provide(func() *metrics.Collector { return collector }, "metrics collector")

	// Repositories
	provide(repositories.NewUserRepository, "user repository")
	provide(repositories.NewLookupRepository, "lookup repository")
	provide(repositories.NewHistoryRepository, "history repository")
	provide(repositories.NewTokenRepository, "token repository")
	provide(repositories.NewClaimsRepository, "claims repository")

	// Add LLM Manager
	provide(func(collector *metrics.Collector) *llm.Manager {
		manager := llm.NewManager()
		for _, name := range []string{constants.GatewayLLMClient, constants.AssistantLLMClient} {
			if err := manager.RegisterClient(name, defaultLLMConfig()); err != nil {
				log.Fatal().Err(err).Str("client", name).Msg("Failed to register LLM client")
			}
			client, _ := manager.GetClient(name)
			manager.SetClient(name, llm.NewRetryingClient(client, retryPolicy(name, collector)))
		}
		return manager
	}, "LLM manager")

	// Provide services
	provide(services.NewAuthService, "auth service")
	provide(services.NewLookupService, "lookup service")
	provide(services.NewHistoryService, "history service")
	provide(func(claimsRepo repositories.ClaimsRepository) services.HistoricalService {
		return services.NewHistoricalService(claimsRepo, !config.Env.IsProduction())
	}, "historical service")
	provide(func(claimsRepo repositories.ClaimsRepository, dbManager *dbmanager.Manager, llmManager *llm.Manager) services.DiagnosticsService {
		return services.NewDiagnosticsService(claimsRepo, dbManager, llmManager, config.Env.Environment)
	}, "diagnostics service")
	provide(func(llmManager *llm.Manager, executor dbmanager.QueryExecutor, collector *metrics.Collector) services.GatewayService {
		client, err := llmManager.GetClient(constants.GatewayLLMClient)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get gateway LLM client")
		}
		return services.NewGatewayService(client, executor, collector, !config.Env.IsProduction())
	}, "gateway service")
	provide(func(llmManager *llm.Manager, lookupRepo repositories.LookupRepository, historyRepo repositories.HistoryRepository) services.AssistantService {
		client, err := llmManager.GetClient(constants.AssistantLLMClient)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get assistant LLM client")
		}
		return services.NewAssistantService(client, lookupRepo, historyRepo)
	}, "assistant service")

	// Provide handlers
	provide(handlers.NewAuthHandler, "auth handler")
	provide(handlers.NewLookupHandler, "lookup handler")
	provide(handlers.NewHistoryHandler, "history handler")
	provide(handlers.NewHistoricalHandler, "historical handler")
	provide(handlers.NewGatewayHandler, "gateway handler")
	provide(handlers.NewChatHandler, "chat handler")
}

func provide(constructor interface{}, name string) {
	if err := DiContainer.Provide(constructor); err != nil {
		log.Fatal().Err(err).Msgf("Failed to provide %s", name)
	}
}

func defaultLLMConfig() llm.Config {
	if config.Env.DefaultLLMClient == constants.OpenAI {
		return llm.Config{
			Provider:            constants.OpenAI,
			Model:               config.Env.OpenAIModel,
			APIKey:              config.Env.OpenAIAPIKey,
			MaxCompletionTokens: config.Env.OpenAIMaxCompletionTokens,
			Temperature:         config.Env.OpenAITemperature,
		}
	}
	return llm.Config{
		Provider:            constants.Gemini,
		Model:               config.Env.GeminiModel,
		APIKey:              config.Env.GeminiAPIKey,
		MaxCompletionTokens: config.Env.GeminiMaxCompletionTokens,
		Temperature:         config.Env.GeminiTemperature,
	}
}

func retryPolicy(client string, collector *metrics.Collector) llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxRetries:   config.Env.LLMRetryMax,
		InitialDelay: config.Env.LLMRetryInitialDelay,
		OnRetry: func(op string, attempt int, delay time.Duration, err error) {
			collector.RecordLLMRetry(client, op)
		},
	}
}

// Close releases the connections opened by Initialize.
func Close() {
	if DiContainer == nil {
		return
	}
	if err := DiContainer.Invoke(func(m *dbmanager.Manager) error { return m.Close() }); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connections")
	}
}

// GetAuthHandler retrieves the AuthHandler from the DI container
func GetAuthHandler() (*handlers.AuthHandler, error) {
	var handler *handlers.AuthHandler
	err := DiContainer.Invoke(func(h *handlers.AuthHandler) {
		handler = h
	})
	return handler, err
}

func GetLookupHandler() (*handlers.LookupHandler, error) {
	var handler *handlers.LookupHandler
	err := DiContainer.Invoke(func(h *handlers.LookupHandler) {
		handler = h
	})
	return handler, err
}

func GetHistoryHandler() (*handlers.HistoryHandler, error) {
	var handler *handlers.HistoryHandler
	err := DiContainer.Invoke(func(h *handlers.HistoryHandler) {
		handler = h
	})
	return handler, err
}

func GetHistoricalHandler() (*handlers.HistoricalHandler, error) {
	var handler *handlers.HistoricalHandler
	err := DiContainer.Invoke(func(h *handlers.HistoricalHandler) {
		handler = h
	})
	return handler, err
}

// GetGatewayHandler retrieves the query gateway handler
func GetGatewayHandler() (*handlers.GatewayHandler, error) {
	var handler *handlers.GatewayHandler
	err := DiContainer.Invoke(func(h *handlers.GatewayHandler) {
		handler = h
	})
	return handler, err
}

// GetChatHandler retrieves the FAQ assistant handler
func GetChatHandler() (*handlers.ChatHandler, error) {
	var handler *handlers.ChatHandler
	err := DiContainer.Invoke(func(h *handlers.ChatHandler) {
		handler = h
	})
	return handler, err
}

func GetMetricsCollector() (*metrics.Collector, error) {
	var collector *metrics.Collector
	err := DiContainer.Invoke(func(c *metrics.Collector) {
		collector = c
	})
	return collector, err
}

// GetAuthDependencies returns what the auth middleware needs.
func GetAuthDependencies() (utils.JWTService, repositories.TokenRepository, error) {
	var jwtService utils.JWTService
	var tokenRepo repositories.TokenRepository
	err := DiContainer.Invoke(func(j utils.JWTService, t repositories.TokenRepository) {
		jwtService = j
		tokenRepo = t
	})
	return jwtService, tokenRepo, err
}
