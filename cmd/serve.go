package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"pbm-portal/config"
	"pbm-portal/internal/apis/middlewares"
	"pbm-portal/internal/apis/routes"
	"pbm-portal/internal/di"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	port            string
	shutdownTimeout time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short:       "Start the portal HTTP API",
	Annotations: map[string]string{serverAnnotation: "true"},
	RunE:        runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "override PORT")
	serveCmd.Flags().DurationVar(&serveFlags.shutdownTimeout, "shutdown-timeout", 30*time.Second, "graceful shutdown timeout")
}

func runServer(cmd *cobra.Command, args []string) error {
	port := config.Env.Port
	if serveFlags.port != "" {
		port = serveFlags.port
	}

	// Initialize dependencies
	di.Initialize()
	defer di.Close()

	collector, err := di.GetMetricsCollector()
	if err != nil {
		return err
	}

	if config.Env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	ginApp := gin.New()

	httpLogger := log.With().Str("component", "http").Logger()
	ginApp.Use(middlewares.RequestID())
	ginApp.Use(middlewares.Logger(httpLogger, collector))
	ginApp.Use(middlewares.Recovery(httpLogger))

	ginApp.Use(cors.New(cors.Config{
		AllowOrigins: config.Env.CORSAllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			middlewares.RequestIDHeader,
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middlewares.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupDefaultRoutes(ginApp)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           ginApp,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Str("env", config.Env.Environment).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), serveFlags.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info().Msg("Server exiting")
	return nil
}
