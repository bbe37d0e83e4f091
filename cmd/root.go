package main

import (
	"os"
	"pbm-portal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "pbm-portal",
	Short:         "PBM portal API and operations tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		setupLogger()
		return nil
	},
}

// serverAnnotation marks commands that need the full API configuration.
const serverAnnotation = "pbm-portal/server"

// loadConfig validates everything for the server and only the database
// settings for the maintenance commands.
func loadConfig(cmd *cobra.Command) error {
	if cmd.Annotations[serverAnnotation] == "true" {
		return config.LoadEnv()
	}
	return config.LoadOperationalEnv()
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if config.Env.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "pbm-portal").Logger()
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
