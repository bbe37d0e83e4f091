package main

import (
	"context"
	"fmt"
	"os"
	"pbm-portal/config"
	"pbm-portal/internal/constants"
	"pbm-portal/internal/models"
	"pbm-portal/internal/repositories"
	"pbm-portal/internal/seed"
	"pbm-portal/internal/utils"
	"pbm-portal/pkg/dbmanager"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seedFlags struct {
	usersFile       string
	pharmaciesFile  string
	medicationsFile string
	password        string
	concurrency     int
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the portal tables in the primary database",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users, pharmacies and medications into the primary database",
	Long: `Load portal users and catalogues into the primary database.

Users are read from "email,name" lines and receive the default password.
Catalogue files are "code name" exports whose first line is a header.

Examples:
  pbm-portal seed --users users.csv --password "$SEED_DEFAULT_PASSWORD"
  pbm-portal seed --pharmacies farmacias.txt --medications medicamentos.txt`,
	RunE: runSeed,
}

var applyIndexesCmd = &cobra.Command{
	Use:   "apply-indexes",
	Short: "Create the lookup indexes on the historical claims table",
	RunE:  runApplyIndexes,
}

var inspectColumnsCmd = &cobra.Command{
	Use:   "inspect-columns [table]",
	Short: "Compare the claims table columns with the column list given to the model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspectColumns,
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, applyIndexesCmd, inspectColumnsCmd)

	seedCmd.Flags().StringVar(&seedFlags.usersFile, "users", "", "file with email,name lines")
	seedCmd.Flags().StringVar(&seedFlags.pharmaciesFile, "pharmacies", "", "pharmacy directory export")
	seedCmd.Flags().StringVar(&seedFlags.medicationsFile, "medications", "", "medication catalogue export")
	seedCmd.Flags().StringVar(&seedFlags.password, "password", os.Getenv("SEED_DEFAULT_PASSWORD"), "default password for seeded users")
	seedCmd.Flags().IntVar(&seedFlags.concurrency, "concurrency", 4, "catalogue batches written in parallel")
}

func openPrimary() (*dbmanager.PrimaryWrapper, error) {
	return dbmanager.OpenPrimary(dbmanager.ConnectionConfig{
		DSN:            config.Env.PostgresURL,
		ConnectTimeout: config.Env.DBConnectTimeout,
		MaxOpenConns:   config.Env.DBMaxOpenConns,
		MaxIdleConns:   config.Env.DBMaxIdleConns,
	}, false)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	primary, err := openPrimary()
	if err != nil {
		return err
	}
	defer primary.Close()

	db := primary.DB().WithContext(cmd.Context())
	if err := db.AutoMigrate(&models.User{}, &models.Pharmacy{}, &models.Medication{}, &models.AuthHistory{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_pharmacies_name ON pharmacies (name)").Error; err != nil {
		return fmt.Errorf("failed to create pharmacy index: %w", err)
	}

	log.Info().Str("component", "migrate").Msg("primary database migrated")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedFlags.usersFile == "" && seedFlags.pharmaciesFile == "" && seedFlags.medicationsFile == "" {
		return fmt.Errorf("nothing to seed: pass --users, --pharmacies or --medications")
	}

	primary, err := openPrimary()
	if err != nil {
		return err
	}
	defer primary.Close()

	ctx := cmd.Context()
	if seedFlags.usersFile != "" {
		if err := seedUsers(ctx, repositories.NewUserRepository(primary.DB())); err != nil {
			return err
		}
	}

	lookupRepo := repositories.NewLookupRepository(primary.DB())
	if seedFlags.pharmaciesFile != "" {
		entries, err := readCatalog(seedFlags.pharmaciesFile)
		if err != nil {
			return err
		}
		err = seed.Upsert(ctx, "pharmacies", entries, seedFlags.concurrency, func(ctx context.Context, batch []seed.Entry) error {
			rows := make([]models.Pharmacy, len(batch))
			for i, e := range batch {
				rows[i] = models.Pharmacy{Code: e.Code, Name: e.Name}
			}
			return lookupRepo.UpsertPharmacies(ctx, rows)
		})
		if err != nil {
			return err
		}
	}
	if seedFlags.medicationsFile != "" {
		entries, err := readCatalog(seedFlags.medicationsFile)
		if err != nil {
			return err
		}
		err = seed.Upsert(ctx, "medications", entries, seedFlags.concurrency, func(ctx context.Context, batch []seed.Entry) error {
			rows := make([]models.Medication, len(batch))
			for i, e := range batch {
				rows[i] = models.Medication{Code: e.Code, Name: e.Name}
			}
			return lookupRepo.UpsertMedications(ctx, rows)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(ctx context.Context, userRepo repositories.UserRepository) error {
	if seedFlags.password == "" {
		return fmt.Errorf("a default password is required: pass --password or set SEED_DEFAULT_PASSWORD")
	}

	f, err := os.Open(seedFlags.usersFile)
	if err != nil {
		return err
	}
	defer f.Close()

	users, err := seed.ParseUsers(f)
	if err != nil {
		return err
	}
	hashed, err := utils.HashPassword(seedFlags.password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	for _, u := range users {
		if err := userRepo.Upsert(ctx, models.NewUser(u.Email, hashed, u.Name)); err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.Email, err)
		}
		log.Info().Str("component", "seed").Str("email", u.Email).Msg("user processed")
	}
	return nil
}

func readCatalog(path string) ([]seed.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.ParseCatalog(f)
}

func openAnalytical() (*dbmanager.PostgresExecutor, error) {
	return dbmanager.NewPostgresExecutor(dbmanager.ConnectionConfig{
		DSN:            config.Env.AnalyticalDSN(),
		ConnectTimeout: config.Env.DBConnectTimeout,
	})
}

func runApplyIndexes(cmd *cobra.Command, args []string) error {
	executor, err := openAnalytical()
	if err != nil {
		return err
	}
	defer executor.Close()

	existing, err := dbmanager.NewTableInspector(executor).Indexes(cmd.Context(), constants.HistoricalTable)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(existing))
	for _, idx := range existing {
		present[idx.Name] = true
	}

	names := make([]string, 0, len(constants.HistoricalIndexes))
	for name := range constants.HistoricalIndexes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		column := constants.HistoricalIndexes[name]
		if present[name] {
			log.Info().Str("component", "indexes").Str("index", name).Msg("index already present")
			continue
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, constants.HistoricalTable, column)
		if err := executor.Exec(cmd.Context(), stmt); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
		log.Info().Str("component", "indexes").Str("index", name).Str("column", column).Msg("index ensured")
	}
	return nil
}

func runInspectColumns(cmd *cobra.Command, args []string) error {
	table := constants.HistoricalTable
	if len(args) == 1 {
		table = args[0]
	}

	executor, err := openAnalytical()
	if err != nil {
		return err
	}
	defer executor.Close()

	columns, err := dbmanager.NewTableInspector(executor).Columns(cmd.Context(), table)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, c := range columns {
		fmt.Fprintf(out, "%s (%s)\n", c.Name, c.Type)
	}
	fmt.Fprintf(out, "Total: %d columns\n", len(columns))

	if missing := dbmanager.MissingColumns(columns, promptColumns()); len(missing) > 0 {
		return fmt.Errorf("table %s lacks columns described to the model: %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// promptColumns extracts the column names from the schema text sent to the model.
func promptColumns() []string {
	var names []string
	for _, line := range strings.Split(constants.HistoricalTableSchema, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		if fields := strings.Fields(strings.TrimPrefix(line, "- ")); len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names
}
