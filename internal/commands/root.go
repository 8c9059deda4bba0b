package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/accounts"
	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/buildinfo"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/goals"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/logging"
	"github.com/tally-dev/tally/internal/metrics"
	"github.com/tally-dev/tally/internal/recurrence"
	"github.com/tally-dev/tally/internal/splits"
	"github.com/tally-dev/tally/internal/storage/sqlite"
)

type globalFlags struct {
	configPath string
	userID     string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Personal finance ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", config.FileName, "path to tally.yaml")
	rootCmd.PersistentFlags().StringVar(&flags.userID, "user", envOr("TALLY_USER", "local"), "user id to act as")

	rootCmd.AddCommand(newInitCommand(flags))
	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(newAccountCommand(flags))
	rootCmd.AddCommand(newBalanceCommand(flags))
	rootCmd.AddCommand(newEntryCommand(flags))

	return rootCmd
}

// app is the service graph the subcommands run against.
type app struct {
	cfg        *config.Config
	log        *slog.Logger
	store      *sqlite.Store
	metrics    *metrics.Metrics
	reconciler *balance.Reconciler
	accounts   *accounts.Service
	ledger     *ledger.Service
	goals      *goals.Service
	splits     *splits.Service
}

// openApp loads configuration and opens the database. A relative database
// path resolves against the directory holding the config file.
func openApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	if err := config.LoadEnvFile(); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level))
	slog.SetDefault(log)

	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(filepath.Dir(flags.configPath), dbPath)
	}
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	m := metrics.New()
	r := balance.NewReconciler(store, log, m)
	exp := recurrence.NewExpander(cfg.Ledger.MaxOccurrences, cfg.Ledger.DefaultInstallmentFrequency, log)
	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		metrics:    m,
		reconciler: r,
		accounts:   accounts.NewService(store, r, log),
		ledger:     ledger.NewService(store, r, exp, log, m),
		goals:      goals.NewService(store, log),
		splits:     splits.NewService(store, log),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
