package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/accounts"
	"github.com/tally-dev/tally/internal/config"
)

func newInitCommand(flags *globalFlags) *cobra.Command {
	var seedFile string
	var noSeed bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, flags.userID, seedFile, noSeed)
		},
	}

	cmd.Flags().StringVar(&seedFile, "seed", "", "CSV file of accounts to create instead of the defaults")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "create no accounts")

	return cmd
}

func runInit(cmd *cobra.Command, dir, userID, seedFile string, noSeed bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	params := accounts.DefaultAccounts()
	if seedFile != "" {
		seeded, err := readSeedFile(seedFile)
		if err != nil {
			return err
		}
		params = seeded
	}
	if noSeed {
		params = nil
	}

	// Write tally.yaml.
	cfg := config.Default()
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Create the database and the starter accounts.
	a, err := openApp(cmd, &globalFlags{configPath: cfgPath, userID: userID})
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.accounts.Seed(cmd.Context(), userID, params)
	if err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized tally workspace at %s (%d accounts)\n", dir, len(created))
	return nil
}

func readSeedFile(path string) ([]accounts.CreateParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return readSeed(f)
}

func readSeed(r io.Reader) ([]accounts.CreateParams, error) {
	accts, err := accounts.ReadAccounts(r)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return accounts.SeedParams(accts), nil
}
