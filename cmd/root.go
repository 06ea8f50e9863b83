// Package cmd implements the bible-atlas command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/bible-atlas-api/internal/config"
	"github.com/JakeFAU/bible-atlas-api/internal/scraper"
	"github.com/JakeFAU/bible-atlas-api/internal/server"
)

// App is what the subcommands need from the wired application. Tests
// substitute a fake through appFactory.
type App interface {
	Run(ctx context.Context) error
	ScrapeOnce(ctx context.Context, userID int64, page int) (scraper.Result, error)
	Push(ctx context.Context) (scraper.PushResult, error)
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

type appFactory func(ctx context.Context, cfg config.Config) (App, error)

type appKeyType struct{}

var appKey appKeyType

const closeTimeout = 10 * time.Second

func buildApp(ctx context.Context, cfg config.Config) (App, error) {
	app, err := server.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func newRootCmd(factory appFactory) *cobra.Command {
	var cfgFile, envFile string

	cmd := &cobra.Command{
		Use:   "atlas",
		Short: "Bible atlas places API",
		Long: `atlas serves the bible atlas places API and runs its maintenance jobs:
scraping atlas pages into blob storage, importing curated place files and
applying the database schema.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			app, err := factory(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			return app.Close(ctx)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")

	cmd.AddCommand(newServeCmd(), newScrapeCmd(), newPushCmd(), newMigrateCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	app, ok := ctx.Value(appKey).(App)
	if !ok || app == nil {
		return nil, errors.New("application services not initialized")
	}
	return app, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd(buildApp).ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
