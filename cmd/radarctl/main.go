// Command radarctl runs one-off RADAR operations: an ad hoc scan printed as
// JSON, schema migrations and the auth cleanup pass.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/competitor-radar/config"
	"github.com/oksasatya/competitor-radar/internal/application/analysis"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/insight"
	pginfra "github.com/oksasatya/competitor-radar/internal/infrastructure/postgres"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/snapshot"
	"github.com/oksasatya/competitor-radar/internal/worker/cleanup"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-ctl", cfg.Env)
	if err := newRootCmd(cfg, logger).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, logger *logrus.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "radarctl",
		Short:        "Operate the competitor radar",
		SilenceUsage: true,
	}
	root.AddCommand(newScanCmd(cfg, logger), newMigrateCmd(cfg, logger), newPurgeCmd(cfg, logger))
	return root
}

func newScanCmd(cfg *config.Config, logger *logrus.Logger) *cobra.Command {
	var (
		yourURL     string
		competitors []string
	)
	cmd := &cobra.Command{
		Use:     "scan",
		Short:   "Analyse competitors against your site and print the report as JSON",
		Example: "  radarctl scan --your-url acme.io --competitor rival.com --competitor other.io",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			completer, err := insight.NewGenAICompleter(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
			if err != nil {
				return err
			}
			snap := snapshot.New(snapshot.Options{
				UserAgent:    cfg.RadarUserAgent,
				MaxBodyBytes: cfg.RadarMaxBodyBytes,
				Timeout:      cfg.RadarFetchTimeout,
				Logger:       logger,
			})
			orch := analysis.NewOrchestrator(snap, insight.NewSynthesizer(completer, logger), nil, logger, analysis.Options{
				Concurrency:      cfg.RadarConcurrency,
				FetchTimeout:     cfg.RadarFetchTimeout,
				SynthesisTimeout: cfg.RadarSynthesisTimeout,
				StageTimeout:     cfg.RadarStageTimeout,
				PipelineTimeout:  cfg.RadarPipelineTimeout,
			})
			rep, err := orch.Run(ctx, yourURL, competitors)
			if err != nil {
				var insuff *analysis.InsufficientDataError
				if errors.As(err, &insuff) {
					_ = writeJSON(cmd, insuff.Failures)
				}
				return err
			}
			return writeJSON(cmd, rep)
		},
	}
	cmd.Flags().StringVar(&yourURL, "your-url", "", "your site")
	cmd.Flags().StringArrayVar(&competitors, "competitor", nil, "competitor site (repeatable, up to 5)")
	_ = cmd.MarkFlagRequired("your-url")
	_ = cmd.MarkFlagRequired("competitor")
	return cmd
}

func newMigrateCmd(cfg *config.Config, logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(_ *cobra.Command, args []string) error {
			return pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, args[0] == "up", logger)
		},
	}
}

func newPurgeCmd(cfg *config.Config, logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired magic links and sessions once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := pginfra.NewPool(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()
			job := cleanup.NewJob(pginfra.NewMagicLinkRepository(pool), pginfra.NewSessionRepository(pool), logger, nil)
			res, err := job.Run(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
