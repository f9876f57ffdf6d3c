package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/gigaspace-pagegen/internal/app"
	"github.com/JakeFAU/gigaspace-pagegen/internal/config"
	"github.com/JakeFAU/gigaspace-pagegen/internal/logging"
)

func newGenerateCmd(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate every character page",
		Long: `Cleans previous output, detects how many characters exist, renders a page
per character (plus a category-scoped copy unless disabled) and writes a run
summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts, stdout)
		},
	}
}

func runGenerate(cmd *cobra.Command, opts *options, stdout io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cmd, opts, &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development || opts.devLogs,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	application, err := app.New(cmd.Context(), cfg, logger, stdout)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}
	defer application.Close()

	s, err := application.Run(cmd.Context())
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return fmt.Errorf("generate: %w", err)
	}
	logger.Info("generation finished",
		zap.String("run_id", s.RunID),
		zap.Int64("pages", s.TotalPages),
		zap.Int64("missing", s.Missing),
	)
	return nil
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("total") {
		cfg.Generator.Total = opts.total
	}
	if flags.Changed("concurrency") {
		cfg.Generator.MaxConcurrent = opts.concurrency
	}
	if opts.noCategoryPages {
		cfg.Generator.CategoryPages = false
	}
}
