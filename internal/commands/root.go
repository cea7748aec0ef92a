// Package commands wires the expense2 CLI: a cobra root command with
// parse, import, and init subcommands on top of the shared pipeline.
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/KAFKA2306/expense2/internal/buildinfo"
	"github.com/KAFKA2306/expense2/internal/config"
	"github.com/KAFKA2306/expense2/internal/logger"
	"github.com/KAFKA2306/expense2/internal/pipeline"
	"github.com/KAFKA2306/expense2/internal/registry"
	"github.com/KAFKA2306/expense2/internal/rules"
	"github.com/KAFKA2306/expense2/internal/ui"
	"github.com/KAFKA2306/expense2/internal/validate"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:     "expense2",
		Short:   "Parse aggregator text exports and import them as normalized transactions",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// A missing .env is fine; exported variables still apply.
			_ = godotenv.Load()
			log := logger.New(verbose)
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFileName, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show detailed parsing logs")

	rootCmd.AddCommand(newInitCommand(&configPath))
	rootCmd.AddCommand(newParseCommand(&configPath))
	rootCmd.AddCommand(newImportCommand(&configPath))

	return rootCmd
}

// newPipeline builds the parsing pipeline for a configured run. Rules come
// from the configured file when one is set, otherwise from the embedded
// default set.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	reg, err := registry.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create parser registry: %w", err)
	}

	var engine *rules.Engine
	if cfg.Rules != "" {
		engine, err = rules.LoadFromFile(cfg.Rules)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules file: %w", err)
		}
	} else {
		engine, err = rules.LoadEmbedded()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded rules: %w", err)
		}
	}

	return pipeline.New(reg, engine, cfg.DefaultYear), nil
}

// reportValidation shows the operator what validation found in one parsed
// file. Records with errors never reach the export or the store, so each one
// is called out.
func reportValidation(result *validate.ValidationResult) {
	if result == nil {
		return
	}
	for _, w := range result.Warnings {
		ui.Warning(fmt.Sprintf("record %d [%s]: %s", w.Index, w.Field, w.Message))
	}
	for _, e := range result.Errors {
		ui.Error(fmt.Sprintf("record %d [%s]: %s (record dropped)", e.Index, e.Field, e.Message))
	}
}
