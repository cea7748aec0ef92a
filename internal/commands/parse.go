package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KAFKA2306/expense2/internal/config"
	"github.com/KAFKA2306/expense2/internal/output"
)

func newParseCommand(configPath *string) *cobra.Command {
	var (
		outPath string
		merge   bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse one raw export into the canonical CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			if outPath != "" {
				cfg.Export = outPath
			}

			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}

			result, err := p.ParseFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			reportValidation(result.Validation)
			fmt.Printf("Parsed %d transactions.\n", len(result.Transactions))

			txs := result.Importable()
			opts := output.WriteOptions{MergeMode: merge, FilePath: cfg.Export}
			if err := output.WriteToFile(txs, opts); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Printf("Exported %d transactions to %s\n", len(txs), cfg.Export)

			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "CSV output path (overrides the configured export path)")
	cmd.Flags().BoolVar(&merge, "merge", false, "merge into an existing export instead of overwriting it")

	return cmd
}
