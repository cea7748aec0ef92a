package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KAFKA2306/expense2/internal/config"
	"github.com/KAFKA2306/expense2/internal/importer"
	"github.com/KAFKA2306/expense2/internal/scanner"
	"github.com/KAFKA2306/expense2/internal/store"
	"github.com/KAFKA2306/expense2/internal/ui"
)

func newImportCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file-or-dir]",
		Short: "Parse exports and load new transactions into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}

			// Stat before touching the database: a missing input must not
			// leave a freshly created empty store behind.
			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			files := []string{args[0]}
			if info.IsDir() {
				ui.Header("Importing Transactions")
				files, err = scanner.New(args[0]).Discover()
				if err != nil {
					return err
				}
				ui.Info(fmt.Sprintf("Found %d input files", len(files)))
				if len(files) == 0 {
					fmt.Println("Parsed 0 transactions.")
					fmt.Println("Imported 0 new transactions. (0 duplicates skipped)")
					return nil
				}
			}

			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			im := importer.New(st)

			var parsed, inserted, skipped, failed int
			for i, file := range files {
				if info.IsDir() {
					ui.Step(i+1, len(files), file)
				}

				result, err := p.ParseFile(cmd.Context(), file)
				if err != nil {
					if len(files) == 1 {
						return err
					}
					ui.Error(fmt.Sprintf("%s: %v", file, err))
					failed++
					continue
				}

				reportValidation(result.Validation)

				run, err := im.Run(cmd.Context(), file, result.Importable())
				if err != nil {
					if len(files) == 1 {
						return err
					}
					ui.Error(fmt.Sprintf("%s: %v", file, err))
					failed++
					continue
				}

				if info.IsDir() {
					ui.Success(fmt.Sprintf("%d new, %d duplicates skipped", run.Inserted, run.Skipped))
				}

				parsed += len(result.Transactions)
				inserted += run.Inserted
				skipped += run.Skipped
			}

			fmt.Printf("Parsed %d transactions.\n", parsed)
			fmt.Printf("Imported %d new transactions. (%d duplicates skipped)\n", inserted, skipped)

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	return cmd
}
