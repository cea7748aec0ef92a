package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KAFKA2306/expense2/internal/config"
)

func newInitCommand(configPath *string) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(*configPath); err == nil {
				return fmt.Errorf("config file %s already exists", *configPath)
			}

			cfg := config.Default()
			cfg.DefaultYear = year
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.Save(*configPath, cfg); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", *configPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "default year for date markers without a year")

	return cmd
}
