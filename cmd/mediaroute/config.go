package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediaroute/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the discovered config after defaults and environment substitution,
with the SMB password masked. Validation problems are listed and make the
command fail.`,
	Args: cobra.NoArgs,
	RunE: runConfigCmd,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfigCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	shown := cfg.Redacted()
	if jsonOutput {
		printJSON(out, shown)
	} else if err := shown.Encode(out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return &config.ConfigError{Errors: errs}
	}
	return nil
}
