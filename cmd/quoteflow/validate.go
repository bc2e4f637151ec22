package main

import (
	"fmt"

	"github.com/aretw0/quoteflow/pkg/catalog"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [definition]",
	Short: "Check a quote definition for consistency",
	Long: `Loads the definition and reports unknown step references, malformed
visibility rules, products on missing steps and broken channel routes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := cfg.Definition
		if len(args) > 0 {
			path = args[0]
		}

		def, err := catalog.Load(path)
		if err != nil {
			return err
		}
		if err := catalog.Validate(def); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d steps, %d products, %d channels\n", len(def.Steps), len(def.Products), len(def.Channels))
		fmt.Fprintln(out, "Definition is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
