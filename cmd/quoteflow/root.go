package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/quoteflow/internal/cli"
	"github.com/aretw0/quoteflow/internal/config"
	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quoteflow",
	Short: "Quoteflow is a guided quote builder for vehicle accessories",
	Long: `Quoteflow walks a customer through the steps of a quote definition,
prices the selection per sales channel and submits the finished order.

Every flag can also be set through a QUOTEFLOW_* environment variable.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("definition", "f", "", "Quote definition file (yaml or json)")
	flags.String("catalog", "", "Directory of product documents merged over the definition")
	flags.String("hooks", "", "Hooks file with local enrich/submit commands")
	flags.String("store", "", "Session store: memory, file or redis")
	flags.String("channel", "", "Force a sales channel")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Bool("debug", false, "Shortcut for --log-level debug")
}

// loadConfig reads the environment and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	overrides := map[string]*string{
		"definition": &cfg.Definition,
		"catalog":    &cfg.CatalogDir,
		"hooks":      &cfg.HooksFile,
		"store":      &cfg.Store,
		"channel":    &cfg.Channel,
		"log-level":  &cfg.LogLevel,
	}
	for name, dst := range overrides {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// loadApp builds the application for commands that touch sessions.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Level())
	slog.SetDefault(logger)
	return cli.NewApp(cfg, logger)
}
