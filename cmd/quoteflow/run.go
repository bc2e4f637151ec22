package main

import (
	"context"

	"github.com/aretw0/quoteflow/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a quote interactively in the terminal",
	Long: `Starts the wizard on the terminal. Sessions are persisted in the configured
store; pass --session with an existing id to resume it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		vehicle, _ := cmd.Flags().GetString("vehicle")
		headless, _ := cmd.Flags().GetBool("headless")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Stop()

		return cli.RunSession(ctx, app, cli.RunOptions{
			SessionID: sessionID,
			Vehicle:   vehicle,
			Headless:  headless,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session id to create or resume")
	runCmd.Flags().String("vehicle", "", "Preselect a vehicle product id")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, plain output)")

	rootCmd.RunE = runCmd.RunE
}
