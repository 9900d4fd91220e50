package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/hublink/internal/app"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Run one authorization without the TUI and print the items it can see.",
	Long: `connect opens the consent page in a browser window and waits until the
window is closed. It then exchanges the user and organization IDs for
credentials, fetches the items they can see and prints a summary.

The command exits non-zero when no usable credentials come back or the item
fetch fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Connect(cmd.Context(), appOptions(cmd))
	},
}
