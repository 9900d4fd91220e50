package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/five82/hublink/internal/app"
)

// Flags shared by every command.
var (
	configPath string
	prefsPath  string
	userID     string
	orgID      string
)

var rootCmd = &cobra.Command{
	Use:           "hublink",
	Short:         "Connect a workspace to HubSpot through the browser consent flow.",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), appOptions(cmd))
	},
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func appOptions(cmd *cobra.Command) app.Options {
	return app.Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		UserID:     userID,
		OrgID:      orgID,
		Version:    version,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	}
}

func init() {
	rootCmd.Version = version
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.config/hublink/config.toml)")
	flags.StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/hublink/prefs.toml)")
	flags.StringVar(&userID, "user", "", "user ID sent to the backend")
	flags.StringVar(&orgID, "org", "", "organization ID sent to the backend")

	rootCmd.AddCommand(connectCmd)
}
