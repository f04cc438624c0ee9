package cmd

import (
	"fmt"
	"os"

	"github.com/econest/web/internal/web/app"
	"github.com/spf13/cobra"
)

var (
	cfg         app.Config
	databaseURL string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "econest-web",
	Short: "EcoNest web front-end",
	Long: `econest-web serves the EcoNest marketing site and the signed-in
dashboard, and carries the operator commands that manage its database.

Configuration comes from the environment (SUPABASE_URL, COOKIE_SECRET,
DATABASE_URL, ...). Flags override the matching variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = app.LoadConfig()
		if databaseURL != "" {
			cfg.DatabaseURL = databaseURL
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		app.NewLogger(cfg)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database URL or SQLite path (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion)
	},
}
