package cmd

import (
	"fmt"

	"github.com/econest/web/internal/web/app"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Start the HTTP server and block until SIGINT or SIGTERM.

Examples:
  # Serve on the port from PORT (default 8080)
  econest-web serve

  # Serve on another port against Postgres
  econest-web serve --port 9000 --database-url postgres://localhost/econest`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Port = servePort
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return application.Run()
}
