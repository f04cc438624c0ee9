package cmd

import (
	"fmt"

	"github.com/econest/web/internal/web/app"
	"github.com/econest/web/internal/web/store"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
}

// openStore opens the configured database with migrations applied.
func openStore(cmd *cobra.Command) (store.Store, error) {
	st, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return st, nil
}
