package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/service"
	"github.com/spf13/cobra"
)

var (
	roleUserID string
	roleName   string
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Inspect and assign user roles",
}

var rolesAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign a role to a user",
	Long: `Set the role of one user. Users without an assignment are members.

Running this against a live server's database does not reach pages that
are already open; they pick the change up on their next request.

Examples:
  # Make a user the owner
  econest-web roles assign --user-id 6f1c... --role owner`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := domain.ParseRole(roleName)
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := &service.RolesService{Store: st}
		if err := svc.Assign(cmd.Context(), roleUserID, role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", roleUserID, role)
		return nil
	},
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List explicit role assignments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		assignments, err := (&service.RolesService{Store: st}).List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USER ID\tROLE\tUPDATED")
		for _, a := range assignments {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.UserID, a.Role, a.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	rolesAssignCmd.Flags().StringVar(&roleUserID, "user-id", "", "Supabase user id (UUID)")
	rolesAssignCmd.Flags().StringVar(&roleName, "role", "", "Role: none, member, admin, owner")
	_ = rolesAssignCmd.MarkFlagRequired("user-id")
	_ = rolesAssignCmd.MarkFlagRequired("role")

	rolesCmd.AddCommand(rolesAssignCmd)
	rolesCmd.AddCommand(rolesListCmd)
}
