package cmd

import (
	"fmt"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/service"
	"github.com/spf13/cobra"
)

var (
	profileUserID string
	profileEmail  string
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage user profiles",
}

var profilesEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create a user's profile if it does not exist",
	Long: `Run the same provisioning the site runs after sign-in. Safe to repeat:
an existing profile is left untouched.

Examples:
  econest-web profiles ensure --user-id 6f1c... --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		p := service.NewProfileProvisioner(st, nil, cfg.ProvisionTimeout)
		outcome, err := p.EnsureProfile(cmd.Context(), domain.Identity{UserID: profileUserID, Email: profileEmail})
		if err != nil {
			return fmt.Errorf("%s: %w", outcome, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), outcome)
		return nil
	},
}

func init() {
	profilesEnsureCmd.Flags().StringVar(&profileUserID, "user-id", "", "Supabase user id (UUID)")
	profilesEnsureCmd.Flags().StringVar(&profileEmail, "email", "", "Email stored on a new profile")
	_ = profilesEnsureCmd.MarkFlagRequired("user-id")

	profilesCmd.AddCommand(profilesEnsureCmd)
}
