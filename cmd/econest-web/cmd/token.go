package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/pkg/jwtx"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	tokenUserID string
	tokenEmail  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Development access tokens",
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint an HS256 access token signed with SUPABASE_JWT_SECRET",
	Long: `Print an access token shaped like the ones Supabase Auth issues after a
password sign-in. Useful against a local server without a Supabase project.

Examples:
  SUPABASE_JWT_SECRET=... econest-web token mint --email ada@example.com
  econest-web token mint --user-id 6f1c... --ttl 5m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.SupabaseJWTSecret == "" {
			return errors.New("SUPABASE_JWT_SECRET is not set")
		}
		signer, err := jwtx.NewHS256Signer([]byte(cfg.SupabaseJWTSecret))
		if err != nil {
			return err
		}

		userID := tokenUserID
		if userID == "" {
			userID = uuid.NewString()
		}
		userID, err = domain.ParseUserID(userID)
		if err != nil {
			return err
		}
		if tokenTTL <= 0 {
			return fmt.Errorf("--ttl must be positive, got %s", tokenTTL)
		}

		claims := jwtx.NewUserClaims(userID, tokenEmail, uuid.NewString(), cfg.Issuer(), tokenTTL, time.Now())
		token, err := signer.Sign(claims)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenMintCmd.Flags().StringVar(&tokenUserID, "user-id", "", "Subject user id (random when empty)")
	tokenMintCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenMintCmd.Flags().DurationVar(&tokenTTL, "ttl", jwtx.DefaultAccessTokenTTL, "Token lifetime")

	tokenCmd.AddCommand(tokenMintCmd)
}
