package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the grant and remove the stored token",
	Long: `Revokes the OAuth grant with the provider and removes the stored token.

The local token is removed even when revocation fails, so the account is
always disconnected from this machine.`,
	RunE: runLogout,
}

var logoutKeepState bool

func init() {
	logoutCmd.Flags().BoolVar(&logoutKeepState, "keep-state", false, "Keep the sync checkpoint for a later re-authorisation")
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if authFlow == nil {
		return errors.New("auth service not configured")
	}

	ctx := context.Background()
	if err := authFlow.Unauthorize(ctx); err != nil {
		return fmt.Errorf("removing stored token: %w", err)
	}

	if !logoutKeepState && checkpointStore != nil {
		if err := checkpointStore.Delete(ctx, sourceID); err != nil {
			return fmt.Errorf("removing sync state: %w", err)
		}
	}

	cmd.Println("Account disconnected.")
	return nil
}
