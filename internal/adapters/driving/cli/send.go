package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send a message through the authorised account",
	Args:  cobra.ExactArgs(1),
	Long: `Sends one message from the authorised Gmail account.

Examples:
  gmailsource send --to reporter@example.org --subject "Re: your report" "Thanks, received."`,
	RunE: runSend,
}

var (
	sendTo      string
	sendSubject string
)

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "Recipient address (required)")
	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "Message subject")
	_ = sendCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	if dataSource == nil {
		return errors.New("data source not configured")
	}

	ctx := context.Background()
	status, id := dataSource.Send(ctx, sendTo, args[0], sendSubject)
	if status != domain.MessageSent {
		return fmt.Errorf("send failed")
	}

	cmd.Printf("Sent message %s to %s\n", id, sendTo)
	return nil
}
