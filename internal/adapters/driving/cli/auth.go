package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crowdvoice-labs/gmailsource/internal/adapters/driving/oauth"
	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// callbackPortRange bounds the local listener used for the OAuth redirect.
// The range must match the redirect URIs registered with the OAuth app.
const (
	callbackPortStart = 8085
	callbackPortEnd   = 8095
	callbackTimeout   = 5 * time.Minute
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorise a Gmail account",
	Long: `Authorise a Gmail account for fetching and sending mail.

Opens the provider consent page in your browser and waits for the redirect
on a local port. The granted token is stored locally and refreshed
automatically on later runs.

Examples:
  # Interactive authorisation
  gmailsource auth

  # Pre-select the account and bound the first sync
  gmailsource auth --email deploy@example.org --since 2026-01-01

  # Headless: print the URL and paste the code manually
  gmailsource auth --no-browser`,
	RunE: runAuth,
}

var (
	authEmail     string
	authSince     string
	authNoBrowser bool
)

func init() {
	authCmd.Flags().StringVar(&authEmail, "email", "", "Account email to pre-select on the consent page")
	authCmd.Flags().StringVar(&authSince, "since", "", "Earliest message date for the first sync (YYYY-MM-DD)")
	authCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, _ []string) error {
	if authFlow == nil {
		return errors.New("auth service not configured")
	}

	var firstSync time.Time
	if authSince != "" {
		parsed, err := time.Parse("2006-01-02", authSince)
		if err != nil {
			return fmt.Errorf("invalid --since date %q: %w", authSince, err)
		}
		firstSync = parsed
	}

	ctx := context.Background()
	authURL, state := authFlow.AuthURL(authEmail)

	var code string
	if authNoBrowser {
		var err error
		code, err = promptForCode(cmd, authURL)
		if err != nil {
			return err
		}
	} else {
		var err error
		code, err = codeViaCallback(cmd, authURL, state)
		if err != nil {
			return err
		}
	}

	token, err := authFlow.Authorize(ctx, code)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if checkpointStore != nil {
		if firstSync.IsZero() {
			firstSync = time.Now()
		}
		cp := domain.SyncCheckpoint{FirstSyncDate: firstSync}
		if err := checkpointStore.Save(ctx, sourceID, cp); err != nil {
			return fmt.Errorf("saving sync state: %w", err)
		}
	}

	cmd.Printf("Authorised %s\n", token.Email)
	return nil
}

// codeViaCallback opens the browser and waits for the redirect on a local
// listener.
func codeViaCallback(cmd *cobra.Command, authURL, state string) (string, error) {
	port, err := oauth.FindAvailablePort(callbackPortStart, callbackPortEnd)
	if err != nil {
		return "", err
	}

	server := oauth.NewCallbackServer(port, state)
	if err := server.Start(); err != nil {
		return "", fmt.Errorf("starting callback server: %w", err)
	}
	defer server.Stop() //nolint:errcheck

	cmd.Println("Opening browser for authorization...")
	cmd.Printf("If the browser does not open, visit:\n\n  %s\n\n", authURL)
	if err := oauth.OpenBrowser(authURL); err != nil {
		cmd.Printf("Could not open browser: %v\n", err)
	}

	cmd.Println("Waiting for authorization callback...")
	code, err := server.WaitForCode(callbackTimeout)
	if err != nil {
		return "", fmt.Errorf("waiting for authorization: %w", err)
	}
	return code, nil
}

// promptForCode prints the URL and reads the code from stdin.
func promptForCode(cmd *cobra.Command, authURL string) (string, error) {
	cmd.Printf("Visit the following URL and authorise access:\n\n  %s\n\n", authURL)
	cmd.Print("Enter the authorization code: ")

	var code string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &code); err != nil {
		return "", fmt.Errorf("reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("no authorization code provided")
	}
	return code, nil
}
