package cli

import (
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/crowdvoice-labs/gmailsource/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the data-source HTTP API",
	Long: `Serves the data-source operations over HTTP for a host platform:
connection setup, teardown, fetch and send.`,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8720", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if authFlow == nil || dataSource == nil || checkpointStore == nil {
		return errors.New("services not configured")
	}

	api := httpapi.NewServer(sourceID, authFlow, dataSource, checkpointStore)
	server := &http.Server{
		Addr:         serveAddr,
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	cmd.Printf("Serving on http://%s\n", serveAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
