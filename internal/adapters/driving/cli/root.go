// Package cli implements the command-line surface of the Gmail source.
// Commands talk to the core through the driving ports; concrete services
// are injected by the composition root via SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driving"
	"github.com/crowdvoice-labs/gmailsource/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Injected services. Nil until SetServices runs; commands guard for that so
// a partially wired binary fails with a clear message.
var (
	sourceID        string
	authFlow        driving.AuthFlow
	dataSource      driving.DataSource
	checkpointStore driven.CheckpointStore
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "gmailsource",
	Short: "Gmail data source for message ingestion",
	Long: `gmailsource connects a Gmail account to a message ingestion pipeline.

It authorises the account via OAuth, fetches new mail incrementally using
the provider change log, and can send outbound replies through the same
account.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
}

// SetServices injects the core services the commands operate on.
func SetServices(id string, auth driving.AuthFlow, source driving.DataSource, checkpoints driven.CheckpointStore) {
	sourceID = id
	authFlow = auth
	dataSource = source
	checkpointStore = checkpoints
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
