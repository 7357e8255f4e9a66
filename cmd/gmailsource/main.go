// Command gmailsource is the Gmail data-source binary: it authorises a
// mailbox account, fetches new mail incrementally and sends outbound
// replies, either from the command line or over the HTTP API.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	configfile "github.com/crowdvoice-labs/gmailsource/internal/adapters/driven/config/file"
	googleoauth "github.com/crowdvoice-labs/gmailsource/internal/adapters/driven/oauth"
	"github.com/crowdvoice-labs/gmailsource/internal/adapters/driven/storage/sqlite"
	"github.com/crowdvoice-labs/gmailsource/internal/adapters/driven/tokenstore"
	"github.com/crowdvoice-labs/gmailsource/internal/adapters/driving/cli"
	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
	"github.com/crowdvoice-labs/gmailsource/internal/core/services"
	"github.com/crowdvoice-labs/gmailsource/internal/gmail"
	"github.com/crowdvoice-labs/gmailsource/internal/render"
)

// sourceID identifies this connection in checkpoint storage. One account is
// managed per deployment, matching the one-token config record.
const sourceID = "gmail"

// configPrefix is the record prefix for source settings in the config file.
const configPrefix = "sources.gmail"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore(os.Getenv("GMAILSOURCE_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	cfg := sourceConfig(configStore)

	tokens, checkpoints, cleanup, err := buildStores(configStore)
	if err != nil {
		return err
	}
	defer cleanup()

	transport := googleoauth.NewGoogleTransport(cfg)
	session := services.NewAuthSession(transport, tokens, cfg.Email)
	coordinator := services.NewSyncCoordinator(
		sourceID, cfg, session, checkpoints, gmail.NewFactory(), render.New())

	cli.SetServices(sourceID, session, coordinator, checkpoints)
	return cli.Execute()
}

// sourceConfig reads the source record from the config file and resolves it
// against deployment-wide defaults.
func sourceConfig(store driven.ConfigStore) domain.SourceConfig {
	cfg := domain.SourceConfig{
		Email:         store.GetString(configPrefix + ".email"),
		ClientID:      store.GetString(configPrefix + ".client_id"),
		ClientSecret:  store.GetString(configPrefix + ".client_secret"),
		RedirectURI:   store.GetString(configPrefix + ".redirect_uri"),
		Authenticated: store.GetBool(configPrefix + ".authenticated"),
		Render:        domain.RenderMode(store.GetString(configPrefix + ".render")),
		Label:         store.GetString(configPrefix + ".label"),
	}

	defaults := domain.SourceConfig{
		ClientID:     store.GetString("oauth.client_id"),
		ClientSecret: store.GetString("oauth.client_secret"),
		RedirectURI:  store.GetString("oauth.redirect_uri"),
	}
	return cfg.Resolve(defaults)
}

// buildStores selects the persistence backend from the storage.backend key:
// "sqlite" (default), "file" or "config".
func buildStores(store driven.ConfigStore) (driven.TokenStore, driven.CheckpointStore, func(), error) {
	backend := store.GetString("storage.backend")
	if backend == "" {
		backend = "sqlite"
	}

	// The sqlite and file backends keep tokens outside the config record, so
	// they are wrapped to maintain the record's email and authenticated flag.
	switch backend {
	case "sqlite":
		db, err := sqlite.NewStore(store.GetString("storage.data_dir"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		tokens := tokenstore.WithSourceState(db.TokenStore(), store, configPrefix)
		return tokens, db.CheckpointStore(), func() { db.Close() }, nil

	case "file":
		dir := store.GetString("storage.data_dir")
		if dir == "" {
			dir = filepath.Join(filepath.Dir(store.Path()), "tokens")
		}
		files, err := tokenstore.NewFileTokenStore(dir, store.GetString("storage.secret"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening token store: %w", err)
		}
		tokens := tokenstore.WithSourceState(files, store, configPrefix)
		return tokens, configfile.NewCheckpointStore(store, configPrefix), func() {}, nil

	case "config":
		tokens := tokenstore.NewConfigTokenStore(store, configPrefix)
		return tokens, configfile.NewCheckpointStore(store, configPrefix), func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
