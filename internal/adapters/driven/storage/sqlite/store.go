package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crowdvoice-labs/gmailsource/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the token and checkpoint store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.gmailsource/data/state.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".gmailsource", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TokenStore returns a TokenStore interface backed by this store.
func (s *Store) TokenStore() driven.TokenStore {
	return &tokenStore{store: s}
}

// CheckpointStore returns a CheckpointStore interface backed by this store.
func (s *Store) CheckpointStore() driven.CheckpointStore {
	return &checkpointStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// nullString converts an empty string to nil for nullable columns.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullTime converts a zero time to nil for nullable columns.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// ==================== Token Store ====================

// tokenStore implements driven.TokenStore.
type tokenStore struct {
	store *Store
}

var _ driven.TokenStore = (*tokenStore)(nil)

// Get retrieves the token for an account.
func (s *tokenStore) Get(ctx context.Context, email string) (*domain.Token, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT email, access_token, refresh_token, expires_in, created, token_type, scope
		FROM tokens WHERE email = ?
	`, email)

	var token domain.Token
	var refreshToken, tokenType, scope sql.NullString
	if err := row.Scan(&token.Email, &token.AccessToken, &refreshToken,
		&token.ExpiresIn, &token.Created, &tokenType, &scope); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("token for %q: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning token: %w", err)
	}

	token.RefreshToken = refreshToken.String
	token.TokenType = tokenType.String
	token.Scope = scope.String

	return &token, nil
}

// Save stores or replaces the token for an account.
func (s *tokenStore) Save(ctx context.Context, token *domain.Token) error {
	if token == nil || token.Email == "" {
		return fmt.Errorf("%w: token requires an account email", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tokens (email, access_token, refresh_token, expires_in, created, token_type, scope)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_in = excluded.expires_in,
			created = excluded.created,
			token_type = excluded.token_type,
			scope = excluded.scope,
			updated_at = CURRENT_TIMESTAMP
	`, token.Email, token.AccessToken, nullString(token.RefreshToken),
		token.ExpiresIn, token.Created, nullString(token.TokenType), nullString(token.Scope))

	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Delete removes the token for an account.
func (s *tokenStore) Delete(ctx context.Context, email string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM tokens WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// ==================== Checkpoint Store ====================

// checkpointStore implements driven.CheckpointStore.
type checkpointStore struct {
	store *Store
}

var _ driven.CheckpointStore = (*checkpointStore)(nil)

// Get retrieves the checkpoint for a source.
func (s *checkpointStore) Get(ctx context.Context, sourceID string) (*domain.SyncCheckpoint, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT last_history_id, last_sync_date, first_sync_date, next_page_token
		FROM checkpoints WHERE source_id = ?
	`, sourceID)

	var cp domain.SyncCheckpoint
	var lastHistoryID, nextPageToken sql.NullString
	var lastSync, firstSync sql.NullTime
	if err := row.Scan(&lastHistoryID, &lastSync, &firstSync, &nextPageToken); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("checkpoint for %q: %w", sourceID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning checkpoint: %w", err)
	}

	cp.LastHistoryID = lastHistoryID.String
	cp.NextPageToken = nextPageToken.String
	if lastSync.Valid {
		cp.LastSyncDate = lastSync.Time
	}
	if firstSync.Valid {
		cp.FirstSyncDate = firstSync.Time
	}

	return &cp, nil
}

// Save stores or replaces the checkpoint for a source.
func (s *checkpointStore) Save(ctx context.Context, sourceID string, cp domain.SyncCheckpoint) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO checkpoints (source_id, last_history_id, last_sync_date, first_sync_date, next_page_token)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			last_history_id = excluded.last_history_id,
			last_sync_date = excluded.last_sync_date,
			first_sync_date = excluded.first_sync_date,
			next_page_token = excluded.next_page_token,
			updated_at = CURRENT_TIMESTAMP
	`, sourceID, nullString(cp.LastHistoryID), nullTime(cp.LastSyncDate),
		nullTime(cp.FirstSyncDate), nullString(cp.NextPageToken))

	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint for a source.
func (s *checkpointStore) Delete(ctx context.Context, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}
