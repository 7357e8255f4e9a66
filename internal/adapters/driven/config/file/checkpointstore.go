package file

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore keeps sync checkpoints inside the configuration record,
// one JSON blob per source id. Suitable for single-account deployments where
// the config file is the only state the process owns.
type CheckpointStore struct {
	config driven.ConfigStore
	prefix string
}

// NewCheckpointStore creates a config-backed checkpoint store persisting
// under the given record prefix, e.g. "sources.gmail".
func NewCheckpointStore(config driven.ConfigStore, prefix string) *CheckpointStore {
	return &CheckpointStore{config: config, prefix: prefix}
}

func (s *CheckpointStore) key(sourceID string) string {
	if s.prefix == "" {
		return "checkpoint." + sourceID
	}
	return s.prefix + ".checkpoint." + sourceID
}

// Get retrieves the checkpoint for a source.
func (s *CheckpointStore) Get(ctx context.Context, sourceID string) (*domain.SyncCheckpoint, error) {
	raw := s.config.GetString(s.key(sourceID))
	if raw == "" {
		return nil, fmt.Errorf("checkpoint for %q: %w", sourceID, domain.ErrNotFound)
	}

	var cp domain.SyncCheckpoint
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return nil, fmt.Errorf("decoding checkpoint: %w", err)
	}
	return &cp, nil
}

// Save stores or replaces the checkpoint for a source.
func (s *CheckpointStore) Save(ctx context.Context, sourceID string, cp domain.SyncCheckpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	return s.config.Set(s.key(sourceID), string(raw))
}

// Delete removes the checkpoint for a source.
func (s *CheckpointStore) Delete(ctx context.Context, sourceID string) error {
	return s.config.Delete(s.key(sourceID))
}
