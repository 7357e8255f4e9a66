package tokenstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
	"github.com/crowdvoice-labs/gmailsource/internal/core/ports/driven"
)

var _ driven.TokenStore = (*FileTokenStore)(nil)

// FileTokenStore persists one JSON token file per account under a directory.
// When a key is supplied the payload is sealed with AES-GCM so tokens never
// hit disk in the clear.
type FileTokenStore struct {
	dir string
	key []byte
}

// NewFileTokenStore creates a file-backed token store rooted at dir.
// secret may be empty for plaintext storage; any non-empty value is
// stretched to a 256-bit key.
func NewFileTokenStore(dir, secret string) (*FileTokenStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	s := &FileTokenStore{dir: dir}
	if secret != "" {
		sum := sha256.Sum256([]byte(secret))
		s.key = sum[:]
	}
	return s, nil
}

// tokenPath derives a stable filename from the account email. Hashing keeps
// arbitrary addresses filesystem-safe.
func (s *FileTokenStore) tokenPath(email string) string {
	sum := sha256.Sum256([]byte(email))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:8])+".token")
}

// Get retrieves the token for an account.
func (s *FileTokenStore) Get(ctx context.Context, email string) (*domain.Token, error) {
	raw, err := os.ReadFile(s.tokenPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("token for %q: %w", email, domain.ErrNotFound)
		}
		return nil, err
	}

	if s.key != nil {
		raw, err = s.open(raw)
		if err != nil {
			return nil, fmt.Errorf("unsealing token for %q: %w", email, err)
		}
	}

	var token domain.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decoding stored token: %w", err)
	}
	return &token, nil
}

// Save stores a token under its account's file.
func (s *FileTokenStore) Save(ctx context.Context, token *domain.Token) error {
	if token == nil || token.Email == "" {
		return fmt.Errorf("%w: token requires an account email", domain.ErrInvalidInput)
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if s.key != nil {
		raw, err = s.seal(raw)
		if err != nil {
			return fmt.Errorf("sealing token: %w", err)
		}
	}

	return os.WriteFile(s.tokenPath(token.Email), raw, 0600)
}

// Delete removes the token file for an account. Deleting an absent token is
// not an error.
func (s *FileTokenStore) Delete(ctx context.Context, email string) error {
	err := os.Remove(s.tokenPath(email))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileTokenStore) seal(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *FileTokenStore) open(sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("sealed payload too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
