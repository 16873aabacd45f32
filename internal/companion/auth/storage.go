package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"

	"github.com/tessro/ytmdeck/internal/config"
)

const (
	// DefaultTokenFileName is the default name for the token file.
	DefaultTokenFileName = "token.json"

	keyringService = "ytmdeck"
)

// Store persists the API token. Load returns nil, nil when nothing is stored.
type Store interface {
	Load() (*Token, error)
	Save(token *Token) error
	Delete() error
	Location() string
}

// NewStore returns the store selected by cfg.
func NewStore(cfg config.AuthConfig, appID string) (Store, error) {
	switch cfg.Store {
	case "keyring":
		return NewKeyringStore(appID), nil
	case "", "file":
		return NewFileStore(afero.NewOsFs(), cfg.TokenFile)
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Store)
	}
}

// FileStore keeps the token in a JSON file.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore creates a file store at path.
// If path is empty, uses the default location (~/.config/ytmdeck/token.json).
func NewFileStore(fs afero.Fs, path string) (*FileStore, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		path = filepath.Join(configDir, "ytmdeck", DefaultTokenFileName)
	}
	return &FileStore{fs: fs, path: path}, nil
}

// Save persists a token to disk.
func (s *FileStore) Save(token *Token) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Load reads a token from disk.
func (s *FileStore) Load() (*Token, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

// Delete removes the stored token.
func (s *FileStore) Delete() error {
	err := s.fs.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Location returns the token file path.
func (s *FileStore) Location() string {
	return s.path
}

// KeyringStore keeps the token in the system keyring.
type KeyringStore struct {
	user string
}

// NewKeyringStore creates a keyring store keyed by appID.
func NewKeyringStore(appID string) *KeyringStore {
	if appID == "" {
		appID = "ytmdeck"
	}
	return &KeyringStore{user: appID}
}

// Save persists a token to the keyring.
func (s *KeyringStore) Save(token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := keyring.Set(keyringService, s.user, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// Load reads a token from the keyring.
func (s *KeyringStore) Load() (*Token, error) {
	data, err := keyring.Get(keyringService, s.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var token Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to parse keyring entry: %w", err)
	}
	return &token, nil
}

// Delete removes the token from the keyring.
func (s *KeyringStore) Delete() error {
	err := keyring.Delete(keyringService, s.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry: %w", err)
	}
	return nil
}

// Location describes the keyring entry.
func (s *KeyringStore) Location() string {
	return "keyring:" + keyringService + "/" + s.user
}
