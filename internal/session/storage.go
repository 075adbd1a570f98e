package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// TokenPair is the persisted credential pair. At most one pair is current
// per client; saving a new pair supersedes the old one.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// TokenStore is the client's durable storage for the token pair.
type TokenStore interface {
	Load() (TokenPair, bool, error)
	Save(TokenPair) error
	Clear() error
}

// FileStore persists the pair as a mode-0600 JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (TokenPair, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TokenPair{}, false, nil
		}
		return TokenPair{}, false, err
	}
	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		// Corrupt file; treat as absent rather than failing startup.
		return TokenPair{}, false, nil
	}
	if pair.Empty() {
		return TokenPair{}, false, nil
	}
	return pair, true, nil
}

func (s *FileStore) Save(pair TokenPair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemStore is an in-memory TokenStore for tests.
type MemStore struct {
	pair TokenPair
	ok   bool
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Load() (TokenPair, bool, error) { return s.pair, s.ok, nil }

func (s *MemStore) Save(pair TokenPair) error {
	s.pair = pair
	s.ok = true
	return nil
}

func (s *MemStore) Clear() error {
	s.pair = TokenPair{}
	s.ok = false
	return nil
}
