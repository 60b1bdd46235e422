// Package keystore caches the last-connected public key so a returning player
// can resume without retyping it. Secret keys are never written anywhere.
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stellar/go/keypair"
)

// Store persists the cached key to wallet.json under the data dir.
type Store struct {
	mu      sync.Mutex
	dataDir string
}

func New(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "data"
	}
	return &Store{dataDir: dataDir}
}

type record struct {
	PublicKey string    `json:"publicKey"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, "wallet.json")
}

// Save stores pub as the last-connected account. Anything that does not parse
// as a public address (a secret seed included) is refused.
func (s *Store) Save(pub string) error {
	if _, err := keypair.ParseAddress(pub); err != nil {
		return fmt.Errorf("keystore: not a public key: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record{PublicKey: pub, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0644)
}

// Load returns the cached public key, if any.
func (s *Store) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path())
	if err != nil {
		return "", false
	}
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return "", false
	}
	if _, err := keypair.ParseAddress(r.PublicKey); err != nil {
		return "", false
	}
	return r.PublicKey, true
}

// Clear forgets the cached key (logout).
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
