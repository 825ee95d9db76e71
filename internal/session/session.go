// Package session persists the kiosk's platform credentials locally.
// The session record is sealed with a per-device passphrase before it
// touches the key-value store, so a copied data directory is useless
// without the passphrase file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gatherkit/gatekit/internal/crypto"
	"github.com/gatherkit/gatekit/internal/storage"
	"github.com/gatherkit/gatekit/pkg/types"
)

const (
	sessionKey = "session"
	// DeviceKeyFileName is the filename holding the device passphrase.
	DeviceKeyFileName = ".device_key"
)

// ErrNoSession is returned by Current when no session has been saved.
var ErrNoSession = errors.New("no active session, run 'gatekit login' first")

// Manager seals and unseals the local session record.
type Manager struct {
	store  storage.Store
	sealer *crypto.Sealer
}

// NewManager opens the session manager, creating the device passphrase on
// first use.
func NewManager(store storage.Store, configDir string) (*Manager, error) {
	passphrase, err := loadOrCreateDeviceKey(configDir)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, sealer: crypto.NewSealer(passphrase)}, nil
}

// NewManagerWithPassphrase opens the session manager with an explicit
// passphrase. Used by tests and by deployments that provision the key
// out of band.
func NewManagerWithPassphrase(store storage.Store, passphrase string) *Manager {
	return &Manager{store: store, sealer: crypto.NewSealer(passphrase)}
}

// Save seals and persists the session record.
func (m *Manager) Save(session *types.Session) error {
	if session.Token == "" {
		return fmt.Errorf("session token cannot be empty")
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	plaintext, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	defer crypto.SecureZero(plaintext)

	blob, err := m.sealer.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}
	if err := m.store.Set(sessionKey, []byte(blob)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Current returns the saved session, or ErrNoSession when none exists.
func (m *Manager) Current() (*types.Session, error) {
	blob, err := m.store.Get(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(blob) == 0 {
		return nil, ErrNoSession
	}

	plaintext, err := m.sealer.Open(string(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to unseal session: %w", err)
	}
	defer crypto.SecureZero(plaintext)

	var session types.Session
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Expired reports whether the session is older than the given timeout.
// A zero timeout means sessions never expire.
func (m *Manager) Expired(session *types.Session, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return time.Since(session.UpdatedAt) > timeout
}

// Clear deletes the saved session.
func (m *Manager) Clear() error {
	if err := m.store.Delete(sessionKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// loadOrCreateDeviceKey reads the device passphrase, generating and
// persisting a fresh one on first run.
func loadOrCreateDeviceKey(configDir string) (string, error) {
	path := filepath.Join(configDir, DeviceKeyFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		passphrase := strings.TrimSpace(string(data))
		if passphrase == "" {
			return "", fmt.Errorf("device key file %s is empty", path)
		}
		return passphrase, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read device key: %w", err)
	}

	passphrase, err := crypto.GeneratePassphrase(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate device key: %w", err)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to write device key: %w", err)
	}
	return passphrase, nil
}
