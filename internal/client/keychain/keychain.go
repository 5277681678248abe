// Package keychain stores the authctl session tokens in the OS keychain.
package keychain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// ErrNotFound is returned when a key doesn't exist.
var ErrNotFound = errors.New("key not found in keychain")

const (
	ServiceName = "sessionkeeper"

	KeyAccessToken  = "access-token"
	KeyRefreshToken = "refresh-token"
	KeyUsername     = "username"
)

type Keychain interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Memory is an in-process keychain for tests and --no-keychain runs.
type Memory struct {
	mu    sync.RWMutex
	store map[string]string
}

func NewMemory() *Memory {
	return &Memory{store: make(map[string]string)}
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.store[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// System uses the OS keychain. Entries are namespaced by service so that
// several servers can be used from one machine.
type System struct {
	service string
}

// NewSystem returns a keychain whose entries live under
// "sessionkeeper/<profile>"; an empty profile uses ServiceName alone.
func NewSystem(profile string) *System {
	service := ServiceName
	if profile != "" {
		service = ServiceName + "/" + profile
	}
	return &System{service: service}
}

func (s *System) Set(key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("failed to store in keychain: %w", err)
	}
	return nil
}

func (s *System) Get(key string) (string, error) {
	value, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve from keychain: %w", err)
	}
	return value, nil
}

// Delete treats a missing entry as already deleted.
func (s *System) Delete(key string) error {
	if err := keyring.Delete(s.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete from keychain: %w", err)
	}
	return nil
}

// Tokens is the stored session of the signed-in user.
type Tokens struct {
	Username     string
	AccessToken  string
	RefreshToken string
}

// LoadTokens reads the stored session. ErrNotFound means nobody is signed
// in.
func LoadTokens(kc Keychain) (Tokens, error) {
	var t Tokens
	var err error
	if t.AccessToken, err = kc.Get(KeyAccessToken); err != nil {
		return Tokens{}, err
	}
	if t.RefreshToken, err = kc.Get(KeyRefreshToken); err != nil {
		return Tokens{}, err
	}
	t.Username, err = kc.Get(KeyUsername)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Tokens{}, err
	}
	return t, nil
}

// SaveTokens stores t. An empty Username keeps the stored one.
func SaveTokens(kc Keychain, t Tokens) error {
	if err := kc.Set(KeyAccessToken, t.AccessToken); err != nil {
		return err
	}
	if err := kc.Set(KeyRefreshToken, t.RefreshToken); err != nil {
		return err
	}
	if t.Username != "" {
		return kc.Set(KeyUsername, t.Username)
	}
	return nil
}

func ClearTokens(kc Keychain) error {
	return errors.Join(
		kc.Delete(KeyAccessToken),
		kc.Delete(KeyRefreshToken),
		kc.Delete(KeyUsername),
	)
}
