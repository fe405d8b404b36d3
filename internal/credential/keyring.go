package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "ticketdesk"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/ticketdesk/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("ticketdesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Store reads the session token from a keyring entry. The notification
// and ticket code only ever call Token; SetToken and Clear belong to the
// login/logout flow.
type Store struct {
	ring keyring.Keyring
	key  string
}

// Open opens the system keyring and binds it to the given entry key.
func Open(key string) (*Store, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return New(ring, key), nil
}

// New binds an already opened keyring to the given entry key.
func New(ring keyring.Keyring, key string) *Store {
	return &Store{ring: ring, key: key}
}

// Token returns the stored session token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	item, err := s.ring.Get(s.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", s.key, err)
	}
	return string(item.Data), nil
}

// SetToken stores the session token.
func (s *Store) SetToken(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   s.key,
		Data:  []byte(token),
		Label: "ticketdesk session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", s.key, err)
	}
	return nil
}

// Clear removes the stored session token. Clearing an absent token is
// not an error.
func (s *Store) Clear() error {
	err := s.ring.Remove(s.key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", s.key, err)
	}
	return nil
}

// Static is a fixed token, used when the token comes from a flag or the
// environment instead of the keyring.
type Static string

// Token returns the fixed token.
func (s Static) Token(context.Context) (string, error) {
	return string(s), nil
}
