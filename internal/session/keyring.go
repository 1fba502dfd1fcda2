package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/throwmail/internal/model"
)

const serviceName = "throwmail"

// DefaultKeyringConfig returns the keyring configuration used by the
// application: native secret stores first, an encrypted file last.
func DefaultKeyringConfig() keyring.Config {
	return keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(model.ConfigDir(), "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("throwmail-file-key"),
		KeychainTrustApplication: true,
	}
}

// KeyringStore keeps the account record in the system keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

var _ Store = (*KeyringStore)(nil)

// NewKeyringStore opens the keyring described by cfg.
func NewKeyringStore(cfg keyring.Config) (*KeyringStore, error) {
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

// NewKeyringStoreWith wraps an already opened keyring, such as
// keyring.NewArrayKeyring in tests.
func NewKeyringStoreWith(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Load implements Store.
func (s *KeyringStore) Load(ctx context.Context) (*model.Account, error) {
	item, err := s.ring.Get(AccountKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential %q: %w", AccountKey, err)
	}
	return decodeAccount(item.Data)
}

// Save implements Store.
func (s *KeyringStore) Save(ctx context.Context, acct model.Account) error {
	data, err := encodeAccount(acct)
	if err != nil {
		return err
	}

	err = s.ring.Set(keyring.Item{
		Key:         AccountKey,
		Data:        data,
		Label:       "throwmail account",
		Description: acct.Address,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", AccountKey, err)
	}
	return nil
}

// Clear implements Store.
func (s *KeyringStore) Clear(ctx context.Context) error {
	err := s.ring.Remove(AccountKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting credential %q: %w", AccountKey, err)
	}
	return nil
}
