// Package session persists the single active mailbox account across
// restarts. The record lives under one well-known key; its absence means
// no account is active.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/throwmail/internal/model"
)

// AccountKey is the storage key of the persisted account record.
const AccountKey = "throwmail-account"

// ErrNotFound is returned by Load when no account is persisted.
var ErrNotFound = errors.New("no persisted account")

// Store is a single-slot durable store for the active account.
type Store interface {
	// Load returns the persisted account or ErrNotFound.
	Load(ctx context.Context) (*model.Account, error)

	// Save replaces the persisted account.
	Save(ctx context.Context, acct model.Account) error

	// Clear removes the persisted account. Clearing an empty store is
	// not an error.
	Clear(ctx context.Context) error
}

// Open returns the store backend selected by cfg.
func Open(cfg model.SessionConfig) (Store, func() error, error) {
	switch cfg.Store {
	case model.StoreSQLite:
		s, err := NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case model.StoreKeyring, "":
		s, err := NewKeyringStore(DefaultKeyringConfig())
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

func encodeAccount(acct model.Account) ([]byte, error) {
	data, err := json.Marshal(acct)
	if err != nil {
		return nil, fmt.Errorf("encoding account: %w", err)
	}
	return data, nil
}

func decodeAccount(data []byte) (*model.Account, error) {
	var acct model.Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("decoding persisted account: %w", err)
	}
	if acct.Address == "" || acct.Token == "" {
		return nil, fmt.Errorf("decoding persisted account: missing address or token")
	}
	return &acct, nil
}
