package engagement

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// KV is the narrow key-value contract the engagement store runs on. Keeping
// it this small lets tests swap in an in-memory map and keeps the durable
// backend replaceable.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// BadgerKV is the production KV backed by an embedded Badger database.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the engagement database at path.
func OpenBadger(path string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Badger's own logging is too chatty for this store
	opts.SyncWrites = true // engagement writes are small and must survive crashes
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("engagement: open badger db: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

// Get returns the stored value and whether the key exists.
func (b *BadgerKV) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("engagement: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores the value under key.
func (b *BadgerKV) Set(key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("engagement: set %q: %w", key, err)
	}
	return nil
}

// Delete removes the key. Missing keys are not an error.
func (b *BadgerKV) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("engagement: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (b *BadgerKV) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

var _ KV = (*BadgerKV)(nil)
