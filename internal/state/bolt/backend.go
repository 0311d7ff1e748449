// Package bolt provides a bbolt-backed session backend: sessions survive
// process restarts without requiring an external database. One bucket per
// session id, one key per entry.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tjfontaine/relay/internal/core/ports"
)

// Backend stores session entries in a bbolt database file.
type Backend struct {
	db *bbolt.DB
}

var _ ports.SessionBackend = (*Backend)(nil)

// New opens (or creates) the database at path.
func New(path string) (*Backend, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	var out []byte
	found := false
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionID))
		if bucket == nil {
			return nil
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return nil
		}
		out = make([]byte, len(v))
		copy(out, v)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

func (b *Backend) Set(ctx context.Context, sessionID, key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
}

func (b *Backend) Delete(ctx context.Context, sessionID, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionID))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

func (b *Backend) Clear(ctx context.Context, sessionID string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket([]byte(sessionID))
	})
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil
	}
	return err
}

func (b *Backend) Close() error {
	return b.db.Close()
}
