package store

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// BoltFileName is the name of the file the durable store writes to,
// mirroring drand's chain/boltdb.BoltFileName constant.
const BoltFileName = "frost.db"

// BoltStoreOpenPerm is the permission used when opening the database file.
const BoltStoreOpenPerm = 0o600

var kvBucket = []byte("keygen-entries")

// BoltStore is the durable embedded-B-tree backend selected by
// configuration, grounded on drand's chain/boltdb.BoltStore.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a bbolt database under dir.
func NewBoltStore(dir string) (*BoltStore, error) {
	db, err := bolt.Open(filepath.Join(dir, BoltFileName), BoltStoreOpenPerm, nil)
	if err != nil {
		return nil, errors.Wrap(err, "store: opening bolt database")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(kvBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "store: creating bucket")
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(kvBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "store: get")
	}
	return out, nil
}

// Set writes value under key durably before returning, relying on bbolt's
// fsync-on-commit default.
func (b *BoltStore) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Put([]byte(key), value)
	})
	return errors.Wrap(err, "store: set")
}

func (b *BoltStore) Del(_ context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Delete([]byte(key))
	})
	return errors.Wrap(err, "store: del")
}

func (b *BoltStore) Exists(_ context.Context, key string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(kvBucket).Get([]byte(key)) != nil
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "store: exists")
	}
	return found, nil
}

func (b *BoltStore) Close() error {
	return errors.Wrap(b.db.Close(), "store: close")
}
