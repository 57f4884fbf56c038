package repository

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const boltBucket = "documents"

// BoltKV stores documents in a single BoltDB bucket.
type BoltKV struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt initializes the BoltDB file and ensures the bucket exists.
func OpenBolt(path string) (*BoltKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltKV{db: db, bucket: []byte(boltBucket)}, nil
}

func (s *BoltKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, bolt.ErrDatabaseNotOpen
	}
	var (
		out   []byte
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
			found = true
		}
		return nil
	})
	return out, found, err
}

func (s *BoltKV) Set(_ context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

func (s *BoltKV) Remove(_ context.Context, key string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Close closes the Bolt database.
func (s *BoltKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
