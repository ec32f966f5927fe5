// Package bolt implements the local key-value store on a single bbolt file.
package bolt

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("crm")

// Store keeps every blob in one bucket of a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path and its bucket.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(_ context.Context, key string) (value string, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid inside the transaction.
		value, ok = string(v), true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("bolt get %s: %w", key, err)
	}
	return value, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("bolt put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketName) == nil {
			return fmt.Errorf("bucket %s missing", bucketName)
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
