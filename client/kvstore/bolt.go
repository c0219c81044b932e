package kvstore

import (
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var clientBucket = []byte("client")

// BoltStore is a file-backed Store; values survive restarts.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening client store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(clientBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating client bucket")
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(key string) (string, bool, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(clientBucket).Get([]byte(key)); v != nil {
			value = append(value, v...)
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrap(err, "reading client store")
	}
	if value == nil {
		return "", false, nil
	}
	return string(value), true, nil
}

func (s *BoltStore) Set(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(clientBucket).Put([]byte(key), []byte(value))
	})
	return errors.Wrap(err, "writing client store")
}

func (s *BoltStore) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(clientBucket).Delete([]byte(key))
	})
	return errors.Wrap(err, "deleting from client store")
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
