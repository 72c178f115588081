package keystore

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketSigning = []byte("signing")
	keySealedBlob = []byte("sealed_keypair")
)

// Store is a single-bucket bbolt-backed home for the sealed signing-key
// blob, the minimal slice of warren's pkg/storage.BoltStore this system
// actually needs — one bucket, one key, no entity zoo.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSigning)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("keystore: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSealed returns the stored sealed blob, or ok=false if none exists
// yet (first run).
func (s *Store) LoadSealed() (blob []byte, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSigning).Get(keySealedBlob)
		if data == nil {
			return nil
		}
		blob = make([]byte, len(data))
		copy(blob, data)
		ok = true
		return nil
	})
	return blob, ok, err
}

// SaveSealed persists blob, overwriting whatever was stored before.
func (s *Store) SaveSealed(blob []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSigning).Put(keySealedBlob, blob)
	})
}
