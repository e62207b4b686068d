package storage

import "go.etcd.io/bbolt"

var sequenceBucket = []byte("_sequences")

// Sequences hands out auto-incrementing uint64 ids, one monotonic counter
// per name, backed by a dedicated bucket so every table with an
// auto-assigned primary key (BuildingID, ItemInstanceID, LogID, ...)
// shares one allocator instead of each table reinventing one.
type Sequences struct {
	db *DB
}

// NewSequences opens the sequence-counter bucket.
func NewSequences(db *DB) (*Sequences, error) {
	err := db.bolt.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sequenceBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Sequences{db: db}, nil
}

// Bind rebinds the sequence allocator to txDB, so ids handed out during a
// reducer body commit or roll back with the rest of that reducer's
// writes instead of being consumed even when the reducer later fails.
func (s *Sequences) Bind(txDB *DB) *Sequences {
	return &Sequences{db: txDB}
}

// Next returns the next id for name, starting at 1.
func (s *Sequences) Next(name string) (uint64, error) {
	var id uint64
	err := s.db.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sequenceBucket).Bucket([]byte(name))
		if b == nil {
			var err error
			b, err = tx.Bucket(sequenceBucket).CreateBucket([]byte(name))
			if err != nil {
				return err
			}
		}
		var err error
		id, err = b.NextSequence()
		return err
	})
	return id, err
}
