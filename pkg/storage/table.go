package storage

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// Table is a typed view over a single bbolt bucket. Every table in §3
// (and its SPEC_FULL supplements) is opened as one Table[RowType], the
// same one-bucket-per-entity shape as the teacher's BoltStore but
// generalized with generics instead of one hand-written method set per
// entity kind.
type Table[T any] struct {
	db     *DB
	bucket []byte
}

// NewTable opens (creating if absent) the bucket backing a table.
func NewTable[T any](db *DB, name string) (*Table[T], error) {
	bucket := []byte(name)
	err := db.bolt.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", name, err)
	}
	return &Table[T]{db: db, bucket: bucket}, nil
}

// Bind rebuilds a Table over a DB whose bucket was already created by an
// earlier NewTable call against the same file — used to re-point every
// table in a World at a per-reducer bound transaction (see DB.WithTx)
// without repeating bucket-creation on every call.
func Bind[T any](db *DB, name string) *Table[T] {
	return &Table[T]{db: db, bucket: []byte(name)}
}

// Insert writes row at key, overwriting any existing value.
func (t *Table[T]) Insert(key []byte, row T) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	return t.db.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(t.bucket).Put(key, data)
	})
}

// ErrAlreadyExists is returned by TryInsert when key is already present.
var ErrAlreadyExists = fmt.Errorf("key already exists")

// TryInsert writes row at key only if the key is absent.
func (t *Table[T]) TryInsert(key []byte, row T) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	return t.db.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(t.bucket)
		if b.Get(key) != nil {
			return ErrAlreadyExists
		}
		return b.Put(key, data)
	})
}

// Get reads the row at key. ok is false if the key is absent.
func (t *Table[T]) Get(key []byte) (row T, ok bool, err error) {
	err = t.db.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(t.bucket).Get(key)
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &row)
	})
	return row, ok, err
}

// Update is an alias of Insert — bbolt has no separate update verb, but
// the name documents reducer intent at call sites that already checked
// existence.
func (t *Table[T]) Update(key []byte, row T) error {
	return t.Insert(key, row)
}

// Delete removes the row at key. It is not an error if the key is absent.
func (t *Table[T]) Delete(key []byte) error {
	return t.db.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(t.bucket).Delete(key)
	})
}

// ForEach visits every row in key order. Returning an error from fn stops
// the scan and surfaces that error.
func (t *Table[T]) ForEach(fn func(key []byte, row T) error) error {
	return t.db.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(t.bucket).ForEach(func(k, v []byte) error {
			var row T
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("unmarshal row %s: %w", k, err)
			}
			return fn(k, row)
		})
	})
}

// Filter returns every row for which pred returns true.
func (t *Table[T]) Filter(pred func(T) bool) ([]T, error) {
	var out []T
	err := t.ForEach(func(_ []byte, row T) error {
		if pred(row) {
			out = append(out, row)
		}
		return nil
	})
	return out, err
}

// All returns every row in the table.
func (t *Table[T]) All() ([]T, error) {
	return t.Filter(func(T) bool { return true })
}

// Count returns the number of rows in the table.
func (t *Table[T]) Count() (int, error) {
	n := 0
	err := t.ForEach(func([]byte, T) error { n++; return nil })
	return n, err
}
