// Package storage is the typed-table persistence layer: one bbolt bucket
// per table, JSON-marshaled rows, and a generic Table[T] wrapper that
// gives every table Insert/Get/Update/Delete/ForEach without writing a
// bespoke CRUD method set per entity the way the teacher's BoltStore did.
package storage

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// DB wraps a bbolt database handle. boundTx is nil on the DB returned by
// Open — every Table method on it opens (and commits) its own bbolt
// transaction. WithTx hands callers a *second*, immutable DB value with
// boundTx set, so every Table built against it shares that one
// transaction instead. The two are never the same object, so there is
// no shared mutable state to race on between a reducer's bound DB and
// any other goroutine still reading through the unbound one.
type DB struct {
	bolt    *bbolt.DB
	boundTx *bbolt.Tx
}

// Open opens (creating if absent) the bbolt file at path.
func Open(path string) (*DB, error) {
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	return &DB{bolt: bdb}, nil
}

// Close closes the underlying bbolt handle.
func (d *DB) Close() error {
	return d.bolt.Close()
}

// Bolt exposes the underlying handle for callers that need a raw
// transaction (snapshot/restore).
func (d *DB) Bolt() *bbolt.DB {
	return d.bolt
}

// WithTx begins one bbolt write transaction and invokes fn with a DB
// bound to it. Every Table[T] built against the bound DB commits its
// writes together with every other Table built against it: fn returning
// an error rolls every one of them back, fn returning nil commits them
// all. This is how pkg/manager wraps a whole reducer body in a single
// transaction per the runtime's atomicity contract — a reducer that
// writes several rows and then fails must leave none of them behind.
func (d *DB) WithTx(fn func(txDB *DB) error) error {
	tx, err := d.bolt.Begin(true)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&DB{bolt: d.bolt, boundTx: tx}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rerr)
		}
		return err
	}
	return tx.Commit()
}

// view runs fn against the bound transaction if one is active, else
// opens a fresh read-only transaction.
func (d *DB) view(fn func(*bbolt.Tx) error) error {
	if d.boundTx != nil {
		return fn(d.boundTx)
	}
	return d.bolt.View(fn)
}

// update runs fn against the bound transaction if one is active, else
// opens (and commits) a fresh read-write transaction.
func (d *DB) update(fn func(*bbolt.Tx) error) error {
	if d.boundTx != nil {
		return fn(d.boundTx)
	}
	return d.bolt.Update(fn)
}

// EncodeUint64Key zero-pads a uint64 so lexicographic bucket-cursor order
// matches numeric order.
func EncodeUint64Key(id uint64) []byte {
	return []byte(fmt.Sprintf("%020d", id))
}
