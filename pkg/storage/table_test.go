package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string
	Count int
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTableInsertGetUpdateDelete(t *testing.T) {
	db := openTestDB(t)
	table, err := NewTable[widget](db, "widgets")
	require.NoError(t, err)

	key := EncodeUint64Key(1)
	require.NoError(t, table.Insert(key, widget{Name: "gear", Count: 1}))

	got, ok, err := table.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "gear", got.Name)

	require.NoError(t, table.Update(key, widget{Name: "gear", Count: 2}))
	got, ok, err = table.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, got.Count)

	require.NoError(t, table.Delete(key))
	_, ok, err = table.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTableTryInsertRejectsDuplicate(t *testing.T) {
	db := openTestDB(t)
	table, err := NewTable[widget](db, "widgets")
	require.NoError(t, err)

	key := EncodeUint64Key(7)
	require.NoError(t, table.TryInsert(key, widget{Name: "bolt"}))
	err = table.TryInsert(key, widget{Name: "bolt-again"})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestTableFilterAndCount(t *testing.T) {
	db := openTestDB(t)
	table, err := NewTable[widget](db, "widgets")
	require.NoError(t, err)

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, table.Insert(EncodeUint64Key(i), widget{Name: "w", Count: int(i)}))
	}

	count, err := table.Count()
	require.NoError(t, err)
	require.Equal(t, 5, count)

	big, err := table.Filter(func(w widget) bool { return w.Count >= 4 })
	require.NoError(t, err)
	require.Len(t, big, 2)
}

func TestEncodeUint64KeyPreservesOrder(t *testing.T) {
	a := EncodeUint64Key(2)
	b := EncodeUint64Key(10)
	require.Less(t, string(a), string(b))
}
