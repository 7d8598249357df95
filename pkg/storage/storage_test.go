package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *PebbleStore {
	t.Helper()
	s, err := NewPebbleStore(filepath.Join(t.TempDir(), "activities"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPebbleStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	t.Run("put and get", func(t *testing.T) {
		data := []byte{0x0e, 0x20, 0x54, 0x08}
		id, err := s.Put(ctx, data)
		require.NoError(t, err)
		assert.NotEqual(t, ksuid.Nil, id)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, data, got)

		got[0] = 0xFF
		again, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, byte(0x0e), again[0])
	})

	t.Run("replace", func(t *testing.T) {
		id, err := s.Put(ctx, []byte("first"))
		require.NoError(t, err)
		require.NoError(t, s.Replace(ctx, id, []byte("second")))

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("missing ids", func(t *testing.T) {
		missing := ksuid.New()
		_, err := s.Get(ctx, missing)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Replace(ctx, missing, []byte("x")), ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, missing), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		id, err := s.Put(ctx, []byte("gone"))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, id))
		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPebbleStoreList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	var ids []ksuid.KSUID
	for _, data := range [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")} {
		id, err := s.Put(ctx, data)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	entries, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	sizes := map[ksuid.KSUID]int{}
	for i, e := range entries {
		sizes[e.ID] = e.Size
		assert.Equal(t, e.ID.Time(), e.Created)
		if i > 0 {
			assert.LessOrEqual(t, ksuid.Compare(entries[i-1].ID, e.ID), 0)
		}
	}
	for i, id := range ids {
		assert.Equal(t, i+1, sizes[id])
	}
}

func TestPebbleStoreClosed(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Put(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.List(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPebbleStoreContext(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("activity0"), prefixEnd([]byte("activity/")))
	assert.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xFF}))
	assert.Nil(t, prefixEnd([]byte{0xFF}))
}
