package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

var (
	ErrNotFound = errors.New("storage: activity not found")
	ErrClosed   = errors.New("storage: store is closed")
)

// Store keeps raw FIT files by activity id.
type Store interface {
	Put(ctx context.Context, data []byte) (ksuid.KSUID, error)
	Get(ctx context.Context, id ksuid.KSUID) ([]byte, error)
	Replace(ctx context.Context, id ksuid.KSUID, data []byte) error
	Delete(ctx context.Context, id ksuid.KSUID) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Entry describes one stored activity.
type Entry struct {
	ID      ksuid.KSUID
	Size    int
	Created time.Time
}

var activityPrefix = []byte("activity/")

func activityKey(id ksuid.KSUID) []byte {
	return append(append([]byte(nil), activityPrefix...), id.Bytes()...)
}

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// PebbleStore is a Store on a pebble database. Keys are time-ordered
// KSUIDs, so List returns activities oldest first.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens or creates the database at path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) check(ctx context.Context) error {
	if s.db == nil {
		return ErrClosed
	}
	return ctx.Err()
}

// Put stores data under a new id.
func (s *PebbleStore) Put(ctx context.Context, data []byte) (ksuid.KSUID, error) {
	if err := s.check(ctx); err != nil {
		return ksuid.Nil, err
	}
	id := ksuid.New()
	if err := s.db.Set(activityKey(id), data, pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("put %s: %w", id, err)
	}
	return id, nil
}

// Get returns a copy of the bytes stored under id.
func (s *PebbleStore) Get(ctx context.Context, id ksuid.KSUID) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	value, closer, err := s.db.Get(activityKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	defer closer.Close()
	return bytes.Clone(value), nil
}

// Replace overwrites the bytes of an existing activity.
func (s *PebbleStore) Replace(ctx context.Context, id ksuid.KSUID, data []byte) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.db.Set(activityKey(id), data, pebble.Sync); err != nil {
		return fmt.Errorf("replace %s: %w", id, err)
	}
	return nil
}

// Delete removes an activity.
func (s *PebbleStore) Delete(ctx context.Context, id ksuid.KSUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.db.Delete(activityKey(id), pebble.Sync); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// List returns every stored activity, oldest first.
func (s *PebbleStore) List(ctx context.Context) ([]Entry, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: activityPrefix,
		UpperBound: prefixEnd(activityPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := ksuid.FromBytes(iter.Key()[len(activityPrefix):])
		if err != nil {
			return nil, fmt.Errorf("list: bad key %x: %w", iter.Key(), err)
		}
		entries = append(entries, Entry{ID: id, Size: len(iter.Value()), Created: id.Time()})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return entries, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *PebbleStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
