package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleBackend stores values in an embedded Pebble database on local disk
type PebbleBackend struct {
	db *pebble.DB
}

func NewPebbleBackend(dir string) (*PebbleBackend, error) {
	opts := &pebble.Options{
		// The whole order list is one small value; a modest memtable is plenty.
		MemTableSize: 8 << 20,
	}
	db, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleBackend{db: db}, nil
}

func (p *PebbleBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

// Put writes with fsync: a submitted order must survive a power cut.
func (p *PebbleBackend) Put(_ context.Context, key string, value []byte) error {
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

func (p *PebbleBackend) Close() error { return p.db.Close() }
