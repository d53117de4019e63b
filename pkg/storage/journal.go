// Package storage persists the audit log. The journal is append-only:
// events are written with durable (synced) writes keyed by a big-endian
// sequence number, so iteration order is emission order and nothing is ever
// rewritten in place.
package storage

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/haejoon/godex/pkg/core/events"
)

// Journal is a pebble-backed append-only event journal. It implements
// events.Recorder; the core writes through it and never reads it on the
// hot path.
type Journal struct {
	mu  sync.Mutex
	db  *pebble.DB
	seq uint64 // last written sequence, 0 when empty
}

// OpenJournal opens (or creates) a journal at path and positions the
// sequence counter after the newest existing entry.
func OpenJournal(path string) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open journal at %s: %w", path, err)
	}

	j := &Journal{db: db}
	iter, err := db.NewIter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	if iter.Last() && iter.Valid() {
		j.seq = seqOfKey(iter.Key())
	}
	if err := iter.Close(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record durably appends one event. Implements events.Recorder. The core
// calls this under its ledger lock, so failures must not block or unwind
// ledger state; a write error is a stop-the-world condition.
func (j *Journal) Record(e events.Event) {
	if err := j.Append(e); err != nil {
		panic(fmt.Errorf("journal append: %w", err))
	}
}

// Append writes one event at the next sequence number.
func (j *Journal) Append(e events.Event) error {
	val, err := encodeEvent(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Kind(), err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.db.Set(seqKey(j.seq+1), val, pebble.Sync); err != nil {
		return err
	}
	j.seq++
	return nil
}

// Len returns the number of journaled events.
func (j *Journal) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

// Replay streams every journaled event in emission order. Stops early if fn
// returns an error.
func (j *Journal) Replay(fn func(events.Event) error) error {
	iter, err := j.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		e, err := decodeEvent(iter.Value())
		if err != nil {
			return fmt.Errorf("decode event %d: %w", seqOfKey(iter.Key()), err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}
