package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/haejoon/godex/pkg/core/events"
)

func init() {
	// Concrete event types travel behind the events.Event interface.
	gob.Register(events.Transfer{})
	gob.Register(events.Approval{})
	gob.Register(events.Deposit{})
	gob.Register(events.Withdraw{})
	gob.Register(events.Order{})
	gob.Register(events.Cancel{})
	gob.Register(events.Trade{})
}

func encodeEvent(e events.Event) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEvent(b []byte) (events.Event, error) {
	var e events.Event
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&e); err != nil {
		return nil, err
	}
	return e, nil
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

func seqOfKey(k []byte) uint64 {
	if len(k) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(k)
}
