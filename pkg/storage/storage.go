// Package storage archives encoded special event packets in pebble, keyed
// by time-ordered KSUIDs.
//
// Key layout:
//
//	'p' + id(20)             -> packet wire form
//	's' + source(2, BE) + id -> empty, secondary index by EventSource
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/caerevents/pkg/codec"
	"github.com/ssargent/caerevents/pkg/events"
)

const (
	packetPrefix = 'p'
	sourcePrefix = 's'
)

// ErrNotFound is returned for ids the archive does not hold.
var ErrNotFound = errors.New("packet not found")

// Option configures a PacketStore.
type Option func(*PacketStore)

// WithPacketOptions sets the options applied to packets decoded by Get.
func WithPacketOptions(opts ...events.Option) Option {
	return func(s *PacketStore) {
		s.packetOpts = opts
	}
}

// WithSync makes every write fsync before returning.
func WithSync(sync bool) Option {
	return func(s *PacketStore) {
		if sync {
			s.writeOpts = pebble.Sync
		} else {
			s.writeOpts = pebble.NoSync
		}
	}
}

// PacketStore is a pebble-backed packet archive. It is safe for
// concurrent use.
type PacketStore struct {
	db         *pebble.DB
	writeOpts  *pebble.WriteOptions
	packetOpts []events.Option
	closeOnce  sync.Once
	closeErr   error
}

// Open opens (or creates) the archive in dir.
func Open(dir string, opts ...Option) (*PacketStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open packet store: %w", err)
	}

	s := &PacketStore{db: db, writeOpts: pebble.NoSync}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put stores p under a new id and indexes it by source.
func (s *PacketStore) Put(p *events.SpecialEventPacket) (ksuid.KSUID, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return ksuid.Nil, fmt.Errorf("failed to encode packet: %w", err)
	}

	id := ksuid.New()
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(packetKey(id), data, nil); err != nil {
		return ksuid.Nil, err
	}
	if err := batch.Set(sourceKey(p.Header().EventSource(), id), nil, nil); err != nil {
		return ksuid.Nil, err
	}
	if err := batch.Commit(s.writeOpts); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to write packet %s: %w", id, err)
	}

	return id, nil
}

// GetRaw returns the encoded packet stored under id.
func (s *PacketStore) GetRaw(id ksuid.KSUID) ([]byte, error) {
	data, closer, err := s.db.Get(packetKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read packet %s: %w", id, err)
	}
	defer closer.Close()

	// data is only valid until closer.Close.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Get returns the packet stored under id.
func (s *PacketStore) Get(id ksuid.KSUID) (*events.SpecialEventPacket, error) {
	data, err := s.GetRaw(id)
	if err != nil {
		return nil, err
	}

	p, err := events.UnmarshalSpecialEventPacket(data, s.packetOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode packet %s: %w", id, err)
	}
	return p, nil
}

// Delete removes the packet stored under id and its index entry.
func (s *PacketStore) Delete(id ksuid.KSUID) error {
	data, err := s.GetRaw(id)
	if err != nil {
		return err
	}
	h, err := codec.DecodeHeader(data)
	if err != nil {
		return fmt.Errorf("failed to decode packet %s: %w", id, err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete(packetKey(id), nil); err != nil {
		return err
	}
	if err := batch.Delete(sourceKey(h.EventSource, id), nil); err != nil {
		return err
	}
	return batch.Commit(s.writeOpts)
}

// List returns every stored id, oldest first.
func (s *PacketStore) List() ([]ksuid.KSUID, error) {
	return s.scan([]byte{packetPrefix})
}

// ListBySource returns the ids of the packets produced by source, oldest
// first.
func (s *PacketStore) ListBySource(source int16) ([]ksuid.KSUID, error) {
	prefix := make([]byte, 3)
	prefix[0] = sourcePrefix
	binary.BigEndian.PutUint16(prefix[1:], uint16(source))
	return s.scan(prefix)
}

// scan collects the ids at the end of every key under prefix.
func (s *PacketStore) scan(prefix []byte) ([]ksuid.KSUID, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		id, err := ksuid.FromBytes(key[len(prefix):])
		if err != nil {
			iter.Close()
			return nil, fmt.Errorf("corrupt key %x: %w", key, err)
		}
		ids = append(ids, id)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database. Further calls are no-ops.
func (s *PacketStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func packetKey(id ksuid.KSUID) []byte {
	return append([]byte{packetPrefix}, id.Bytes()...)
}

func sourceKey(source int16, id ksuid.KSUID) []byte {
	key := make([]byte, 3, 3+len(id))
	key[0] = sourcePrefix
	binary.BigEndian.PutUint16(key[1:], uint16(source))
	return append(key, id.Bytes()...)
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
