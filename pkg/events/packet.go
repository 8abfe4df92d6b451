package events

import (
	"fmt"

	"github.com/ssargent/caerevents/pkg/codec"
	"github.com/ssargent/caerevents/pkg/diag"
)

// SpecialEventPacket is a header plus a fixed number of contiguous record
// slots. It has no internal locking: hand the whole packet from stage to
// stage instead of sharing it.
type SpecialEventPacket struct {
	header *Header
	events []byte
	diag   diag.Sink
}

// Option configures a packet.
type Option func(*SpecialEventPacket)

// WithDiagnostics routes misuse reports to sink. The default discards them.
func WithDiagnostics(sink diag.Sink) Option {
	return func(p *SpecialEventPacket) {
		p.diag = diag.OrNop(sink)
	}
}

// NewSpecialEventPacket allocates a packet with capacity zeroed (invalid)
// slots. tsOverflow is the number of timestamp wraps that happened before
// the packet's first record.
func NewSpecialEventPacket(capacity int32, source int16, tsOverflow int32, opts ...Option) (*SpecialEventPacket, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	p := &SpecialEventPacket{
		header: newHeader(codec.PacketHeader{
			EventType:       codec.SpecialEventPacketType,
			EventSource:     source,
			EventSize:       codec.SpecialEventSize,
			EventTSOffset:   codec.SpecialEventTSOffset,
			EventTSOverflow: tsOverflow,
			EventCapacity:   capacity,
		}),
		events: make([]byte, int(capacity)*codec.SpecialEventSize),
		diag:   diag.Nop,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// UnmarshalSpecialEventPacket decodes a packet from its wire form. The
// packet gets its own copy of the records.
func UnmarshalSpecialEventPacket(b []byte, opts ...Option) (*SpecialEventPacket, error) {
	w, err := codec.DecodeHeader(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPacket, err)
	}
	if err := CheckHeader(w); err != nil {
		return nil, err
	}
	if len(b) != w.PacketSize() {
		return nil, fmt.Errorf("%w: %d bytes for capacity %d, want %d",
			ErrMalformedPacket, len(b), w.EventCapacity, w.PacketSize())
	}
	if err := checkRecords(w, b[codec.HeaderSize:]); err != nil {
		return nil, err
	}

	p := &SpecialEventPacket{
		header: newHeader(w),
		events: make([]byte, len(b)-codec.HeaderSize),
		diag:   diag.Nop,
	}
	copy(p.events, b[codec.HeaderSize:])
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// CheckHeader reports whether w can describe a special event packet: the
// record layout matches and 0 <= EventValid <= EventNumber <= EventCapacity.
// It does not look at the records.
func CheckHeader(w codec.PacketHeader) error {
	switch {
	case w.EventType != codec.SpecialEventPacketType:
		return fmt.Errorf("%w: event type %d", ErrMalformedPacket, w.EventType)
	case w.EventSize != codec.SpecialEventSize:
		return fmt.Errorf("%w: event size %d", ErrMalformedPacket, w.EventSize)
	case w.EventTSOffset != codec.SpecialEventTSOffset:
		return fmt.Errorf("%w: timestamp offset %d", ErrMalformedPacket, w.EventTSOffset)
	case w.EventCapacity < 0:
		return fmt.Errorf("%w: capacity %d", ErrMalformedPacket, w.EventCapacity)
	case w.EventValid < 0 || w.EventValid > w.EventNumber || w.EventNumber > w.EventCapacity:
		return fmt.Errorf("%w: counters valid=%d number=%d capacity=%d",
			ErrMalformedPacket, w.EventValid, w.EventNumber, w.EventCapacity)
	}
	return nil
}

// checkRecords requires EventValid to match the valid marks in records and
// every timestamp to be non-negative.
func checkRecords(w codec.PacketHeader, records []byte) error {
	var valid int32
	for off := 0; off+codec.SpecialEventSize <= len(records); off += codec.SpecialEventSize {
		rec := records[off : off+codec.SpecialEventSize]
		if ts := codec.Timestamp(rec); ts < 0 {
			return fmt.Errorf("%w: record %d has negative timestamp %d",
				ErrMalformedPacket, off/codec.SpecialEventSize, ts)
		}
		if codec.Valid(rec) {
			valid++
		}
	}
	if valid != w.EventValid {
		return fmt.Errorf("%w: %d records marked valid, header says %d",
			ErrMalformedPacket, valid, w.EventValid)
	}
	return nil
}

// Header returns the packet's header.
func (p *SpecialEventPacket) Header() *Header {
	return p.header
}

// Capacity returns the number of record slots.
func (p *SpecialEventPacket) Capacity() int32 {
	return p.header.EventCapacity()
}

// Event returns slot n. Any slot below the capacity is reachable, whether
// it was ever validated or not.
func (p *SpecialEventPacket) Event(n int32) (*SpecialEvent, error) {
	capacity := p.header.EventCapacity()
	if n < 0 || n >= capacity {
		p.diag.Log(diag.Critical, Component,
			"Event called with invalid event offset %d, while maximum allowed value is %d", n, capacity)
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, n, capacity)
	}

	off := int(n) * codec.SpecialEventSize
	return &SpecialEvent{
		raw:  p.events[off : off+codec.SpecialEventSize : off+codec.SpecialEventSize],
		diag: p.diag,
	}, nil
}

// Validate commits ev against this packet's header.
func (p *SpecialEventPacket) Validate(ev *SpecialEvent) error {
	return ev.Validate(p.header)
}

// Invalidate retracts ev against this packet's header.
func (p *SpecialEventPacket) Invalidate(ev *SpecialEvent) error {
	return ev.Invalidate(p.header)
}

// Timestamp64 widens ev's timestamp with the packet's overflow counter.
func (p *SpecialEventPacket) Timestamp64(ev *SpecialEvent) int64 {
	return ev.Timestamp64(p.header.EventTSOverflow())
}

// Size returns the encoded size of the packet.
func (p *SpecialEventPacket) Size() int {
	return codec.HeaderSize + len(p.events)
}

// MarshalBinary encodes the header followed by every record slot.
func (p *SpecialEventPacket) MarshalBinary() ([]byte, error) {
	buf := make([]byte, p.Size())
	if err := codec.EncodeHeader(buf, p.header.Wire()); err != nil {
		return nil, err
	}
	copy(buf[codec.HeaderSize:], p.events)
	return buf, nil
}
