package events

import "github.com/ssargent/caerevents/pkg/codec"

// PacketHeader is the part of a packet header the record operations read
// and write. Capacity and overflow are fixed for the lifetime of a packet.
type PacketHeader interface {
	EventCapacity() int32
	EventNumber() int32
	SetEventNumber(n int32)
	EventValid() int32
	SetEventValid(n int32)
	EventTSOverflow() int32
}

// Header is the in-memory packet header owned by a SpecialEventPacket.
type Header struct {
	eventType       int16
	eventSource     int16
	eventSize       int32
	eventTSOffset   int32
	eventTSOverflow int32
	eventCapacity   int32
	eventNumber     int32
	eventValid      int32
}

var _ PacketHeader = (*Header)(nil)

func newHeader(w codec.PacketHeader) *Header {
	return &Header{
		eventType:       w.EventType,
		eventSource:     w.EventSource,
		eventSize:       w.EventSize,
		eventTSOffset:   w.EventTSOffset,
		eventTSOverflow: w.EventTSOverflow,
		eventCapacity:   w.EventCapacity,
		eventNumber:     w.EventNumber,
		eventValid:      w.EventValid,
	}
}

// EventType identifies the record kind stored in the packet.
func (h *Header) EventType() int16 { return h.eventType }

// EventSource is the ID of the device that produced the packet.
func (h *Header) EventSource() int16 { return h.eventSource }

// EventSize is the size of one record in bytes.
func (h *Header) EventSize() int32 { return h.eventSize }

// EventTSOffset is the byte offset of the timestamp inside a record.
func (h *Header) EventTSOffset() int32 { return h.eventTSOffset }

// EventTSOverflow is the number of timestamp wraps before the packet.
func (h *Header) EventTSOverflow() int32 { return h.eventTSOverflow }

// EventCapacity is the number of record slots.
func (h *Header) EventCapacity() int32 { return h.eventCapacity }

// EventNumber counts the records ever committed valid.
func (h *Header) EventNumber() int32 { return h.eventNumber }

// SetEventNumber stores the committed record count.
func (h *Header) SetEventNumber(n int32) { h.eventNumber = n }

// EventValid counts the records currently valid.
func (h *Header) EventValid() int32 { return h.eventValid }

// SetEventValid stores the valid record count.
func (h *Header) SetEventValid(n int32) { h.eventValid = n }

// Wire returns the header in its encodable form.
func (h *Header) Wire() codec.PacketHeader {
	return codec.PacketHeader{
		EventType:       h.eventType,
		EventSource:     h.eventSource,
		EventSize:       h.eventSize,
		EventTSOffset:   h.eventTSOffset,
		EventTSOverflow: h.eventTSOverflow,
		EventCapacity:   h.eventCapacity,
		EventNumber:     h.eventNumber,
		EventValid:      h.eventValid,
	}
}
