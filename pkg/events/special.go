package events

import (
	"github.com/ssargent/caerevents/pkg/codec"
	"github.com/ssargent/caerevents/pkg/diag"
)

// Component is the diagnostic component tag used by this package.
const Component = "Special Event"

// SpecialEvent is a view over one 8-byte record slot of a packet. Writes
// go straight to the packet's memory.
//
// SetType and SetData OR their value into the slot and assume it was
// zeroed. Call ResetFields before writing new values into a reused slot.
type SpecialEvent struct {
	raw  []byte
	diag diag.Sink
}

// IsValid reports whether the record is committed.
func (e *SpecialEvent) IsValid() bool {
	return codec.Valid(e.raw)
}

// Type returns the event type.
func (e *SpecialEvent) Type() SpecialEventType {
	return SpecialEventType(codec.Type(e.raw))
}

// SetType ORs t (masked to 7 bits) into the type field.
func (e *SpecialEvent) SetType(t SpecialEventType) {
	codec.OrType(e.raw, uint8(t))
}

// Data returns the 24-bit payload.
func (e *SpecialEvent) Data() uint32 {
	return codec.Payload(e.raw)
}

// SetData ORs d (masked to 24 bits) into the payload field.
func (e *SpecialEvent) SetData(d uint32) {
	codec.OrPayload(e.raw, d)
}

// Timestamp returns the 31-bit timestamp, in ticks since the last wrap or
// reset.
func (e *SpecialEvent) Timestamp() int32 {
	return codec.Timestamp(e.raw)
}

// SetTimestamp stores ts. Negative values would use bit 31 and are
// rejected: the field is left unchanged.
func (e *SpecialEvent) SetTimestamp(ts int32) error {
	if ts < 0 {
		e.diag.Log(diag.Critical, Component, "SetTimestamp called with negative value %d", ts)
		return ErrNegativeTimestamp
	}
	codec.PutTimestamp(e.raw, ts)
	return nil
}

// Timestamp64 widens the timestamp using overflow, the number of
// TimestampWrap events the caller has seen.
func (e *SpecialEvent) Timestamp64(overflow int32) int64 {
	return codec.Timestamp64(e.Timestamp(), overflow)
}

// Validate commits an invalid record and bumps both packet counters.
// On a record that is already valid nothing changes.
func (e *SpecialEvent) Validate(h PacketHeader) error {
	if e.IsValid() {
		e.diag.Log(diag.Critical, Component, "Validate called on already valid event")
		return ErrAlreadyValid
	}

	codec.SetValid(e.raw)

	h.SetEventNumber(h.EventNumber() + 1)
	h.SetEventValid(h.EventValid() + 1)

	return nil
}

// Invalidate retracts a valid record. EventNumber counts slots ever
// committed and is left alone; only EventValid goes down.
func (e *SpecialEvent) Invalidate(h PacketHeader) error {
	if !e.IsValid() {
		e.diag.Log(diag.Critical, Component, "Invalidate called on already invalid event")
		return ErrAlreadyInvalid
	}

	codec.ClearValid(e.raw)

	h.SetEventValid(h.EventValid() - 1)

	return nil
}

// ResetFields zeroes type, data and timestamp so the slot can be written
// again. The valid mark and the packet counters are untouched.
func (e *SpecialEvent) ResetFields() {
	codec.ClearFields(e.raw)
}

// Record returns a decoded copy of the slot.
func (e *SpecialEvent) Record() codec.Record {
	return codec.Record{
		Valid:     e.IsValid(),
		Type:      codec.Type(e.raw),
		Payload:   e.Data(),
		Timestamp: e.Timestamp(),
	}
}
