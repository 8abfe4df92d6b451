package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/caerevents/pkg/codec"
	"github.com/ssargent/caerevents/pkg/diag"
)

type logged struct {
	level     diag.Level
	component string
	message   string
}

func recordingSink(out *[]logged) diag.Sink {
	return diag.Func(func(level diag.Level, component, message string) {
		*out = append(*out, logged{level, component, message})
	})
}

func newPacket(t *testing.T, capacity int32, opts ...Option) *SpecialEventPacket {
	t.Helper()
	p, err := NewSpecialEventPacket(capacity, 1, 0, opts...)
	require.NoError(t, err)
	return p
}

func TestNewSpecialEventPacket(t *testing.T) {
	p, err := NewSpecialEventPacket(4, 7, 3)
	require.NoError(t, err)

	h := p.Header()
	assert.Equal(t, codec.SpecialEventPacketType, h.EventType())
	assert.Equal(t, int16(7), h.EventSource())
	assert.Equal(t, int32(8), h.EventSize())
	assert.Equal(t, int32(4), h.EventTSOffset())
	assert.Equal(t, int32(3), h.EventTSOverflow())
	assert.Equal(t, int32(4), h.EventCapacity())
	assert.Equal(t, int32(0), h.EventNumber())
	assert.Equal(t, int32(0), h.EventValid())
	assert.Equal(t, int32(4), p.Capacity())
	assert.Equal(t, codec.HeaderSize+32, p.Size())
}

func TestNewSpecialEventPacket_NegativeCapacity(t *testing.T) {
	p, err := NewSpecialEventPacket(-1, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
	assert.Nil(t, p)
}

func TestEvent_Bounds(t *testing.T) {
	for _, capacity := range []int32{0, 1, 2, 4, 17} {
		var logs []logged
		p := newPacket(t, capacity, WithDiagnostics(recordingSink(&logs)))

		for n := int32(0); n < capacity; n++ {
			ev, err := p.Event(n)
			require.NoError(t, err, "capacity %d index %d", capacity, n)
			assert.False(t, ev.IsValid(), "fresh slot %d must be invalid", n)
			assert.Equal(t, codec.Record{}, ev.Record())
		}

		for _, n := range []int32{-1, capacity, capacity + 1, -1 << 31, 1<<31 - 1} {
			ev, err := p.Event(n)
			assert.ErrorIs(t, err, ErrIndexOutOfRange, "capacity %d index %d", capacity, n)
			assert.Nil(t, ev)
		}
		assert.Len(t, logs, 5)
	}
}

func TestEvent_OutOfRangeDiagnostic(t *testing.T) {
	var logs []logged
	p := newPacket(t, 4, WithDiagnostics(recordingSink(&logs)))

	_, err := p.Event(4)
	require.Error(t, err)

	require.Len(t, logs, 1)
	assert.Equal(t, diag.Critical, logs[0].level)
	assert.Equal(t, Component, logs[0].component)
	assert.Contains(t, logs[0].message, "offset 4")
	assert.Contains(t, logs[0].message, "is 4")
}

func TestEvent_SlotsAreIndependent(t *testing.T) {
	p := newPacket(t, 3)

	ev1, err := p.Event(1)
	require.NoError(t, err)
	ev1.SetType(ExternalInputPulse)
	ev1.SetData(0xABCDEF)
	require.NoError(t, ev1.SetTimestamp(99))

	ev0, err := p.Event(0)
	require.NoError(t, err)
	ev2, err := p.Event(2)
	require.NoError(t, err)
	assert.Equal(t, codec.Record{}, ev0.Record())
	assert.Equal(t, codec.Record{}, ev2.Record())

	again, err := p.Event(1)
	require.NoError(t, err)
	assert.Equal(t, codec.Record{Type: 4, Payload: 0xABCDEF, Timestamp: 99}, again.Record())
}

func TestValidate(t *testing.T) {
	var logs []logged
	p := newPacket(t, 4, WithDiagnostics(recordingSink(&logs)))
	ev, err := p.Event(0)
	require.NoError(t, err)

	require.NoError(t, p.Validate(ev))
	assert.True(t, ev.IsValid())
	assert.Equal(t, int32(1), p.Header().EventNumber())
	assert.Equal(t, int32(1), p.Header().EventValid())
	assert.Empty(t, logs)

	err = p.Validate(ev)
	assert.ErrorIs(t, err, ErrAlreadyValid)
	assert.True(t, ev.IsValid())
	assert.Equal(t, int32(1), p.Header().EventNumber())
	assert.Equal(t, int32(1), p.Header().EventValid())
	require.Len(t, logs, 1)
	assert.Equal(t, diag.Critical, logs[0].level)
}

func TestInvalidate(t *testing.T) {
	var logs []logged
	p := newPacket(t, 4, WithDiagnostics(recordingSink(&logs)))
	ev, err := p.Event(2)
	require.NoError(t, err)
	require.NoError(t, p.Validate(ev))

	require.NoError(t, p.Invalidate(ev))
	assert.False(t, ev.IsValid())
	assert.Equal(t, int32(0), p.Header().EventValid())
	assert.Equal(t, int32(1), p.Header().EventNumber())
	assert.Empty(t, logs)

	err = p.Invalidate(ev)
	assert.ErrorIs(t, err, ErrAlreadyInvalid)
	assert.False(t, ev.IsValid())
	assert.Equal(t, int32(0), p.Header().EventValid())
	assert.Equal(t, int32(1), p.Header().EventNumber())
	require.Len(t, logs, 1)
	assert.Equal(t, diag.Critical, logs[0].level)
}

func TestInvalidate_FreshSlot(t *testing.T) {
	p := newPacket(t, 1)
	ev, err := p.Event(0)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Invalidate(ev), ErrAlreadyInvalid)
	assert.Equal(t, int32(0), p.Header().EventNumber())
	assert.Equal(t, int32(0), p.Header().EventValid())
}

func TestValidity_CountersStayOrdered(t *testing.T) {
	p := newPacket(t, 8)
	h := p.Header()

	check := func() {
		t.Helper()
		assert.GreaterOrEqual(t, h.EventValid(), int32(0))
		assert.LessOrEqual(t, h.EventValid(), h.EventNumber())
		assert.LessOrEqual(t, h.EventNumber(), h.EventCapacity())
	}

	for n := int32(0); n < 8; n++ {
		ev, err := p.Event(n)
		require.NoError(t, err)
		require.NoError(t, p.Validate(ev))
		check()
	}
	for n := int32(0); n < 8; n += 2 {
		ev, err := p.Event(n)
		require.NoError(t, err)
		require.NoError(t, p.Invalidate(ev))
		check()
	}

	assert.Equal(t, int32(8), h.EventNumber())
	assert.Equal(t, int32(4), h.EventValid())
}

func TestValidate_ExternalHeader(t *testing.T) {
	h := &countingHeader{capacity: 2}
	p := newPacket(t, 2)
	ev, err := p.Event(1)
	require.NoError(t, err)

	require.NoError(t, ev.Validate(h))
	require.NoError(t, ev.Invalidate(h))

	assert.Equal(t, int32(1), h.number)
	assert.Equal(t, int32(0), h.valid)
	// The packet's own header was not involved.
	assert.Equal(t, int32(0), p.Header().EventNumber())
}

type countingHeader struct {
	capacity, number, valid, overflow int32
}

func (h *countingHeader) EventCapacity() int32   { return h.capacity }
func (h *countingHeader) EventNumber() int32     { return h.number }
func (h *countingHeader) SetEventNumber(n int32) { h.number = n }
func (h *countingHeader) EventValid() int32      { return h.valid }
func (h *countingHeader) SetEventValid(n int32)  { h.valid = n }
func (h *countingHeader) EventTSOverflow() int32 { return h.overflow }

func TestTimestamp64(t *testing.T) {
	testCases := []struct {
		name     string
		overflow int32
		ts       int32
		want     int64
	}{
		{"no overflow", 0, 1000, 1000},
		{"single wrap", 1, 0, 1 << 31},
		{"single wrap plus ticks", 1, 1000, 1<<31 | 1000},
		{"many wraps", 123456, 1<<31 - 1, 123456<<31 | (1<<31 - 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewSpecialEventPacket(1, 0, tc.overflow)
			require.NoError(t, err)
			ev, err := p.Event(0)
			require.NoError(t, err)
			require.NoError(t, ev.SetTimestamp(tc.ts))

			assert.Equal(t, tc.want, p.Timestamp64(ev))
			assert.Equal(t, tc.want, ev.Timestamp64(tc.overflow))
			assert.Equal(t, int64(tc.overflow)<<31|int64(ev.Timestamp()), p.Timestamp64(ev))
		})
	}
}

// Capacity 4, slot 0 is a timestamp reset at t=1000, committed and then
// retracted.
func TestScenario_TimestampResetLifecycle(t *testing.T) {
	p := newPacket(t, 4)

	ev, err := p.Event(0)
	require.NoError(t, err)
	ev.SetType(TimestampReset)
	ev.SetData(0)
	require.NoError(t, ev.SetTimestamp(1000))
	require.NoError(t, p.Validate(ev))

	assert.Equal(t, int32(1), p.Header().EventNumber())
	assert.Equal(t, int32(1), p.Header().EventValid())
	assert.Equal(t, int64(1000), ev.Timestamp64(0))
	assert.Equal(t, TimestampReset, ev.Type())

	require.NoError(t, p.Invalidate(ev))
	assert.Equal(t, int32(0), p.Header().EventValid())
	assert.Equal(t, int32(1), p.Header().EventNumber())
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	p, err := NewSpecialEventPacket(3, 2, 5)
	require.NoError(t, err)

	write := func(n int32, typ SpecialEventType, data uint32, ts int32, valid bool) {
		ev, err := p.Event(n)
		require.NoError(t, err)
		ev.SetType(typ)
		ev.SetData(data)
		require.NoError(t, ev.SetTimestamp(ts))
		if valid {
			require.NoError(t, p.Validate(ev))
		}
	}
	write(0, TimestampWrap, 0, 0, true)
	write(1, ExternalInputRisingEdge, 0x123456, 77, true)
	write(2, 100, 1, 1<<31-1, false)

	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, codec.HeaderSize+3*codec.SpecialEventSize)

	got, err := UnmarshalSpecialEventPacket(b)
	require.NoError(t, err)
	assert.Equal(t, p.Header(), got.Header())

	for n := int32(0); n < 3; n++ {
		want, err := p.Event(n)
		require.NoError(t, err)
		have, err := got.Event(n)
		require.NoError(t, err)
		assert.Equal(t, want.Record(), have.Record(), "slot %d", n)
	}

	// The decoded packet owns its memory.
	b[codec.HeaderSize] = 0xFF
	ev, err := got.Event(0)
	require.NoError(t, err)
	assert.Equal(t, TimestampWrap, ev.Type())
}

func TestMarshal_WireLayout(t *testing.T) {
	p := newPacket(t, 1)
	ev, err := p.Event(0)
	require.NoError(t, err)
	ev.SetType(TimestampReset)
	require.NoError(t, ev.SetTimestamp(1000))
	require.NoError(t, p.Validate(ev))

	b, err := p.MarshalBinary()
	require.NoError(t, err)

	h, err := codec.DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, int32(1), h.EventNumber)
	assert.Equal(t, int32(1), h.EventValid)
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00, 0xE8, 0x03, 0x00, 0x00}, b[codec.HeaderSize:])
}

func TestUnmarshal_Malformed(t *testing.T) {
	valid := func() []byte {
		p, err := NewSpecialEventPacket(2, 0, 0)
		require.NoError(t, err)
		b, err := p.MarshalBinary()
		require.NoError(t, err)
		return b
	}
	mutate := func(f func(h *codec.PacketHeader)) []byte {
		b := valid()
		h, err := codec.DecodeHeader(b)
		require.NoError(t, err)
		f(&h)
		require.NoError(t, codec.EncodeHeader(b, h))
		return b
	}
	record := func(n int, f func(rec []byte)) []byte {
		b := valid()
		off := codec.HeaderSize + n*codec.SpecialEventSize
		f(b[off : off+codec.SpecialEventSize])
		return b
	}

	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", make([]byte, codec.HeaderSize-1)},
		{"truncated records", valid()[:codec.HeaderSize+8]},
		{"trailing bytes", append(valid(), 0)},
		{"wrong event type", mutate(func(h *codec.PacketHeader) { h.EventType = 1 })},
		{"wrong event size", mutate(func(h *codec.PacketHeader) { h.EventSize = 16 })},
		{"wrong ts offset", mutate(func(h *codec.PacketHeader) { h.EventTSOffset = 0 })},
		{"negative capacity", mutate(func(h *codec.PacketHeader) { h.EventCapacity = -1 })},
		{"valid above number", mutate(func(h *codec.PacketHeader) { h.EventValid = 1 })},
		{"number above capacity", mutate(func(h *codec.PacketHeader) { h.EventNumber, h.EventValid = 3, 0 })},
		{"negative valid", mutate(func(h *codec.PacketHeader) { h.EventValid = -1 })},
		{"valid mark without count", record(1, codec.SetValid)},
		{"count without valid mark", mutate(func(h *codec.PacketHeader) { h.EventNumber, h.EventValid = 1, 1 })},
		{"negative record timestamp", record(0, func(rec []byte) { codec.PutTimestamp(rec, -1) })},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := UnmarshalSpecialEventPacket(tc.data)
			assert.ErrorIs(t, err, ErrMalformedPacket)
			assert.Nil(t, p)
		})
	}
}

func TestUnmarshal_CountersMatchRecords(t *testing.T) {
	p := newPacket(t, 3)
	for _, n := range []int32{0, 2} {
		ev, err := p.Event(n)
		require.NoError(t, err)
		require.NoError(t, p.Validate(ev))
	}
	ev, err := p.Event(0)
	require.NoError(t, err)
	require.NoError(t, p.Invalidate(ev))

	b, err := p.MarshalBinary()
	require.NoError(t, err)

	got, err := UnmarshalSpecialEventPacket(b)
	require.NoError(t, err)

	// Every valid slot of a decoded packet can be invalidated without
	// driving EventValid below zero.
	for n := int32(0); n < got.Capacity(); n++ {
		ev, err := got.Event(n)
		require.NoError(t, err)
		if ev.IsValid() {
			require.NoError(t, got.Invalidate(ev))
		}
	}
	assert.Equal(t, int32(0), got.Header().EventValid())
	assert.Equal(t, int32(2), got.Header().EventNumber())
}

func TestUnmarshal_EmptyPacket(t *testing.T) {
	p := newPacket(t, 0)
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, b, codec.HeaderSize)

	got, err := UnmarshalSpecialEventPacket(b)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.Capacity())
}

func TestUnmarshal_KeepsDiagnostics(t *testing.T) {
	var logs []logged
	b, err := newPacket(t, 1).MarshalBinary()
	require.NoError(t, err)

	p, err := UnmarshalSpecialEventPacket(b, WithDiagnostics(recordingSink(&logs)))
	require.NoError(t, err)

	_, err = p.Event(1)
	require.Error(t, err)
	assert.Len(t, logs, 1)
}
