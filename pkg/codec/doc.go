// Package codec provides the bit-exact wire layout of special events and of
// the packet header that frames them.
//
// # Record Format
//
// A special event is 8 bytes:
//
//	[Data(4)][Timestamp(4)]
//
// Fields:
//   - Data: 32-bit unsigned integer (little-endian) packing three values:
//     bit 0 is the valid mark, bits 1-7 the event type (0-127) and bits
//     8-31 a 24-bit payload.
//   - Timestamp: 32-bit signed integer (little-endian). Only 0..2^31-1 is
//     legal; bit 31 must stay clear so that consumers without unsigned
//     integers can read it.
//
// The Data word, bit by bit:
//
//	 31                        8 7           1   0
//	+---------------------------+-------------+---+
//	|        payload (24)       |  type (7)   | V |
//	+---------------------------+-------------+---+
//
// # Packet Format
//
// A packet is a 28-byte header immediately followed by EventCapacity
// records, without padding:
//
//	[EventType(2)][EventSource(2)][EventSize(4)][EventTSOffset(4)]
//	[EventTSOverflow(4)][EventCapacity(4)][EventNumber(4)][EventValid(4)]
//	[Record 0][Record 1]...[Record EventCapacity-1]
//
// # 64-bit Timestamps
//
// The 31-bit timestamp wraps. Producers emit a TimestampWrap event and
// consumers count them; the absolute time is (overflow << 31) | timestamp,
// see Timestamp64.
//
// # Setters
//
// OrType and OrPayload combine bits into the Data word without clearing the
// target range first. They give correct results only when applied once to
// a zeroed slot. Use ClearFields before rewriting a slot.
//
// # Usage
//
//	codec := codec.NewSpecialEventCodec()
//
//	encoded, err := codec.Encode(codec.Record{Type: 1, Timestamp: 1000})
//	if err != nil {
//	    return err
//	}
//
//	record, err := codec.Decode(encoded)
//	if err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// SpecialEventCodec instances are safe for concurrent use. The field
// functions mutate the slice they are given and need external
// synchronization when that memory is shared.
package codec
