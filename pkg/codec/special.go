package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Shift and mask values of the Data word. Up to 128 types with 24 bits of
// payload each are possible. Bit 0 is the valid mark.
const (
	ValidMarkShift = 0
	ValidMarkMask  = 0x00000001
	TypeShift      = 1
	TypeMask       = 0x0000007F
	DataShift      = 8
	DataMask       = 0x00FFFFFF

	// TSOverflowShift is the width of the rolling timestamp.
	TSOverflowShift = 31
)

const (
	// SpecialEventSize is the encoded size of one record.
	SpecialEventSize = 8
	// SpecialEventTSOffset is the byte offset of the timestamp in a record.
	SpecialEventTSOffset = 4
)

var (
	// ErrShortBuffer means the slice holds fewer than SpecialEventSize bytes.
	ErrShortBuffer = errors.New("buffer too short for special event")
	// ErrFieldRange means a type or payload does not fit its bit field.
	ErrFieldRange = errors.New("special event field out of range")
	// ErrNegativeTimestamp means bit 31 of the timestamp is set.
	ErrNegativeTimestamp = errors.New("special event timestamp is negative")
)

// Record is a decoded special event.
type Record struct {
	Valid     bool
	Type      uint8  // 0-127
	Payload   uint32 // 0-2^24-1
	Timestamp int32  // 0-2^31-1
}

// SpecialEventCodec handles serialization and deserialization of records
type SpecialEventCodec struct{}

// NewSpecialEventCodec creates a new special event codec instance
func NewSpecialEventCodec() *SpecialEventCodec {
	return &SpecialEventCodec{}
}

// Encode serializes a record into its 8-byte form.
func (c *SpecialEventCodec) Encode(r Record) ([]byte, error) {
	buf := make([]byte, SpecialEventSize)
	if err := c.EncodeTo(buf, r); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeTo writes r into the first 8 bytes of dst, overwriting whatever
// was there.
func (c *SpecialEventCodec) EncodeTo(dst []byte, r Record) error {
	if len(dst) < SpecialEventSize {
		return ErrShortBuffer
	}
	if r.Type > TypeMask {
		return fmt.Errorf("%w: type %d > %d", ErrFieldRange, r.Type, TypeMask)
	}
	if r.Payload > DataMask {
		return fmt.Errorf("%w: payload %d > %d", ErrFieldRange, r.Payload, DataMask)
	}
	if r.Timestamp < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTimestamp, r.Timestamp)
	}

	binary.LittleEndian.PutUint32(dst[0:4], PackData(r.Valid, r.Type, r.Payload))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(r.Timestamp))

	return nil
}

// Decode deserializes the first 8 bytes of data into a Record.
func (c *SpecialEventCodec) Decode(data []byte) (*Record, error) {
	if len(data) < SpecialEventSize {
		return nil, fmt.Errorf("%w: %d < %d", ErrShortBuffer, len(data), SpecialEventSize)
	}

	r := &Record{
		Valid:     Valid(data),
		Type:      Type(data),
		Payload:   Payload(data),
		Timestamp: Timestamp(data),
	}
	if r.Timestamp < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeTimestamp, r.Timestamp)
	}

	return r, nil
}

// PackData builds the Data word from its parts. Out of range type and
// payload values are masked.
func PackData(valid bool, typ uint8, payload uint32) uint32 {
	var word uint32
	if valid {
		word |= ValidMarkMask << ValidMarkShift
	}
	word |= (uint32(typ) & TypeMask) << TypeShift
	word |= (payload & DataMask) << DataShift
	return word
}

// The functions below operate on a single record slice of at least
// SpecialEventSize bytes and panic on shorter input, like the
// encoding/binary accessors they are built on.

func data(rec []byte) uint32 {
	return binary.LittleEndian.Uint32(rec[0:4])
}

func putData(rec []byte, word uint32) {
	binary.LittleEndian.PutUint32(rec[0:4], word)
}

// Valid reports the valid mark.
func Valid(rec []byte) bool {
	return (data(rec)>>ValidMarkShift)&ValidMarkMask != 0
}

// SetValid sets the valid mark.
func SetValid(rec []byte) {
	putData(rec, data(rec)|ValidMarkMask<<ValidMarkShift)
}

// ClearValid clears the valid mark.
func ClearValid(rec []byte) {
	putData(rec, data(rec)&^(ValidMarkMask<<ValidMarkShift))
}

// Type extracts bits 1-7.
func Type(rec []byte) uint8 {
	return uint8((data(rec) >> TypeShift) & TypeMask)
}

// OrType ORs t into bits 1-7 without clearing them first.
func OrType(rec []byte, t uint8) {
	putData(rec, data(rec)|(uint32(t)&TypeMask)<<TypeShift)
}

// Payload extracts bits 8-31.
func Payload(rec []byte) uint32 {
	return (data(rec) >> DataShift) & DataMask
}

// OrPayload ORs d into bits 8-31 without clearing them first.
func OrPayload(rec []byte, d uint32) {
	putData(rec, data(rec)|(d&DataMask)<<DataShift)
}

// Timestamp decodes the timestamp field as stored.
func Timestamp(rec []byte) int32 {
	return int32(binary.LittleEndian.Uint32(rec[SpecialEventTSOffset : SpecialEventTSOffset+4]))
}

// PutTimestamp stores ts without any range check.
func PutTimestamp(rec []byte, ts int32) {
	binary.LittleEndian.PutUint32(rec[SpecialEventTSOffset:SpecialEventTSOffset+4], uint32(ts))
}

// ClearFields zeroes type, payload and timestamp and keeps the valid mark.
func ClearFields(rec []byte) {
	putData(rec, data(rec)&(ValidMarkMask<<ValidMarkShift))
	PutTimestamp(rec, 0)
}

// Timestamp64 widens a rolling timestamp with the number of overflows seen
// so far.
func Timestamp64(ts int32, overflow int32) int64 {
	return int64(overflow)<<TSOverflowShift | int64(ts)
}
