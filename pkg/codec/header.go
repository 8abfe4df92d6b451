package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the encoded size of a packet header.
const HeaderSize = 28

// SpecialEventPacketType identifies special event packets in EventType.
const SpecialEventPacketType int16 = 0

// ErrShortHeader means the slice holds fewer than HeaderSize bytes.
var ErrShortHeader = errors.New("buffer too short for packet header")

// PacketHeader is the fixed header in front of every event packet.
type PacketHeader struct {
	EventType       int16 // Kind of record stored in the packet
	EventSource     int16 // ID of the producing device
	EventSize       int32 // Size of one record in bytes
	EventTSOffset   int32 // Offset of the timestamp inside a record
	EventTSOverflow int32 // Timestamp wraps before this packet
	EventCapacity   int32 // Number of record slots
	EventNumber     int32 // Records ever committed valid
	EventValid      int32 // Records currently valid
}

// EncodeHeader writes h into the first HeaderSize bytes of dst.
func EncodeHeader(dst []byte, h PacketHeader) error {
	if len(dst) < HeaderSize {
		return fmt.Errorf("%w: %d < %d", ErrShortHeader, len(dst), HeaderSize)
	}

	binary.LittleEndian.PutUint16(dst[0:], uint16(h.EventType))
	binary.LittleEndian.PutUint16(dst[2:], uint16(h.EventSource))
	binary.LittleEndian.PutUint32(dst[4:], uint32(h.EventSize))
	binary.LittleEndian.PutUint32(dst[8:], uint32(h.EventTSOffset))
	binary.LittleEndian.PutUint32(dst[12:], uint32(h.EventTSOverflow))
	binary.LittleEndian.PutUint32(dst[16:], uint32(h.EventCapacity))
	binary.LittleEndian.PutUint32(dst[20:], uint32(h.EventNumber))
	binary.LittleEndian.PutUint32(dst[24:], uint32(h.EventValid))

	return nil
}

// DecodeHeader reads a header from the first HeaderSize bytes of src.
func DecodeHeader(src []byte) (PacketHeader, error) {
	if len(src) < HeaderSize {
		return PacketHeader{}, fmt.Errorf("%w: %d < %d", ErrShortHeader, len(src), HeaderSize)
	}

	return PacketHeader{
		EventType:       int16(binary.LittleEndian.Uint16(src[0:2])),
		EventSource:     int16(binary.LittleEndian.Uint16(src[2:4])),
		EventSize:       int32(binary.LittleEndian.Uint32(src[4:8])),
		EventTSOffset:   int32(binary.LittleEndian.Uint32(src[8:12])),
		EventTSOverflow: int32(binary.LittleEndian.Uint32(src[12:16])),
		EventCapacity:   int32(binary.LittleEndian.Uint32(src[16:20])),
		EventNumber:     int32(binary.LittleEndian.Uint32(src[20:24])),
		EventValid:      int32(binary.LittleEndian.Uint32(src[24:28])),
	}, nil
}

// PacketSize returns the encoded size of the packet h describes.
func (h PacketHeader) PacketSize() int {
	return HeaderSize + int(h.EventCapacity)*int(h.EventSize)
}
