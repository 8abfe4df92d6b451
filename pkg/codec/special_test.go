package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestSpecialEventCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewSpecialEventCodec()

	testCases := []struct {
		name   string
		record Record
	}{
		{
			name:   "zero record",
			record: Record{},
		},
		{
			name:   "timestamp reset",
			record: Record{Valid: true, Type: 1, Payload: 0, Timestamp: 1000},
		},
		{
			name:   "max type",
			record: Record{Valid: false, Type: 127, Payload: 1, Timestamp: 1},
		},
		{
			name:   "max payload",
			record: Record{Valid: true, Type: 4, Payload: 1<<24 - 1, Timestamp: 42},
		},
		{
			name:   "max timestamp",
			record: Record{Valid: true, Type: 0, Payload: 0, Timestamp: 1<<31 - 1},
		},
		{
			name:   "all fields saturated",
			record: Record{Valid: true, Type: 127, Payload: 1<<24 - 1, Timestamp: 1<<31 - 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.record)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			if len(encoded) != SpecialEventSize {
				t.Fatalf("Encoded size mismatch: got %d, want %d", len(encoded), SpecialEventSize)
			}

			record, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if *record != tc.record {
				t.Errorf("Record mismatch: got %+v, want %+v", *record, tc.record)
			}
		})
	}
}

func TestSpecialEventCodec_BitLayout(t *testing.T) {
	codec := NewSpecialEventCodec()

	testCases := []struct {
		name   string
		record Record
		want   []byte
	}{
		{
			name:   "valid mark is bit 0",
			record: Record{Valid: true},
			want:   []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:   "type starts at bit 1",
			record: Record{Type: 1},
			want:   []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:   "type fills bits 1-7",
			record: Record{Type: 127},
			want:   []byte{0xFE, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:   "payload starts at bit 8",
			record: Record{Payload: 1},
			want:   []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:   "payload is little-endian",
			record: Record{Payload: 0x123456},
			want:   []byte{0x00, 0x56, 0x34, 0x12, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:   "timestamp at offset 4 little-endian",
			record: Record{Timestamp: 0x01020304},
			want:   []byte{0x00, 0x00, 0x00, 0x00, 0x04, 0x03, 0x02, 0x01},
		},
		{
			name:   "all together",
			record: Record{Valid: true, Type: 2, Payload: 0xABCDEF, Timestamp: 1000},
			want:   []byte{0x05, 0xEF, 0xCD, 0xAB, 0xE8, 0x03, 0x00, 0x00},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.record)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(encoded, tc.want) {
				t.Errorf("Layout mismatch: got % x, want % x", encoded, tc.want)
			}
		})
	}
}

func TestSpecialEventCodec_EncodeRejectsOutOfRange(t *testing.T) {
	codec := NewSpecialEventCodec()

	testCases := []struct {
		name   string
		record Record
		want   error
	}{
		{"type too large", Record{Type: 128}, ErrFieldRange},
		{"payload too large", Record{Payload: 1 << 24}, ErrFieldRange},
		{"negative timestamp", Record{Timestamp: -1}, ErrNegativeTimestamp},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Encode(tc.record)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("short destination", func(t *testing.T) {
		if err := codec.EncodeTo(make([]byte, 7), Record{}); !errors.Is(err, ErrShortBuffer) {
			t.Errorf("Expected ErrShortBuffer, got %v", err)
		}
	})
}

func TestSpecialEventCodec_MalformedData(t *testing.T) {
	codec := NewSpecialEventCodec()

	testCases := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "empty data",
			data: []byte{},
			want: ErrShortBuffer,
		},
		{
			name: "one byte short",
			data: make([]byte, 7),
			want: ErrShortBuffer,
		},
		{
			name: "timestamp bit 31 set",
			data: func() []byte {
				buf := make([]byte, 8)
				binary.LittleEndian.PutUint32(buf[4:8], 0x80000000)
				return buf
			}(),
			want: ErrNegativeTimestamp,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.data)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFieldAccessors_TypeRoundTrip(t *testing.T) {
	for typ := 0; typ <= TypeMask; typ++ {
		rec := make([]byte, SpecialEventSize)
		OrType(rec, uint8(typ))
		if got := Type(rec); got != uint8(typ) {
			t.Fatalf("Type mismatch: got %d, want %d", got, typ)
		}
		if Valid(rec) {
			t.Fatalf("OrType(%d) touched the valid mark", typ)
		}
		if Payload(rec) != 0 {
			t.Fatalf("OrType(%d) touched the payload", typ)
		}
	}
}

func TestFieldAccessors_TypeMasksInput(t *testing.T) {
	rec := make([]byte, SpecialEventSize)
	OrType(rec, 0xFF)

	if got := Type(rec); got != 0x7F {
		t.Errorf("Type mismatch: got %d, want %d", got, 0x7F)
	}
	if Valid(rec) {
		t.Error("Masked type leaked into the valid mark")
	}
}

func TestFieldAccessors_PayloadRoundTrip(t *testing.T) {
	payloads := []uint32{0, 1, 2, 0xFF, 0x100, 0xABCDEF, 0x7FFFFF, 0x800000, DataMask}
	for shift := 0; shift < 24; shift++ {
		payloads = append(payloads, 1<<shift)
	}

	for _, d := range payloads {
		rec := make([]byte, SpecialEventSize)
		OrPayload(rec, d)
		if got := Payload(rec); got != d {
			t.Errorf("Payload mismatch: got %#x, want %#x", got, d)
		}
		if Type(rec) != 0 || Valid(rec) {
			t.Errorf("OrPayload(%#x) touched lower bits", d)
		}
	}
}

func TestFieldAccessors_PayloadMasksInput(t *testing.T) {
	rec := make([]byte, SpecialEventSize)
	OrPayload(rec, 0xFF000001)

	if got := Payload(rec); got != 1 {
		t.Errorf("Payload mismatch: got %#x, want 1", got)
	}
}

func TestFieldAccessors_SettersCombineBits(t *testing.T) {
	rec := make([]byte, SpecialEventSize)
	OrType(rec, 0x01)
	OrType(rec, 0x02)

	// Setting twice ORs the values instead of replacing them.
	if got := Type(rec); got != 0x03 {
		t.Errorf("Type mismatch: got %d, want 3", got)
	}

	OrPayload(rec, 0x0F0000)
	OrPayload(rec, 0x0000F0)
	if got := Payload(rec); got != 0x0F00F0 {
		t.Errorf("Payload mismatch: got %#x, want 0x0F00F0", got)
	}
}

func TestFieldAccessors_ValidMark(t *testing.T) {
	rec := make([]byte, SpecialEventSize)
	OrType(rec, 5)
	OrPayload(rec, 77)

	SetValid(rec)
	if !Valid(rec) {
		t.Fatal("Expected valid mark to be set")
	}
	if Type(rec) != 5 || Payload(rec) != 77 {
		t.Error("SetValid changed other fields")
	}

	ClearValid(rec)
	if Valid(rec) {
		t.Fatal("Expected valid mark to be clear")
	}
	if Type(rec) != 5 || Payload(rec) != 77 {
		t.Error("ClearValid changed other fields")
	}
}

func TestFieldAccessors_Timestamp(t *testing.T) {
	for _, ts := range []int32{0, 1, 1000, 1<<31 - 1, -1} {
		rec := make([]byte, SpecialEventSize)
		PutTimestamp(rec, ts)
		if got := Timestamp(rec); got != ts {
			t.Errorf("Timestamp mismatch: got %d, want %d", got, ts)
		}
		if binary.LittleEndian.Uint32(rec[0:4]) != 0 {
			t.Errorf("PutTimestamp(%d) touched the data word", ts)
		}
	}
}

func TestFieldAccessors_ClearFields(t *testing.T) {
	rec := make([]byte, SpecialEventSize)
	OrType(rec, 9)
	OrPayload(rec, 1234)
	PutTimestamp(rec, 99)
	SetValid(rec)

	ClearFields(rec)

	if !Valid(rec) {
		t.Error("ClearFields dropped the valid mark")
	}
	if Type(rec) != 0 || Payload(rec) != 0 || Timestamp(rec) != 0 {
		t.Errorf("ClearFields left data behind: % x", rec)
	}

	OrType(rec, 3)
	if got := Type(rec); got != 3 {
		t.Errorf("Type after reuse: got %d, want 3", got)
	}
}

func TestPackData(t *testing.T) {
	testCases := []struct {
		name    string
		valid   bool
		typ     uint8
		payload uint32
		want    uint32
	}{
		{"empty", false, 0, 0, 0x00000000},
		{"valid only", true, 0, 0, 0x00000001},
		{"type only", false, 0x7F, 0, 0x000000FE},
		{"payload only", false, 0, DataMask, 0xFFFFFF00},
		{"everything", true, 0x7F, DataMask, 0xFFFFFFFF},
		{"masks type", false, 0x80, 0, 0x00000000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PackData(tc.valid, tc.typ, tc.payload); got != tc.want {
				t.Errorf("PackData mismatch: got %#08x, want %#08x", got, tc.want)
			}
		})
	}
}

func TestTimestamp64(t *testing.T) {
	testCases := []struct {
		name     string
		ts       int32
		overflow int32
		want     int64
	}{
		{"no overflow", 1000, 0, 1000},
		{"one overflow", 0, 1, 1 << 31},
		{"one overflow plus ticks", 5, 1, 1<<31 | 5},
		{"max local", 1<<31 - 1, 0, 1<<31 - 1},
		{"many overflows", 7, 1000, 1000<<31 | 7},
		{"max overflow", 1<<31 - 1, 1<<31 - 1, (1<<31-1)<<31 | (1<<31 - 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Timestamp64(tc.ts, tc.overflow); got != tc.want {
				t.Errorf("Timestamp64 mismatch: got %d, want %d", got, tc.want)
			}
		})
	}
}
