package api

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/caerevents/pkg/events"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string // Empty disables the X-API-Key check
	// MaxPacketBytes caps the size of an uploaded packet. Zero means
	// DefaultMaxPacketBytes.
	MaxPacketBytes int64
}

// DefaultMaxPacketBytes allows a packet of a little over a million records.
const DefaultMaxPacketBytes = 8 << 20

// PacketStore defines the archive operations the server needs
type PacketStore interface {
	Put(p *events.SpecialEventPacket) (ksuid.KSUID, error)
	Get(id ksuid.KSUID) (*events.SpecialEventPacket, error)
	GetRaw(id ksuid.KSUID) ([]byte, error)
	Delete(id ksuid.KSUID) error
	List() ([]ksuid.KSUID, error)
	ListBySource(source int16) ([]ksuid.KSUID, error)
}

// HeaderResponse is the JSON form of a packet header
type HeaderResponse struct {
	EventType       int16 `json:"event_type"`
	EventSource     int16 `json:"event_source"`
	EventSize       int32 `json:"event_size"`
	EventTSOffset   int32 `json:"event_ts_offset"`
	EventTSOverflow int32 `json:"event_ts_overflow"`
	EventCapacity   int32 `json:"event_capacity"`
	EventNumber     int32 `json:"event_number"`
	EventValid      int32 `json:"event_valid"`
}

// EventResponse is the JSON form of one record slot
type EventResponse struct {
	Index       int32  `json:"index"`
	Valid       bool   `json:"valid"`
	Type        uint8  `json:"type"`
	TypeName    string `json:"type_name"`
	Data        uint32 `json:"data"`
	Timestamp   int32  `json:"timestamp"`
	Timestamp64 int64  `json:"timestamp64"`
}

// PacketResponse is the JSON form of a stored packet
type PacketResponse struct {
	ID     string          `json:"id"`
	Header HeaderResponse  `json:"header"`
	Events []EventResponse `json:"events"`
}

// PutResponse is returned after a packet is archived
type PutResponse struct {
	ID          string `json:"id"`
	EventNumber int32  `json:"event_number"`
	EventValid  int32  `json:"event_valid"`
}
