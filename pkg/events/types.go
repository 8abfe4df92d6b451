package events

import (
	"fmt"
	"strconv"
)

// SpecialEventType is the 7-bit type of a special event. Values 6-127 are
// free for producers to define.
type SpecialEventType uint8

const (
	// TimestampWrap marks a 31-bit timestamp wrap. Consumers increment
	// their overflow counter when they see one.
	TimestampWrap SpecialEventType = 0
	// TimestampReset marks a device timestamp reset.
	TimestampReset SpecialEventType = 1
	// ExternalInputRisingEdge is a rising edge on the external input.
	ExternalInputRisingEdge SpecialEventType = 2
	// ExternalInputFallingEdge is a falling edge on the external input.
	ExternalInputFallingEdge SpecialEventType = 3
	// ExternalInputPulse is a pulse on the external input.
	ExternalInputPulse SpecialEventType = 4
	// DVSRowOnly is a row address that had no column addresses after it.
	DVSRowOnly SpecialEventType = 5

	// MaxSpecialEventType is the largest encodable type.
	MaxSpecialEventType SpecialEventType = 127
)

var typeNames = map[SpecialEventType]string{
	TimestampWrap:            "TIMESTAMP_WRAP",
	TimestampReset:           "TIMESTAMP_RESET",
	ExternalInputRisingEdge:  "EXTERNAL_INPUT_RISING_EDGE",
	ExternalInputFallingEdge: "EXTERNAL_INPUT_FALLING_EDGE",
	ExternalInputPulse:       "EXTERNAL_INPUT_PULSE",
	DVSRowOnly:               "DVS_ROW_ONLY",
}

func (t SpecialEventType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SPECIAL_EVENT_TYPE_%d", uint8(t))
}

// ParseSpecialEventType accepts a known name or a decimal value 0-127.
func ParseSpecialEventType(s string) (SpecialEventType, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown special event type %q", s)
	}
	if v < 0 || v > int(MaxSpecialEventType) {
		return 0, fmt.Errorf("special event type %d out of range 0-%d", v, MaxSpecialEventType)
	}
	return SpecialEventType(v), nil
}
