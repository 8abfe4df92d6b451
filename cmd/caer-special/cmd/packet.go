package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssargent/caerevents/pkg/codec"
	"github.com/ssargent/caerevents/pkg/events"
)

// eventSpec is one --event flag: TYPE:DATA:TIMESTAMP
type eventSpec struct {
	typ       events.SpecialEventType
	data      uint32
	timestamp int32
}

func parseEventSpec(s string) (eventSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return eventSpec{}, fmt.Errorf("event %q: want TYPE:DATA:TIMESTAMP", s)
	}

	typ, err := events.ParseSpecialEventType(parts[0])
	if err != nil {
		return eventSpec{}, fmt.Errorf("event %q: %w", s, err)
	}

	data, err := strconv.ParseUint(parts[1], 0, 32)
	if err != nil {
		return eventSpec{}, fmt.Errorf("event %q: invalid data: %w", s, err)
	}
	if data > codec.DataMask {
		return eventSpec{}, fmt.Errorf("event %q: data %d does not fit in 24 bits", s, data)
	}

	ts, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return eventSpec{}, fmt.Errorf("event %q: invalid timestamp: %w", s, err)
	}

	return eventSpec{typ: typ, data: uint32(data), timestamp: int32(ts)}, nil
}

// buildPacket fills one slot per spec, in order, and validates it. The
// slots listed in drop are invalidated afterwards.
func buildPacket(capacity int32, source int16, overflow int32, specs []eventSpec, drop []int, opts ...events.Option) (*events.SpecialEventPacket, error) {
	if int(capacity) < len(specs) {
		return nil, fmt.Errorf("%d events do not fit in a packet of capacity %d", len(specs), capacity)
	}

	packet, err := events.NewSpecialEventPacket(capacity, source, overflow, opts...)
	if err != nil {
		return nil, err
	}

	for i, spec := range specs {
		ev, err := packet.Event(int32(i))
		if err != nil {
			return nil, err
		}
		ev.SetType(spec.typ)
		ev.SetData(spec.data)
		if err := ev.SetTimestamp(spec.timestamp); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if err := packet.Validate(ev); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}

	for _, n := range drop {
		ev, err := packet.Event(int32(n))
		if err != nil {
			return nil, fmt.Errorf("drop %d: %w", n, err)
		}
		if err := packet.Invalidate(ev); err != nil {
			return nil, fmt.Errorf("drop %d: %w", n, err)
		}
	}

	return packet, nil
}

// printPacket writes a header line and one line per slot. Invalid slots
// are skipped unless all is set.
func printPacket(w io.Writer, label string, packet *events.SpecialEventPacket, all bool) {
	h := packet.Header()
	fmt.Fprintf(w, "%s source=%d capacity=%d number=%d valid=%d overflow=%d\n",
		label, h.EventSource(), h.EventCapacity(), h.EventNumber(), h.EventValid(), h.EventTSOverflow())

	for n := int32(0); n < packet.Capacity(); n++ {
		ev, err := packet.Event(n)
		if err != nil {
			return
		}
		if !ev.IsValid() && !all {
			continue
		}

		state := "valid"
		if !ev.IsValid() {
			state = "invalid"
		}
		fmt.Fprintf(w, "  [%d] %-7s %-28s data=%-8d ts=%-10d ts64=%d\n",
			n, state, ev.Type(), ev.Data(), ev.Timestamp(), packet.Timestamp64(ev))
	}
}
