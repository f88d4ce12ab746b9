package ble

import (
	"encoding/binary"
	"fmt"
)

type EventKind uint8

const (
	EventKindOther EventKind = iota
	EventKindManufacturerData
)

func (k EventKind) String() string {
	switch k {
	case EventKindManufacturerData:
		return "ManufacturerData"
	default:
		return "Other"
	}
}

// Event is a single advertisement seen by an adapter.
type Event struct {
	Adapter int
	Kind    EventKind
	Addr    string
	RSSI    int

	// ManufacturerData maps the company identifier to the data following it.
	ManufacturerData map[uint16][]byte
}

func (e Event) String() string {
	return fmt.Sprintf("event[adapter=hci%d, kind=%v, addr=%v, rssi=%d]", e.Adapter, e.Kind, e.Addr, e.RSSI)
}

// EventFromAdvertisement splits the company identifier (little-endian, first two bytes)
// off the manufacturer data of a.
func EventFromAdvertisement(adapter int, a Advertisement) Event {
	ev := Event{
		Adapter: adapter,
		Kind:    EventKindOther,
		RSSI:    a.RSSI(),
	}

	if addr := a.Addr(); addr != nil {
		ev.Addr = addr.String()
	}

	md := a.ManufacturerData()

	if len(md) < 2 {
		return ev
	}

	payload := make([]byte, len(md)-2)
	copy(payload, md[2:])

	ev.Kind = EventKindManufacturerData
	ev.ManufacturerData = map[uint16][]byte{
		binary.LittleEndian.Uint16(md): payload,
	}

	return ev
}
