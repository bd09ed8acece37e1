package input

import "encoding/binary"

// jsEventSize is sizeof(struct js_event) from linux/joystick.h.
const jsEventSize = 8

const (
	jsEventButton = 0x01
	jsEventInit   = 0x80
)

type jsEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func parseJSEvent(b []byte) jsEvent {
	return jsEvent{
		Time:   binary.LittleEndian.Uint32(b[0:4]),
		Value:  int16(binary.LittleEndian.Uint16(b[4:6])),
		Type:   b[6],
		Number: b[7],
	}
}

// decodeJoystick maps button presses 0..buttons-1 to lane ids base..base+buttons-1.
// Releases, axes and the synthetic init burst are ignored.
func decodeJoystick(b []byte, buttons, base int) []Event {
	var events []Event
	for len(b) >= jsEventSize {
		ev := parseJSEvent(b[:jsEventSize])
		b = b[jsEventSize:]
		if ev.Type&jsEventInit != 0 || ev.Type&jsEventButton == 0 {
			continue
		}
		if ev.Value == 1 && int(ev.Number) < buttons {
			events = append(events, Event{Lane: int(ev.Number) + base})
		}
	}
	return events
}
