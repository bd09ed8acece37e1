package input

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

// decodeKeys maps raw terminal bytes to events: digit keys press the lane id
// they show ('0' is id 0), 'q', Escape and Ctrl+C quit. Everything else is ignored.
func decodeKeys(b []byte) []Event {
	var events []Event
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
			events = append(events, Event{Lane: int(c - '0')})
		case c == 'q' || c == 'Q' || c == keyEscape || c == keyCtrlC:
			events = append(events, Event{Quit: true})
		}
	}
	return events
}
