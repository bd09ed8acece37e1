package input

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeys(t *testing.T) {
	events := decodeKeys([]byte("1x4\r9q0"))
	assert.Equal(t, []Event{{Lane: 1}, {Lane: 4}, {Lane: 9}, {Quit: true}, {Lane: 0}}, events)

	var ids []int
	for _, e := range decodeKeys([]byte("0123456789")) {
		ids = append(ids, e.Lane)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids)

	assert.Equal(t, []Event{{Quit: true}}, decodeKeys([]byte{keyCtrlC}))
	assert.Equal(t, []Event{{Quit: true}}, decodeKeys([]byte{keyEscape}))
	assert.Empty(t, decodeKeys(nil))
}

func jsBytes(value int16, typ, number uint8) []byte {
	b := make([]byte, jsEventSize)
	binary.LittleEndian.PutUint32(b, 1234)
	binary.LittleEndian.PutUint16(b[4:], uint16(value))
	b[6] = typ
	b[7] = number
	return b
}

func TestDecodeJoystick(t *testing.T) {
	var stream []byte
	// init burst, press, release, axis, press, press beyond the lanes
	stream = append(stream, jsBytes(1, jsEventButton|jsEventInit, 0)...)
	stream = append(stream, jsBytes(1, jsEventButton, 0)...)
	stream = append(stream, jsBytes(0, jsEventButton, 0)...)
	stream = append(stream, jsBytes(-32767, 0x02, 1)...)
	stream = append(stream, jsBytes(1, jsEventButton, 3)...)
	stream = append(stream, jsBytes(1, jsEventButton, 4)...)
	// torn trailing event
	stream = append(stream, 0x01, 0x02)

	events := decodeJoystick(stream, 4, 1)
	assert.Equal(t, []Event{{Lane: 1}, {Lane: 4}}, events)

	events = decodeJoystick(stream, 4, 0)
	assert.Equal(t, []Event{{Lane: 0}, {Lane: 3}}, events)
}

func TestParseJSEvent(t *testing.T) {
	ev := parseJSEvent(jsBytes(-5, jsEventButton, 7))
	assert.Equal(t, jsEvent{Time: 1234, Value: -5, Type: jsEventButton, Number: 7}, ev)
}

type fakeSource struct {
	events [][]Event
	err    error
	closed bool
}

func (f *fakeSource) Poll() ([]Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.events) == 0 {
		return nil, nil
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func TestMultiSkipsUnavailable(t *testing.T) {
	m := NewMulti()
	keyboard := &fakeSource{events: [][]Event{{{Lane: 1}}, {{Lane: 2}}}}
	m.Add("keyboard", keyboard, nil)
	m.Add("joystick", nil, ErrInputSourceUnavailable)
	require.Equal(t, 1, m.Len())

	ev, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, []Event{{Lane: 1}}, ev)

	require.NoError(t, m.Close())
	assert.True(t, keyboard.closed)
}

func TestMultiDropsFailingSource(t *testing.T) {
	m := NewMulti()
	broken := &fakeSource{err: errors.New("unplugged")}
	ok := &fakeSource{events: [][]Event{{{Lane: 3}}}}
	m.Add("joystick", broken, nil)
	m.Add("keyboard", ok, nil)

	ev, err := m.Poll()
	require.NoError(t, err)
	assert.Equal(t, []Event{{Lane: 3}}, ev)
	assert.Equal(t, 1, m.Len())
	assert.True(t, broken.closed)
}

func TestOpenJoystickMissingDevice(t *testing.T) {
	_, err := OpenJoystick(t.TempDir()+"/js9", 4, 1)
	assert.ErrorIs(t, err, ErrInputSourceUnavailable)
}
