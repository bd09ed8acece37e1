//go:build linux

package input

import (
	"errors"
	"fmt"
	"syscall"
)

// Joystick reads button presses from a Linux joystick device. Button n
// reports lane id base+n.
type Joystick struct {
	fd      int
	buttons int
	base    int
	buf     []byte
	partial []byte
}

func OpenJoystick(path string, buttons, base int) (*Joystick, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputSourceUnavailable, path, err)
	}
	return &Joystick{
		fd:      fd,
		buttons: buttons,
		base:    base,
		buf:     make([]byte, 64*jsEventSize),
	}, nil
}

func (j *Joystick) Poll() ([]Event, error) {
	var events []Event
	for {
		n, err := syscall.Read(j.fd, j.buf)
		if errors.Is(err, syscall.EAGAIN) {
			return events, nil
		}
		if err != nil {
			return events, fmt.Errorf("joystick: %w", err)
		}
		if n == 0 {
			return events, fmt.Errorf("joystick: device closed")
		}

		data := append(j.partial, j.buf[:n]...)
		whole := len(data) - len(data)%jsEventSize
		events = append(events, decodeJoystick(data[:whole], j.buttons, j.base)...)
		j.partial = append(j.partial[:0], data[whole:]...)
	}
}

func (j *Joystick) Close() error {
	return syscall.Close(j.fd)
}
