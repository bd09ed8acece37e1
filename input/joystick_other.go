//go:build !linux

package input

import "fmt"

type Joystick struct{}

func OpenJoystick(path string, buttons, base int) (*Joystick, error) {
	return nil, fmt.Errorf("%w: joystick %s needs linux", ErrInputSourceUnavailable, path)
}

func (j *Joystick) Poll() ([]Event, error) { return nil, nil }

func (j *Joystick) Close() error { return nil }
