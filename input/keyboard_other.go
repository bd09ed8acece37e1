//go:build !unix

package input

import "fmt"

type Keyboard struct{}

func OpenKeyboard() (*Keyboard, error) {
	return nil, fmt.Errorf("%w: raw keyboard needs a unix terminal", ErrInputSourceUnavailable)
}

func (k *Keyboard) Poll() ([]Event, error) { return nil, nil }

func (k *Keyboard) Close() error { return nil }
