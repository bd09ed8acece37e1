//go:build unix

package input

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// Keyboard reads stdin in raw mode. Close must be called to give the
// terminal back; it is safe to call more than once.
type Keyboard struct {
	fd       int
	oldState *term.State
	keys     chan byte
	stopCh   chan struct{}
	done     chan struct{}
	stopped  sync.Once
}

func OpenKeyboard() (*Keyboard, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: stdin is not a terminal", ErrInputSourceUnavailable)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: raw mode: %w", ErrInputSourceUnavailable, err)
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		_ = term.Restore(fd, oldState)
		return nil, fmt.Errorf("%w: nonblocking stdin: %w", ErrInputSourceUnavailable, err)
	}

	k := &Keyboard{
		fd:       fd,
		oldState: oldState,
		keys:     make(chan byte, 64),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go k.read()
	return k, nil
}

func (k *Keyboard) read() {
	defer close(k.done)
	buf := make([]byte, 16)
	for {
		select {
		case <-k.stopCh:
			return
		default:
		}

		n, err := syscall.Read(k.fd, buf)
		for _, b := range buf[:max(n, 0)] {
			select {
			case k.keys <- b:
			default: // drop keys nobody polls for
			}
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

// Poll drains the keys read since the last call.
func (k *Keyboard) Poll() ([]Event, error) {
	var raw []byte
	for {
		select {
		case b := <-k.keys:
			raw = append(raw, b)
		default:
			return decodeKeys(raw), nil
		}
	}
}

func (k *Keyboard) Close() error {
	k.stopped.Do(func() {
		close(k.stopCh)
		<-k.done
		_ = syscall.SetNonblock(k.fd, false)
		_ = term.Restore(k.fd, k.oldState)
	})
	return nil
}
