// Package input turns keyboards and joysticks into lane presses.
package input

import (
	"errors"
	"log/slog"

	"notehero/utils"
)

// ErrInputSourceUnavailable means a device could not be opened. Games carry
// on with the remaining sources.
var ErrInputSourceUnavailable = errors.New("input: source unavailable")

// Event is one press. Key '0'..'9' reports that digit as lane id; joystick
// buttons are numbered from the configured lane base. Quit events carry no lane.
type Event struct {
	Lane int
	Quit bool
}

// Source is polled once per tick and must never block.
type Source interface {
	Poll() ([]Event, error)
	Close() error
}

// Multi polls several sources in order. A source that fails is dropped.
type Multi struct {
	sources []Source
	names   []string
	logger  *slog.Logger
}

func NewMulti() *Multi {
	return &Multi{logger: utils.GetLogger()}
}

// Add registers src unless err reports it as unavailable. The error is
// logged either way and never returned.
func (m *Multi) Add(name string, src Source, err error) {
	if err != nil {
		m.logger.Warn("input source unavailable", slog.String("source", name), slog.Any("error", err))
		return
	}
	m.sources = append(m.sources, src)
	m.names = append(m.names, name)
}

func (m *Multi) Len() int {
	return len(m.sources)
}

func (m *Multi) Poll() ([]Event, error) {
	var events []Event
	for i := 0; i < len(m.sources); {
		ev, err := m.sources[i].Poll()
		if err != nil {
			m.logger.Warn("dropping input source", slog.String("source", m.names[i]), slog.Any("error", err))
			_ = m.sources[i].Close()
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			m.names = append(m.names[:i], m.names[i+1:]...)
			continue
		}
		events = append(events, ev...)
		i++
	}
	return events, nil
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sources {
		errs = append(errs, s.Close())
	}
	m.sources, m.names = nil, nil
	return errors.Join(errs...)
}
