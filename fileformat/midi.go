package fileformat

import (
	"fmt"
	"io"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	midiBPM      = 120.0
	midiVelocity = 100
	// lastNoteLength is used for the final note, which has no successor.
	lastNoteLength = 0.5
)

// MIDINote is a note placed on an absolute time line, in seconds.
type MIDINote struct {
	Start    float64
	Duration float64
	Key      uint8
}

// WriteMIDI writes notes as a single track Standard MIDI File on channel 0.
// Notes must be sorted by Start.
func WriteMIDI(w io.Writer, name string, notes []MIDINote) error {
	s := smf.New()
	ticks := s.TimeFormat.(smf.MetricTicks)

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(name))
	tr.Add(0, smf.MetaTempo(midiBPM))

	toTicks := func(sec float64) uint32 {
		return ticks.Ticks(midiBPM, time.Duration(sec*float64(time.Second)))
	}

	var cursor uint32
	for i, n := range notes {
		if i > 0 && n.Start < notes[i-1].Start {
			return fmt.Errorf("midi: note %d starts before its predecessor", i)
		}
		on := toTicks(n.Start)
		off := toTicks(n.Start + n.Duration)
		if on < cursor {
			on = cursor
		}
		if off <= on {
			off = on + 1
		}
		tr.Add(on-cursor, midi.NoteOn(0, n.Key, midiVelocity))
		tr.Add(off-on, midi.NoteOff(0, n.Key))
		cursor = off
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return fmt.Errorf("midi: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// LegatoDurations gives every note the time until the next onset, so the
// exported track never overlaps itself.
func LegatoDurations(starts []float64) []float64 {
	out := make([]float64, len(starts))
	for i := range starts {
		if i+1 < len(starts) {
			out[i] = starts[i+1] - starts[i]
		} else {
			out[i] = lastNoteLength
		}
	}
	return out
}
