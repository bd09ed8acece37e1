package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PitchClass is one of the twelve semitones of an octave, C first.
type PitchClass int

const (
	C PitchClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// naturalLetter maps each class onto the index of its letter, C=0 .. B=6.
// Sharps share the letter they raise.
var naturalLetter = [12]int{0, 0, 1, 1, 2, 3, 3, 4, 4, 5, 5, 6}

func (p PitchClass) String() string {
	if p < C || p > B {
		return fmt.Sprintf("PitchClass(%d)", int(p))
	}
	return pitchClassNames[p]
}

// Letter returns the index of the natural note name, C=0 .. B=6.
func (p PitchClass) Letter() int {
	return naturalLetter[p]
}

const (
	a4Frequency = 440.0
	a4MIDI      = 69
)

// Note is a pitch class in a given octave, scientific pitch notation (A4 = 440 Hz).
type Note struct {
	Class  PitchClass
	Octave int
}

func (n Note) String() string {
	return n.Class.String() + strconv.Itoa(n.Octave)
}

// MIDI returns the MIDI key number, C4 = 60.
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + int(n.Class)
}

// Frequency is the equal-tempered frequency of the note.
func (n Note) Frequency() float64 {
	return a4Frequency * math.Pow(2, float64(n.MIDI()-a4MIDI)/12)
}

// ParseNote reads names such as "A4", "C#3" or "Bb2". Flats are folded onto sharps.
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}

	letters := map[byte]PitchClass{'C': C, 'D': D, 'E': E, 'F': F, 'G': G, 'A': A, 'B': B}
	class, ok := letters[s[0]]
	if !ok {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}

	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		class++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		class--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil || rest == "" || rest[0] == '+' {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}

	// B#3 is C4 and Cb4 is B3
	switch {
	case class > B:
		class, octave = C, octave+1
	case class < C:
		class, octave = B, octave-1
	}
	return Note{Class: class, Octave: octave}, nil
}

type QuantizerConfig struct {
	LowestOctave int
	Octaves      int
	// Tolerance is the largest accepted relative distance to the nearest note, exclusive.
	Tolerance float64
	// GuardRatio rejects anything below GuardRatio times the lowest note.
	GuardRatio float64
}

const DefaultGuardRatio = 0.97

// Quantizer snaps frequencies onto an ordered table of equal-tempered notes.
type Quantizer struct {
	cfg   QuantizerConfig
	notes []Note
	freqs []float64
}

func NewQuantizer(cfg QuantizerConfig) (*Quantizer, error) {
	if cfg.Octaves < 1 {
		return nil, fmt.Errorf("quantizer: octaves must be positive, got %d", cfg.Octaves)
	}
	if cfg.Tolerance <= 0 {
		return nil, fmt.Errorf("quantizer: tolerance must be positive")
	}
	if cfg.GuardRatio == 0 {
		cfg.GuardRatio = DefaultGuardRatio
	}

	q := &Quantizer{cfg: cfg}
	for o := cfg.LowestOctave; o < cfg.LowestOctave+cfg.Octaves; o++ {
		for c := C; c <= B; c++ {
			n := Note{Class: c, Octave: o}
			q.notes = append(q.notes, n)
			q.freqs = append(q.freqs, n.Frequency())
		}
	}
	return q, nil
}

// Notes returns the reference table in ascending pitch.
func (q *Quantizer) Notes() []Note {
	return q.notes
}

// Quantize returns the note nearest to freq. ok is false when freq is below
// the guard or farther from its nearest note than the tolerance allows.
func (q *Quantizer) Quantize(freq float64) (Note, bool) {
	if freq < q.freqs[0]*q.cfg.GuardRatio {
		return Note{}, false
	}

	best := 0
	bestDiff := math.Abs(freq - q.freqs[0])
	for i := 1; i < len(q.freqs); i++ {
		if d := math.Abs(freq - q.freqs[i]); d < bestDiff {
			best, bestDiff = i, d
		}
	}

	if bestDiff < q.cfg.Tolerance*q.freqs[best] {
		return q.notes[best], true
	}
	return Note{}, false
}
