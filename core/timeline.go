package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"

	"notehero/models"
)

var ErrTimelineParse = errors.New("core: malformed timeline")

// TimelineParseError reports the first bad record of a timeline file.
type TimelineParseError struct {
	Line int
	Text string
	Err  error
}

func (e *TimelineParseError) Error() string {
	return fmt.Sprintf("timeline line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *TimelineParseError) Unwrap() []error {
	return []error{ErrTimelineParse, e.Err}
}

// roundTimestamp rounds to the two decimals the file format keeps.
func roundTimestamp(t float64) float64 {
	return math.Round(t*100) / 100
}

// TimelineBuilder collapses a time ordered stream of quantized frames into note onsets.
type TimelineBuilder struct {
	events []models.NoteEvent
	last   string
}

// Add feeds one frame. Frames without a note, or with the note that was
// emitted last, produce nothing and leave the memory untouched.
func (b *TimelineBuilder) Add(t float64, note Note, ok bool) bool {
	if !ok {
		return false
	}
	name := note.String()
	if name == b.last {
		return false
	}

	ts := roundTimestamp(t)
	if n := len(b.events); n > 0 && ts <= b.events[n-1].Timestamp {
		return false
	}

	b.events = append(b.events, models.NoteEvent{Timestamp: ts, Note: name})
	b.last = name
	return true
}

func (b *TimelineBuilder) Events() []models.NoteEvent {
	return b.events
}

// BuildTimeline quantizes every candidate and returns the deduplicated onsets.
func BuildTimeline(candidates iter.Seq[models.PitchCandidate], q *Quantizer) []models.NoteEvent {
	var b TimelineBuilder
	for c := range candidates {
		note, ok := q.Quantize(c.Frequency)
		b.Add(c.Time, note, ok)
	}
	return b.Events()
}

// WriteTimeline writes one "<seconds>\t<note>" record per line.
func WriteTimeline(w io.Writer, events []models.NoteEvent) error {
	bw := bufio.NewWriter(w)
	for _, e := range events {
		if _, err := fmt.Fprintf(bw, "%.2f\t%s\n", e.Timestamp, e.Note); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadTimeline parses a timeline file. Blank lines are skipped; timestamps
// must be strictly ascending and every note must parse.
func ReadTimeline(r io.Reader) ([]models.NoteEvent, error) {
	var events []models.NoteEvent
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		fail := func(err error) ([]models.NoteEvent, error) {
			return nil, &TimelineParseError{Line: line, Text: text, Err: err}
		}
		if len(fields) != 2 {
			return fail(fmt.Errorf("expected 2 fields, got %d", len(fields)))
		}

		ts, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || math.IsNaN(ts) || math.IsInf(ts, 0) || ts < 0 {
			return fail(fmt.Errorf("invalid timestamp %q", fields[0]))
		}
		note, err := ParseNote(fields[1])
		if err != nil {
			return fail(err)
		}
		if n := len(events); n > 0 && ts <= events[n-1].Timestamp {
			return fail(fmt.Errorf("timestamp %.2f does not follow %.2f", ts, events[n-1].Timestamp))
		}

		events = append(events, models.NoteEvent{Timestamp: ts, Note: note.String()})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
