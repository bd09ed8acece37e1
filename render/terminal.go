// Package render draws game snapshots on an ANSI terminal.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"notehero/game"
)

const (
	ansiClear = "\x1b[H\x1b[2J"
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	// raw mode does not translate \n
	newline = "\r\n"
)

var laneColors = []string{
	"\x1b[32m", // green
	"\x1b[31m", // red
	"\x1b[33m", // yellow
	"\x1b[34m", // blue
	"\x1b[35m", // magenta
	"\x1b[36m", // cyan
	"\x1b[37m", // white
}

// Terminal renders the note highway with upcoming notes falling towards the hit line.
type Terminal struct {
	w        io.Writer
	rows     int
	horizon  float64
	lanes    game.LaneMap
	laneCell int
	buf      bytes.Buffer
}

func NewTerminal(w io.Writer, lanes game.LaneMap, horizon float64) *Terminal {
	return &Terminal{w: w, rows: 16, horizon: horizon, lanes: lanes, laneCell: 6}
}

func (t *Terminal) Render(s game.Snapshot) error {
	t.buf.Reset()
	b := &t.buf
	b.WriteString(ansiClear)

	fmt.Fprintf(b, "%sscore %d%s  combo x%d  misses %d (streak %d)  notes %d/%d  %6.2fs%s",
		ansiBold, s.Score, ansiReset, s.Combo, s.Misses, s.ConsecutiveMisses, s.Total-s.Pending, s.Total, s.Time, newline)
	b.WriteString(newline)

	grid := t.grid(s)
	for _, row := range grid {
		b.WriteString(row)
		b.WriteString(newline)
	}

	// hit line and key labels
	b.WriteString(strings.Repeat("=", t.lanes.Count*t.laneCell+1))
	b.WriteString(newline)
	for lane := range t.lanes.Count {
		fmt.Fprintf(b, "|%s%s%s", laneColors[lane%len(laneColors)], center(fmt.Sprintf("[%d]", t.lanes.ID(lane)), t.laneCell-1), ansiReset)
	}
	b.WriteString("|" + newline)

	if s.Phase == game.PhaseFinished {
		b.WriteString(newline)
		b.WriteString(banner(s))
		b.WriteString(newline)
	}

	_, err := t.w.Write(b.Bytes())
	return err
}

// grid places each previewed note on the row matching its remaining time;
// the bottom row is the hit line.
func (t *Terminal) grid(s game.Snapshot) []string {
	cells := make([][]string, t.rows)
	for r := range cells {
		cells[r] = make([]string, t.lanes.Count)
	}
	for lane, notes := range s.Preview {
		if lane >= t.lanes.Count {
			continue
		}
		for _, n := range notes {
			row := t.rows - 1 - int(n.Until/t.horizon*float64(t.rows))
			if row < 0 || row >= t.rows {
				continue
			}
			cells[row][lane] = n.Note
		}
	}

	out := make([]string, t.rows)
	for r, row := range cells {
		var sb strings.Builder
		for lane, note := range row {
			sb.WriteString("|")
			if note == "" {
				sb.WriteString(strings.Repeat(" ", t.laneCell-1))
				continue
			}
			sb.WriteString(laneColors[lane%len(laneColors)])
			sb.WriteString(center(note, t.laneCell-1))
			sb.WriteString(ansiReset)
		}
		sb.WriteString("|")
		out[r] = sb.String()
	}
	return out
}

// Countdown shows n..1 one second apart before the song starts.
func (t *Terminal) Countdown(n int, sleep func(time.Duration)) error {
	for i := n; i > 0; i-- {
		if _, err := fmt.Fprintf(t.w, "%s%sstarting in %d...%s%s", ansiClear, ansiBold, i, ansiReset, newline); err != nil {
			return err
		}
		sleep(time.Second)
	}
	return nil
}

func banner(s game.Snapshot) string {
	switch s.Outcome {
	case game.OutcomeSuccess:
		return fmt.Sprintf("%sSONG COMPLETE%s  final score %d  best combo x%d", ansiBold, ansiReset, s.Score, s.MaxCombo)
	default:
		return fmt.Sprintf("%sGAME OVER%s (%s)  final score %d", ansiBold, ansiReset, s.Reason, s.Score)
	}
}

func center(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}
