package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notehero/core"
	"notehero/models"
)

type stopRecorder struct{ stops int }

func (s *stopRecorder) Stop() { s.stops++ }

func newRunning(t *testing.T, cfg Config, events ...models.NoteEvent) *Matcher {
	t.Helper()
	m, err := New(events, cfg)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	return m
}

func ev(ts float64, note string) models.NoteEvent {
	return models.NoteEvent{Timestamp: ts, Note: note}
}

func TestLaneOf(t *testing.T) {
	want := map[core.PitchClass]int{
		core.C: 0, core.CSharp: 0, core.D: 0, core.DSharp: 0,
		core.E: 1, core.F: 1, core.FSharp: 1,
		core.G: 2, core.GSharp: 2, core.A: 2, core.ASharp: 2,
		core.B: 3,
	}
	for class, lane := range want {
		assert.Equal(t, lane, LaneOf(class, 4), class.String())
	}
	for class := core.C; class <= core.B; class++ {
		assert.Equal(t, class.Letter(), LaneOf(class, 7))
		assert.Equal(t, 0, LaneOf(class, 1))
	}
}

func TestLaneMap(t *testing.T) {
	oneBased := LaneMap{Count: 4, Base: 1}
	for id, want := range map[int]bool{0: false, 1: true, 4: true, 5: false, -1: false} {
		_, ok := oneBased.Lane(id)
		assert.Equal(t, want, ok, "id %d", id)
	}
	lane, _ := oneBased.Lane(3)
	assert.Equal(t, 2, lane)
	assert.Equal(t, 3, oneBased.ID(2))

	zeroBased := LaneMap{Count: 4, Base: 0}
	lane, ok := zeroBased.Lane(0)
	assert.True(t, ok)
	assert.Equal(t, 0, lane)
}

func TestLoad(t *testing.T) {
	m, err := Load(strings.NewReader("0.50\tC4\n1.00\tE4\n1.50\tB3\n"), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, PhaseArmed, m.State().Phase)
	assert.Equal(t, 1, m.State().Combo)

	lanes := []int{}
	for _, n := range m.Notes() {
		lanes = append(lanes, n.Lane)
	}
	assert.Equal(t, []int{0, 1, 3}, lanes)

	_, err = Load(strings.NewReader("0.50\tC4\n0.40\tE4\n"), DefaultConfig())
	assert.True(t, errors.Is(err, core.ErrTimelineParse))
}

func TestStartRequiresArmed(t *testing.T) {
	m := newRunning(t, DefaultConfig())
	assert.ErrorIs(t, m.Start(), ErrNotArmed)
}

func TestHitWindowInclusive(t *testing.T) {
	cfg := DefaultConfig()
	w := cfg.HitWindow
	ts := 1.0
	// C4 sits on lane 0, input id 1

	m := newRunning(t, cfg, ev(ts, "C4"))
	snap := m.Tick(ts-w, []int{1})
	assert.Equal(t, 1, snap.Hits)
	assert.True(t, m.Notes()[0].Hit)

	m = newRunning(t, cfg, ev(ts, "C4"))
	snap = m.Tick(ts+w, []int{1})
	assert.Equal(t, 1, snap.Hits)

	m = newRunning(t, cfg, ev(ts, "C4"))
	snap = m.Tick(ts-w-1e-9, []int{1})
	assert.Equal(t, 0, snap.Hits)
	assert.Equal(t, 1, snap.ConsecutiveMisses)
	assert.False(t, m.Notes()[0].Processed)
}

func TestZeroBasedLanes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lanes = LaneMap{Count: 4, Base: 0}

	m, err := Load(strings.NewReader("1.00\tC4\n2.00\tB4\n"), cfg)
	require.NoError(t, err)
	require.NoError(t, m.Start())

	// key '0' presses lane 0, key '3' the last lane
	snap := m.Tick(1, []int{0})
	assert.Equal(t, 1, snap.Hits)
	assert.Equal(t, 0, snap.ConsecutiveMisses)

	snap = m.Tick(2, []int{3})
	assert.Equal(t, 2, snap.Hits)

	// id 4 is past the last lane
	snap = m.Tick(2.05, []int{4})
	assert.Equal(t, 0, snap.ConsecutiveMisses)
}

func TestPressOnWrongLaneMisses(t *testing.T) {
	m := newRunning(t, DefaultConfig(), ev(1, "C4"))
	snap := m.Tick(1, []int{2})
	assert.Equal(t, 0, snap.Hits)
	assert.Equal(t, 1, snap.ConsecutiveMisses)

	// ids outside the lane map are ignored
	snap = m.Tick(1, []int{0, 9})
	assert.Equal(t, 1, snap.ConsecutiveMisses)
}

func TestComboAndScore(t *testing.T) {
	m := newRunning(t, DefaultConfig(),
		ev(1, "C4"), ev(2, "E4"), ev(3, "G4"), ev(4, "B4"), ev(5, "C5"))

	snap := m.Tick(1, []int{1})
	assert.Equal(t, 10, snap.Score) // 10 x 1
	assert.Equal(t, 2, snap.Combo)

	snap = m.Tick(2, []int{2})
	assert.Equal(t, 30, snap.Score) // + 10 x 2
	assert.Equal(t, 3, snap.Combo)

	// G4 times out
	snap = m.Tick(3.5, nil)
	assert.Equal(t, 1, snap.Combo)
	assert.Equal(t, 1, snap.ConsecutiveMisses)

	snap = m.Tick(4, []int{4})
	assert.Equal(t, 40, snap.Score) // + 10 x 1
	assert.Equal(t, 2, snap.Combo)
	assert.Equal(t, 0, snap.ConsecutiveMisses)

	// miss-press resets the combo
	snap = m.Tick(4.5, []int{3})
	assert.Equal(t, 1, snap.Combo)

	snap = m.Tick(5, []int{1})
	assert.Equal(t, 50, snap.Score)
	assert.Equal(t, 2, snap.MaxCombo)
	assert.Equal(t, 4, snap.Hits)
	assert.Equal(t, 2, snap.Misses)
}

func TestTooManyMissesAborts(t *testing.T) {
	stopper := &stopRecorder{}
	m := newRunning(t, DefaultConfig(), ev(1, "C4"), ev(1.5, "D4"), ev(2, "E4"), ev(10, "A4"))
	m.SetStopper(stopper)

	snap := m.Tick(1.7, nil)
	assert.Equal(t, PhaseRunning, snap.Phase)
	assert.Equal(t, 2, snap.ConsecutiveMisses)

	snap = m.Tick(1.8, []int{4})
	assert.Equal(t, PhaseFinished, snap.Phase)
	assert.Equal(t, OutcomeAborted, snap.Outcome)
	assert.Equal(t, ReasonTooManyMisses, snap.Reason)
	assert.Equal(t, 1, stopper.stops)

	// finished games ignore further ticks
	snap = m.Tick(20, []int{1})
	assert.Equal(t, 3, snap.ConsecutiveMisses)
	assert.Equal(t, 1, stopper.stops)
}

func TestSuccessAfterGrace(t *testing.T) {
	m := newRunning(t, DefaultConfig(), ev(1, "C4"))
	m.Tick(1, []int{1})

	snap := m.Tick(3.0, nil)
	assert.Equal(t, PhaseRunning, snap.Phase)

	snap = m.Tick(3.01, nil)
	assert.Equal(t, PhaseFinished, snap.Phase)
	assert.Equal(t, OutcomeSuccess, snap.Outcome)
	assert.Equal(t, ReasonNone, snap.Reason)
}

func TestEmptyTimelineUsesDefaultGrace(t *testing.T) {
	m := newRunning(t, DefaultConfig())
	assert.Equal(t, PhaseRunning, m.Tick(5, nil).Phase)
	assert.Equal(t, OutcomeSuccess, m.Tick(5.1, nil).Outcome)
}

func TestQuit(t *testing.T) {
	stopper := &stopRecorder{}
	m := newRunning(t, DefaultConfig(), ev(1, "C4"))
	m.SetStopper(stopper)
	m.Quit()

	s := m.State()
	assert.Equal(t, PhaseFinished, s.Phase)
	assert.Equal(t, ReasonQuit, s.Reason)
	assert.Equal(t, 1, stopper.stops)

	rec := m.Record("song.mp3", "ana")
	assert.Equal(t, "aborted: quit", rec.Outcome)
	assert.Equal(t, 1, rec.Notes)
	assert.NotEmpty(t, rec.ID)
}

func TestPreview(t *testing.T) {
	m := newRunning(t, DefaultConfig(), ev(1, "C4"), ev(1.5, "D4"), ev(2.4, "B4"), ev(4, "E4"))
	snap := m.Tick(0.5, nil)

	require.Len(t, snap.Preview, 4)
	assert.Len(t, snap.Preview[0], 2)
	assert.Len(t, snap.Preview[3], 1)
	assert.Empty(t, snap.Preview[1], "E4 is beyond the horizon")
	assert.InDelta(t, 0.5, snap.Preview[0][0].Until, 1e-12)
	assert.Equal(t, 4, snap.Pending)
}
