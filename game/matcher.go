package game

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"notehero/core"
	"notehero/models"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseArmed
	PhaseRunning
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseArmed:
		return "armed"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAborted:
		return "aborted"
	}
	return "none"
}

type AbortReason int

const (
	ReasonNone AbortReason = iota
	ReasonTooManyMisses
	ReasonQuit
)

func (r AbortReason) String() string {
	switch r {
	case ReasonTooManyMisses:
		return "too many misses"
	case ReasonQuit:
		return "quit"
	}
	return "none"
}

var ErrNotArmed = errors.New("game: matcher is not armed")

type Config struct {
	// HitWindow is the half width, in seconds, of the inclusive window around a note.
	HitWindow float64
	MaxMisses int
	Lanes     LaneMap
	// PreviewHorizon is how far ahead, in seconds, snapshots list upcoming notes.
	PreviewHorizon float64
	// TrailingGrace is waited after the last note before the run succeeds.
	TrailingGrace float64
	// EmptyGrace replaces TrailingGrace for a timeline without notes.
	EmptyGrace float64
	BasePoints int
}

func DefaultConfig() Config {
	return Config{
		HitWindow:      0.15,
		MaxMisses:      3,
		Lanes:          LaneMap{Count: 4, Base: 1},
		PreviewHorizon: 2.0,
		TrailingGrace:  2.0,
		EmptyGrace:     5.0,
		BasePoints:     10,
	}
}

// GameNote is a timeline event placed on a lane.
type GameNote struct {
	models.NoteEvent
	Lane      int
	Processed bool
	Hit       bool
}

type State struct {
	Score             int
	Combo             int
	MaxCombo          int
	ConsecutiveMisses int
	Hits              int
	Misses            int
	Phase             Phase
	Outcome           Outcome
	Reason            AbortReason
}

type PreviewNote struct {
	Note      string
	Timestamp float64
	// Until is the time left before the note reaches the hit line.
	Until float64
}

// Snapshot is what sinks receive after every tick.
type Snapshot struct {
	State
	Time    float64
	Preview [][]PreviewNote // indexed by lane
	Total   int
	Pending int
}

// Stopper is told when a run aborts, usually the audio player.
type Stopper interface {
	Stop()
}

// Matcher scores timed lane presses against a note timeline.
type Matcher struct {
	cfg     Config
	notes   []GameNote
	state   State
	stopper Stopper
	lastT   float64
}

// Load parses a timeline and returns an armed matcher.
func Load(r io.Reader, cfg Config) (*Matcher, error) {
	events, err := core.ReadTimeline(r)
	if err != nil {
		return nil, err
	}
	return New(events, cfg)
}

func New(events []models.NoteEvent, cfg Config) (*Matcher, error) {
	if err := cfg.Lanes.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxMisses < 1 {
		return nil, fmt.Errorf("max misses must be at least 1")
	}
	if cfg.HitWindow < 0 {
		return nil, fmt.Errorf("hit window must not be negative")
	}

	m := &Matcher{cfg: cfg, state: State{Combo: 1, Phase: PhaseLoading}}
	m.notes = make([]GameNote, len(events))
	for i, e := range events {
		n, err := core.ParseNote(e.Note)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", i, err)
		}
		m.notes[i] = GameNote{NoteEvent: e, Lane: LaneOf(n.Class, cfg.Lanes.Count)}
	}
	m.state.Phase = PhaseArmed
	return m, nil
}

func (m *Matcher) SetStopper(s Stopper) {
	m.stopper = s
}

func (m *Matcher) Notes() []GameNote {
	return m.notes
}

func (m *Matcher) State() State {
	return m.state
}

func (m *Matcher) Config() Config {
	return m.cfg
}

func (m *Matcher) Start() error {
	if m.state.Phase != PhaseArmed {
		return fmt.Errorf("%w: phase is %s", ErrNotArmed, m.state.Phase)
	}
	m.state.Phase = PhaseRunning
	return nil
}

// Quit ends a running game as aborted.
func (m *Matcher) Quit() {
	if m.state.Phase == PhaseRunning {
		m.abort(ReasonQuit)
	}
}

// Tick advances the game to time t, applying presses (input lane ids) first.
// Outside the running phase it only reports the current state.
func (m *Matcher) Tick(t float64, presses []int) Snapshot {
	if m.state.Phase != PhaseRunning {
		return m.snapshot(m.lastT)
	}
	m.lastT = t

	for _, id := range presses {
		lane, ok := m.cfg.Lanes.Lane(id)
		if !ok {
			continue
		}
		if n := m.findHit(lane, t); n != nil {
			n.Processed, n.Hit = true, true
			m.hit()
		} else {
			m.miss()
		}
	}

	for i := range m.notes {
		n := &m.notes[i]
		if !n.Processed && n.Timestamp+m.cfg.HitWindow < t {
			n.Processed = true
			m.miss()
		}
	}

	switch {
	case m.state.ConsecutiveMisses >= m.cfg.MaxMisses:
		m.abort(ReasonTooManyMisses)
	case t > m.endTime():
		m.state.Phase = PhaseFinished
		m.state.Outcome = OutcomeSuccess
	}
	return m.snapshot(t)
}

func (m *Matcher) findHit(lane int, t float64) *GameNote {
	w := m.cfg.HitWindow
	for i := range m.notes {
		n := &m.notes[i]
		if n.Processed || n.Lane != lane {
			continue
		}
		if n.Timestamp-w <= t && t <= n.Timestamp+w {
			return n
		}
	}
	return nil
}

func (m *Matcher) hit() {
	s := &m.state
	s.Score += m.cfg.BasePoints * s.Combo
	s.Combo++
	s.MaxCombo = max(s.MaxCombo, s.Combo-1)
	s.ConsecutiveMisses = 0
	s.Hits++
}

func (m *Matcher) miss() {
	m.state.Combo = 1
	m.state.ConsecutiveMisses++
	m.state.Misses++
}

func (m *Matcher) abort(reason AbortReason) {
	m.state.Phase = PhaseFinished
	m.state.Outcome = OutcomeAborted
	m.state.Reason = reason
	if m.stopper != nil {
		m.stopper.Stop()
	}
}

func (m *Matcher) endTime() float64 {
	if len(m.notes) == 0 {
		return m.cfg.EmptyGrace
	}
	return m.notes[len(m.notes)-1].Timestamp + m.cfg.TrailingGrace
}

func (m *Matcher) snapshot(t float64) Snapshot {
	snap := Snapshot{
		State:   m.state,
		Time:    t,
		Preview: make([][]PreviewNote, m.cfg.Lanes.Count),
		Total:   len(m.notes),
	}
	for _, n := range m.notes {
		if n.Processed {
			continue
		}
		snap.Pending++
		until := n.Timestamp - t
		if until >= 0 && until < m.cfg.PreviewHorizon {
			snap.Preview[n.Lane] = append(snap.Preview[n.Lane], PreviewNote{Note: n.Note, Timestamp: n.Timestamp, Until: until})
		}
	}
	return snap
}

// Record summarises a finished run for storage.
func (m *Matcher) Record(song, player string) models.RunRecord {
	outcome := m.state.Outcome.String()
	if m.state.Reason != ReasonNone {
		outcome += ": " + m.state.Reason.String()
	}
	return models.RunRecord{
		ID:         uuid.NewString(),
		Song:       song,
		Player:     player,
		Score:      m.state.Score,
		MaxCombo:   m.state.MaxCombo,
		Hits:       m.state.Hits,
		Misses:     m.state.Misses,
		Notes:      len(m.notes),
		Outcome:    outcome,
		FinishedAt: time.Now().UTC(),
	}
}
