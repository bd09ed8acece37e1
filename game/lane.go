package game

import (
	"fmt"

	"notehero/core"
)

// naturalNotes is the number of letter names a lane layout is spread over.
const naturalNotes = 7

// LaneOf places a pitch class on one of laneCount lanes by its letter name.
// With four lanes: C,D -> 0, E,F -> 1, G,A -> 2, B -> 3. Sharps follow their letter.
func LaneOf(class core.PitchClass, laneCount int) int {
	if laneCount < 1 {
		return 0
	}
	return class.Letter() * laneCount / naturalNotes
}

// LaneMap converts the lane ids reported by input sources to note lanes.
type LaneMap struct {
	Count int
	// Base is the id of the first lane, 0 or 1.
	Base int
}

// Lane returns the note lane targeted by input id, and whether it exists.
func (m LaneMap) Lane(id int) (int, bool) {
	lane := id - m.Base
	return lane, lane >= 0 && lane < m.Count
}

// ID is the input id for a note lane.
func (m LaneMap) ID(lane int) int {
	return lane + m.Base
}

func (m LaneMap) validate() error {
	if m.Count < 1 || m.Count > naturalNotes {
		return fmt.Errorf("lane count must be within 1..%d, got %d", naturalNotes, m.Count)
	}
	if m.Base != 0 && m.Base != 1 {
		return fmt.Errorf("lane base must be 0 or 1, got %d", m.Base)
	}
	return nil
}
