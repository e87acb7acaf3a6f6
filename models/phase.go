package models

import "fmt"

// NumPhases — пул билетов всегда делится на три фазы.
const NumPhases = 3

// PhaseRange is the contiguous slice of the ticket space owned by a phase.
// Ranges are derived from total_tickets, never stored.
type PhaseRange struct {
	Phase int `json:"phase"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// PhaseRangeFor computes the range of the given phase (1..NumPhases) for a
// competition with totalTickets tickets. Phase 1 = [1, T/3],
// phase 2 = [T/3+1, 2T/3], phase 3 = [2T/3+1, T], integer floor division.
func PhaseRangeFor(totalTickets, phase int) PhaseRange {
	third := totalTickets / 3
	switch phase {
	case 1:
		return PhaseRange{Phase: 1, Start: 1, End: third}
	case 2:
		return PhaseRange{Phase: 2, Start: third + 1, End: 2 * third}
	default:
		return PhaseRange{Phase: 3, Start: 2*third + 1, End: totalTickets}
	}
}

// AllPhaseRanges returns the three ranges in phase order.
func AllPhaseRanges(totalTickets int) [NumPhases]PhaseRange {
	return [NumPhases]PhaseRange{
		PhaseRangeFor(totalTickets, 1),
		PhaseRangeFor(totalTickets, 2),
		PhaseRangeFor(totalTickets, 3),
	}
}

func (r PhaseRange) Size() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r PhaseRange) Contains(ticketNumber int) bool {
	return ticketNumber >= r.Start && ticketNumber <= r.End
}

// String formats the range for operator-facing summaries, e.g. "101-200".
func (r PhaseRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}
