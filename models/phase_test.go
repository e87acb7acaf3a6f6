package models

import "testing"

func TestPhaseRangesEvenSplit(t *testing.T) {
	ranges := AllPhaseRanges(300)

	want := [NumPhases]PhaseRange{
		{Phase: 1, Start: 1, End: 100},
		{Phase: 2, Start: 101, End: 200},
		{Phase: 3, Start: 201, End: 300},
	}
	if ranges != want {
		t.Fatalf("ranges for 300 tickets = %v, want %v", ranges, want)
	}
	for _, r := range ranges {
		if r.Size() != 100 {
			t.Errorf("phase %d size = %d, want 100", r.Phase, r.Size())
		}
	}
}

func TestPhaseRangesRemainderGoesToLastPhase(t *testing.T) {
	// 100 не делится на 3: первая и вторая фазы получают по 33 номера,
	// остаток достаётся третьей.
	ranges := AllPhaseRanges(100)

	if got := ranges[0]; got.Start != 1 || got.End != 33 {
		t.Errorf("phase 1 = %s, want 1-33", got)
	}
	if got := ranges[1]; got.Start != 34 || got.End != 66 {
		t.Errorf("phase 2 = %s, want 34-66", got)
	}
	if got := ranges[2]; got.Start != 67 || got.End != 100 {
		t.Errorf("phase 3 = %s, want 67-100", got)
	}

	total := 0
	for _, r := range ranges {
		total += r.Size()
	}
	if total != 100 {
		t.Errorf("phase sizes sum to %d, want 100", total)
	}
}

func TestPhaseRangesAreContiguousAndDisjoint(t *testing.T) {
	for _, totalTickets := range []int{3, 10, 99, 100, 101, 1000, 12345} {
		ranges := AllPhaseRanges(totalTickets)

		if ranges[0].Start != 1 {
			t.Errorf("T=%d: phase 1 starts at %d, want 1", totalTickets, ranges[0].Start)
		}
		if ranges[2].End != totalTickets {
			t.Errorf("T=%d: phase 3 ends at %d, want %d", totalTickets, ranges[2].End, totalTickets)
		}
		if ranges[1].Start != ranges[0].End+1 || ranges[2].Start != ranges[1].End+1 {
			t.Errorf("T=%d: ranges not contiguous: %v", totalTickets, ranges)
		}
	}
}

func TestPhaseRangeContains(t *testing.T) {
	r := PhaseRangeFor(300, 2)

	if r.Contains(100) {
		t.Error("100 should be outside phase 2 of 300")
	}
	if !r.Contains(101) || !r.Contains(200) {
		t.Error("phase 2 of 300 must contain its own bounds 101 and 200")
	}
	if r.Contains(201) {
		t.Error("201 should be outside phase 2 of 300")
	}
}

func TestPhaseRangeString(t *testing.T) {
	if got := PhaseRangeFor(300, 1).String(); got != "1-100" {
		t.Errorf("String() = %q, want %q", got, "1-100")
	}
}
