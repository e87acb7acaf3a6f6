package models

import "testing"

func TestTicketRangeNumbers(t *testing.T) {
	r := TicketRange{Start: 21, End: 25}

	if r.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", r.Count())
	}

	numbers := r.Numbers()
	want := []int64{21, 22, 23, 24, 25}
	if len(numbers) != len(want) {
		t.Fatalf("Numbers() returned %d values, want %d", len(numbers), len(want))
	}
	for i := range want {
		if numbers[i] != want[i] {
			t.Errorf("Numbers()[%d] = %d, want %d", i, numbers[i], want[i])
		}
	}
}

func TestTicketRangeSingleTicket(t *testing.T) {
	r := TicketRange{Start: 7, End: 7}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
	if numbers := r.Numbers(); len(numbers) != 1 || numbers[0] != 7 {
		t.Errorf("Numbers() = %v, want [7]", numbers)
	}
}

func TestCompetitionTicketsRemaining(t *testing.T) {
	c := Competition{TotalTickets: 500, TicketsSold: 120}
	if c.TicketsRemaining() != 380 {
		t.Errorf("TicketsRemaining() = %d, want 380", c.TicketsRemaining())
	}
	if c.IsSoldOut() {
		t.Error("competition with remaining tickets reported sold out")
	}

	c.TicketsSold = 500
	if c.TicketsRemaining() != 0 {
		t.Errorf("TicketsRemaining() = %d, want 0", c.TicketsRemaining())
	}
	if !c.IsSoldOut() {
		t.Error("fully sold competition not reported sold out")
	}
}
