package engine

import "testing"

// Three all-in stacks of 200/500/1000: main pot 600 for all three, a
// 600 side pot between the two bigger stacks, and a 500 layer only the
// deep stack covers.
func TestSidePotsThreeWayAllIn(t *testing.T) {
	tbl := newTestTable(t, cashConfig(VariantHoldem, NoLimit), 200, 500, 1000)
	ev := HoldemEvaluator{}

	values := map[int]HandValue{}
	for i, hs := range [][]string{
		{"Ah", "Ad", "As", "Kc", "Kd"}, // P1 best
		{"2h", "3d", "7s", "9c", "Jd"}, // P2 worst
		{"Kh", "Ks", "Qs", "Qc", "2d"}, // P3 second
	} {
		s := tbl.Seat(i)
		s.TotalContribution = s.Chips
		tbl.Pot += s.Chips
		s.Chips = 0
		s.Status = SeatAllIn
		hv, err := ev.Evaluate(mustCards(t, hs...))
		if err != nil {
			t.Fatal(err)
		}
		values[i] = hv
	}

	pots := tbl.buildSidePots()
	if len(pots) != 3 {
		t.Fatalf("expected main pot plus 2 side pots, got %d", len(pots))
	}
	if pots[0].Amount != 600 || len(pots[0].Eligible) != 3 {
		t.Fatalf("main pot: want 600 for 3 seats, got %d for %d", pots[0].Amount, len(pots[0].Eligible))
	}
	if pots[1].Amount != 600 || len(pots[1].Eligible) != 2 {
		t.Fatalf("side pot 1: want 600 for 2 seats, got %d for %d", pots[1].Amount, len(pots[1].Eligible))
	}
	if pots[2].Amount != 500 || len(pots[2].Eligible) != 1 {
		t.Fatalf("side pot 2: want 500 for the deep stack alone, got %d for %d", pots[2].Amount, len(pots[2].Eligible))
	}

	tbl.awardPots(pots, values)
	if got := tbl.Seat(0).Chips; got != 600 {
		t.Fatalf("P1 should win the 600 main pot, got %d", got)
	}
	if got := tbl.Seat(1).Chips; got != 0 {
		t.Fatalf("P2 should bust, got %d", got)
	}
	if got := tbl.Seat(2).Chips; got != 1100 {
		t.Fatalf("P3 should take 600+500=1100, got %d", got)
	}
}

func TestFoldedChipsStayInThePot(t *testing.T) {
	tbl := newTestTable(t, cashConfig(VariantHoldem, NoLimit), 1000, 1000, 1000)
	ev := HoldemEvaluator{}

	// Seat 1 folded after putting in 60; the survivors contributed 200.
	setup := []struct {
		contrib int64
		status  SeatStatus
	}{
		{200, SeatAllIn},
		{60, SeatFolded},
		{200, SeatActive},
	}
	for i, sp := range setup {
		s := tbl.Seat(i)
		s.TotalContribution = sp.contrib
		s.Chips -= sp.contrib
		s.Status = sp.status
		tbl.Pot += sp.contrib
	}

	pots := tbl.buildSidePots()
	total := int64(0)
	for _, p := range pots {
		total += p.Amount
		for _, idx := range p.Eligible {
			if idx == 1 {
				t.Fatal("folded seat must not be eligible for any pot")
			}
		}
	}
	if total != 460 {
		t.Fatalf("pots should hold all 460 contributed chips, got %d", total)
	}

	win, _ := ev.Evaluate(mustCards(t, "Ah", "Ad", "As", "Kc", "Kd"))
	lose, _ := ev.Evaluate(mustCards(t, "2h", "3d", "7s", "9c", "Jd"))
	tbl.awardPots(pots, map[int]HandValue{0: win, 2: lose})
	if got := tbl.Seat(0).Chips; got != 800+460 {
		t.Fatalf("winner should collect 460 incl. folded chips, got %d", got)
	}
}

func TestSplitPotOddChipGoesClockwiseFromDealer(t *testing.T) {
	tbl := newTestTable(t, cashConfig(VariantHoldem, NoLimit), 1000, 1000, 1000)
	ev := HoldemEvaluator{}

	for i := 0; i < 3; i++ {
		s := tbl.Seat(i)
		s.TotalContribution = 67
		s.Chips -= 67
		tbl.Pot += 67
		s.Status = SeatActive
	}
	tbl.DealerSeat = 0

	tie, _ := ev.Evaluate(mustCards(t, "Ah", "Kd", "9s", "5c", "2h"))
	tie2, _ := ev.Evaluate(mustCards(t, "Ad", "Kh", "9c", "5s", "2d"))
	worst, _ := ev.Evaluate(mustCards(t, "2c", "3d", "7s", "9h", "Jd"))

	pots := tbl.buildSidePots()
	tbl.awardPots(pots, map[int]HandValue{0: worst, 1: tie, 2: tie2})

	// 201 split two ways: 101 to the first winner clockwise from the
	// dealer (seat 1), 100 to seat 2.
	if got := tbl.Seat(1).Chips; got != 933+101 {
		t.Fatalf("seat 1 should get the odd chip: %d", got)
	}
	if got := tbl.Seat(2).Chips; got != 933+100 {
		t.Fatalf("seat 2 should get 100: %d", got)
	}
}
