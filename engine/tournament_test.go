package engine

import (
	"testing"
	"time"
)

func sngConfig(maxPlayers int, prizes []float64) Config {
	return Config{
		Variant:        VariantHoldem,
		BettingType:    NoLimit,
		Mode:           ModeSNG,
		MaxPlayers:     maxPlayers,
		SmallBlind:     10,
		BigBlind:       20,
		TurnTimeMS:     30_000,
		BuyIn:          100,
		StartingChips:  1000,
		PrizeStructure: prizes,
	}
}

func TestPrizeStructureValidation(t *testing.T) {
	cases := []struct {
		fracs []float64
		ok    bool
	}{
		{[]float64{1}, true},
		{[]float64{0.5, 0.3, 0.2}, true},
		{[]float64{0.65, 0.35}, true},
		{[]float64{0.5, 0.3}, false},     // sums to 0.8
		{[]float64{0.7, 0.7}, false},     // sums to 1.4
		{[]float64{1, -0.0001}, false},   // non-positive share
		{nil, false},                     // pays nobody
		{[]float64{0.5, 0.498}, true},    // inside the 0.01 tolerance
		{[]float64{0.5, 0.48}, false},    // outside it
	}
	for _, c := range cases {
		err := ValidatePrizeStructure(c.fracs)
		if c.ok && err != nil {
			t.Fatalf("%v should validate: %v", c.fracs, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("%v should be rejected", c.fracs)
		}
	}
}

func TestRegistrationClosesAtStart(t *testing.T) {
	tbl, err := NewTable("t", "u0", sngConfig(6, []float64{1}))
	if err != nil {
		t.Fatal(err)
	}
	for _, uid := range []string{"a", "b", "c"} {
		if _, err := tbl.register(uid, uid, 100); err != nil {
			t.Fatalf("register %s: %v", uid, err)
		}
	}
	if tbl.Tournament.PrizePool != 300 {
		t.Fatalf("prize pool should be 300, got %d", tbl.Tournament.PrizePool)
	}
	if _, err := tbl.register("d", "d", 50); KindOf(err) != KindInvalidInput {
		t.Fatalf("wrong buy-in should be rejected, got %v", err)
	}
	if err := tbl.startTournament(testNow); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.register("d", "d", 100); KindOf(err) != KindTournamentClosed {
		t.Fatalf("late registration should return TournamentClosed, got %v", err)
	}
	if tbl.Tournament.BlindTimer.NextLevelAt.IsZero() {
		t.Fatal("blind timer should be armed at start")
	}
}

func TestAutoStartWhenFull(t *testing.T) {
	tbl, err := NewTable("t", "a", sngConfig(2, []float64{1}))
	if err != nil {
		t.Fatal(err)
	}
	for _, uid := range []string{"a", "b"} {
		in := Intent{Type: IntentRegister, UID: uid, DisplayName: uid, BuyIn: 100}
		if err := Apply(tbl, in, testNow, testRand(0)); err != nil {
			t.Fatalf("register %s: %v", uid, err)
		}
	}
	if tbl.Tournament.State != TournamentRunning {
		t.Fatalf("full table should auto-start, state %s", tbl.Tournament.State)
	}
}

func TestBlindLevelScheduleAndClamp(t *testing.T) {
	tbl, err := NewTable("t", "a", sngConfig(6, []float64{1}))
	if err != nil {
		t.Fatal(err)
	}
	for _, uid := range []string{"a", "b", "c"} {
		if _, err := tbl.register(uid, uid, 100); err != nil {
			t.Fatal(err)
		}
	}
	if err := tbl.startTournament(testNow); err != nil {
		t.Fatal(err)
	}

	if err := tbl.applyIncreaseBlindLevel(testNow); KindOf(err) != KindIllegalAction {
		t.Fatalf("level bump before the timer should be refused, got %v", err)
	}

	now := testNow
	for i := 0; i < MaxBlindLevel+3; i++ {
		now = now.Add(BlindLevelDuration + time.Second)
		if err := tbl.applyIncreaseBlindLevel(now); err != nil {
			t.Fatalf("bump %d: %v", i, err)
		}
	}
	if got := tbl.Tournament.BlindTimer.CurrentLevel; got != MaxBlindLevel {
		t.Fatalf("level should clamp at %d, got %d", MaxBlindLevel, got)
	}

	sb, bb := tbl.EffectiveBlinds()
	if sb != 10<<MaxBlindLevel || bb != 20<<MaxBlindLevel {
		t.Fatalf("blinds should double per level: %d/%d", sb, bb)
	}
}

// Three seats bust on the same hand: the short stack finishes lowest,
// and an exact contribution tie breaks clockwise from the dealer.
func TestEliminationOrderSameHand(t *testing.T) {
	tbl, err := NewTable("t", "u0", sngConfig(6, []float64{1}))
	if err != nil {
		t.Fatal(err)
	}
	uids := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	for _, uid := range uids {
		if _, err := tbl.register(uid, uid, 100); err != nil {
			t.Fatal(err)
		}
	}
	if err := tbl.startTournament(testNow); err != nil {
		t.Fatal(err)
	}
	tbl.DealerSeat = 0
	tbl.HandNumber = 4

	bust := map[int]int64{1: 200, 3: 500, 4: 500}
	for idx, contrib := range bust {
		s := tbl.Seat(idx)
		s.Chips = 0
		s.TotalContribution = contrib
		s.Status = SeatAllIn
	}

	tbl.processEliminations(testNow)

	elims := tbl.Tournament.Eliminations
	if len(elims) != 3 {
		t.Fatalf("expected 3 eliminations, got %d", len(elims))
	}
	want := []struct {
		uid      string
		position int
	}{
		{"p2", 6}, // 200 busts first
		{"p4", 5}, // 500, closer to the dealer
		{"p5", 4}, // 500, tie broken clockwise
	}
	for i, w := range want {
		if elims[i].UID != w.uid || elims[i].Position != w.position {
			t.Fatalf("elimination %d: want %s at position %d, got %s at %d",
				i, w.uid, w.position, elims[i].UID, elims[i].Position)
		}
		if elims[i].HandNumber != 4 {
			t.Fatalf("elimination should record hand 4, got %d", elims[i].HandNumber)
		}
	}
	for idx := range bust {
		if tbl.Seat(idx).Status != SeatEliminated {
			t.Fatalf("seat %d should be eliminated", idx)
		}
	}
	if tbl.Tournament.State != TournamentRunning {
		t.Fatal("tournament should keep running with 3 players left")
	}
}

func TestCompletionPaysPrizeStructureWithRemainder(t *testing.T) {
	tbl, err := NewTable("t", "u0", sngConfig(3, []float64{0.5, 0.3, 0.2}))
	if err != nil {
		t.Fatal(err)
	}
	for _, uid := range []string{"p1", "p2", "p3"} {
		if _, err := tbl.register(uid, uid, 100); err != nil {
			t.Fatal(err)
		}
	}
	if err := tbl.startTournament(testNow); err != nil {
		t.Fatal(err)
	}
	tbl.Tournament.PrizePool = 605 // forces flooring remainders
	tbl.DealerSeat = 0

	// p3 busted an earlier hand.
	s3 := tbl.Seat(2)
	s3.Chips = 0
	s3.TotalContribution = 100
	tbl.processEliminations(testNow)

	// p2 busts heads-up; p1 survives.
	s2 := tbl.Seat(1)
	s2.Chips = 0
	s2.TotalContribution = 400
	tbl.Seat(0).Chips = 3000
	tbl.processEliminations(testNow)

	tour := tbl.Tournament
	if tour.State != TournamentCompleted {
		t.Fatalf("tournament should complete, state %s", tour.State)
	}
	wantAmounts := map[string]int64{"p1": 303, "p2": 181, "p3": 121}
	var total int64
	for _, p := range tour.Payouts {
		if wantAmounts[p.UID] != p.Amount {
			t.Fatalf("payout for %s: want %d, got %d", p.UID, wantAmounts[p.UID], p.Amount)
		}
		total += p.Amount
	}
	if total != 605 {
		t.Fatalf("payouts must exhaust the pool: %d", total)
	}
}
