package engine

import (
	"testing"
	"time"
)

func expire(tbl *Table) time.Time {
	return tbl.TurnDeadline.Time().Add(time.Second)
}

func TestTimeoutChecksWhenFree(t *testing.T) {
	tbl := newTestTable(t, cashConfig(VariantHoldem, NoLimit), 1000, 1000, 1000)
	if err := tbl.startHand(testNow, testRand(1)); err != nil {
		t.Fatal(err)
	}
	act(t, tbl, ActionCall, 0)
	act(t, tbl, ActionCall, 0)
	// Big blind's option times out: nothing owed, so it checks.
	bb := int(tbl.ActiveSeat)
	if err := tbl.applyTimeout(expire(tbl), testRand(1)); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if got := tbl.Seat(bb).LastAction; got != ActionCheck {
		t.Fatalf("timed-out big blind should check, got %s", got)
	}
	if tbl.Seat(bb).Status != SeatActive {
		t.Fatalf("checking seat stays in the hand")
	}
}

func TestTimeoutFoldsWhenFacingABet(t *testing.T) {
	tbl := newTestTable(t, cashConfig(VariantHoldem, NoLimit), 1000, 1000, 1000)
	if err := tbl.startHand(testNow, testRand(1)); err != nil {
		t.Fatal(err)
	}
	victim := int(tbl.ActiveSeat)
	if err := tbl.applyTimeout(expire(tbl), testRand(1)); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if tbl.Seat(victim).Status != SeatFolded {
		t.Fatalf("seat facing a bet should fold on timeout, got %s", tbl.Seat(victim).Status)
	}
}

// A draw-phase timeout stands the seat pat and passes the turn.
func TestTimeoutStandsPatOnDraw(t *testing.T) {
	tbl := newTestTable(t, cashConfig(VariantTripleDraw, FixedLimit), 1000, 1000, 1000)
	if err := tbl.startHand(testNow, testRand(1)); err != nil {
		t.Fatal(err)
	}
	for tbl.Phase == PhaseBetting1 {
		la, err := tbl.LegalActionsFor(int(tbl.ActiveSeat))
		if err != nil {
			t.Fatal(err)
		}
		if la.Has(ActionCheck) {
			act(t, tbl, ActionCheck, 0)
		} else {
			act(t, tbl, ActionCall, 0)
		}
	}
	if tbl.Phase != PhaseDraw1 {
		t.Fatalf("expected DRAW_1, got %s", tbl.Phase)
	}
	drawer := int(tbl.ActiveSeat)
	before := append([]byte(nil), encodeHand(tbl.Seat(drawer))...)
	if err := tbl.applyTimeout(expire(tbl), testRand(1)); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	s := tbl.Seat(drawer)
	if s.LastAction != ActionStandPat {
		t.Fatalf("timed-out drawer should stand pat, got %s", s.LastAction)
	}
	if string(encodeHand(s)) != string(before) {
		t.Fatalf("stand pat must not change the hand")
	}
	if int(tbl.ActiveSeat) == drawer {
		t.Fatalf("turn should move on after the timeout")
	}
}

func encodeHand(s *Seat) []byte {
	out := make([]byte, len(s.Hand))
	for i, c := range s.Hand {
		out[i] = byte(c)
	}
	return out
}

func TestTimeoutBeforeDeadlineIsNoOp(t *testing.T) {
	tbl := newTestTable(t, cashConfig(VariantHoldem, NoLimit), 1000, 1000)
	if err := tbl.startHand(testNow, testRand(1)); err != nil {
		t.Fatal(err)
	}
	acting := int(tbl.ActiveSeat)
	if err := tbl.applyTimeout(testNow, testRand(1)); err != nil {
		t.Fatalf("early timeout should be a no-op, got %v", err)
	}
	if int(tbl.ActiveSeat) != acting || tbl.Seat(acting).LastAction != "" {
		t.Fatal("early timeout must not act for the seat")
	}
}

// A second timeout for a turn that already resolved is a no-op, so any
// number of clients may request processing.
func TestTimeoutIsIdempotent(t *testing.T) {
	tbl := newTestTable(t, cashConfig(VariantHoldem, NoLimit), 1000, 1000, 1000)
	if err := tbl.startHand(testNow, testRand(1)); err != nil {
		t.Fatal(err)
	}
	late := expire(tbl)
	if err := tbl.applyTimeout(late, testRand(1)); err != nil {
		t.Fatal(err)
	}
	// The turn moved and re-armed a fresh deadline; a straggler firing
	// against the old one must not force-act the new seat.
	acting := int(tbl.ActiveSeat)
	if err := tbl.applyTimeout(late, testRand(1)); err != nil {
		t.Fatalf("stale timeout should be a no-op, got %v", err)
	}
	if int(tbl.ActiveSeat) != acting || tbl.Seat(acting).LastAction != "" {
		t.Fatal("stale timeout must not act for the new seat")
	}
}
