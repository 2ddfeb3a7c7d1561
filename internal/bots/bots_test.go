package bots

import (
	"testing"

	"felt/card"
	"felt/engine"
)

func mustCards(t *testing.T, specs ...string) []card.Card {
	t.Helper()
	out := make([]card.Card, 0, len(specs))
	for _, s := range specs {
		c, err := card.Parse(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		out = append(out, c)
	}
	return out
}

func bettingTable(t *testing.T) *engine.Table {
	t.Helper()
	tbl, err := engine.NewTable("t1", "alice", engine.Config{
		Variant:     engine.VariantHoldem,
		BettingType: engine.NoLimit,
		Mode:        engine.ModeCash,
		MaxPlayers:  6,
		SmallBlind:  10,
		BigBlind:    20,
		MinBuyIn:    400,
		MaxBuyIn:    2000,
		TurnTimeMS:  30_000,
	})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	tbl.Seats[0] = &engine.Seat{Index: 0, UID: "alice", Chips: 1000, Status: engine.SeatActive}
	tbl.Seats[1] = &engine.Seat{Index: 1, UID: "bot-1", IsBot: true, Chips: 1000, Status: engine.SeatActive}
	tbl.Phase = engine.PhaseBettingFlop
	tbl.ActiveSeat = 1
	return tbl
}

func TestConservativeChecksWhenFree(t *testing.T) {
	tbl := bettingTable(t)
	la, err := tbl.LegalActionsFor(1)
	if err != nil {
		t.Fatalf("legal actions: %v", err)
	}
	dec := Conservative{}.DecideBet(tbl, 1, la)
	if dec.Action != engine.ActionCheck {
		t.Fatalf("expected check, got %s", dec.Action)
	}
}

func TestConservativeCallsCheapFoldsDear(t *testing.T) {
	tbl := bettingTable(t)
	tbl.CurrentBet = 60
	tbl.LastRaiseSize = 60
	tbl.Seats[0].CurrentRoundBet = 60

	la, err := tbl.LegalActionsFor(1)
	if err != nil {
		t.Fatalf("legal actions: %v", err)
	}
	if dec := (Conservative{}).DecideBet(tbl, 1, la); dec.Action != engine.ActionCall {
		t.Fatalf("expected call at 60 into 1000, got %s", dec.Action)
	}

	tbl.CurrentBet = 600
	tbl.LastRaiseSize = 600
	tbl.Seats[0].CurrentRoundBet = 600
	la, err = tbl.LegalActionsFor(1)
	if err != nil {
		t.Fatalf("legal actions: %v", err)
	}
	if dec := (Conservative{}).DecideBet(tbl, 1, la); dec.Action != engine.ActionFold {
		t.Fatalf("expected fold at 600 into 1000, got %s", dec.Action)
	}
}

func TestConservativeDiscardKeepsLowCards(t *testing.T) {
	tbl := bettingTable(t)
	tbl.Seats[1].Hand = mustCards(t, "2c", "3d", "4h", "Js", "Kc")
	got := Conservative{}.DecideDiscard(tbl, 1)
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("expected discard [3 4], got %v", got)
	}

	tbl.Seats[1].Hand = mustCards(t, "2c", "2d", "5h", "7s", "8c")
	got = Conservative{}.DecideDiscard(tbl, 1)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected paired deuce discarded, got %v", got)
	}

	tbl.Seats[1].Hand = mustCards(t, "2c", "3d", "4h", "5s", "7c")
	if got = (Conservative{}).DecideDiscard(tbl, 1); len(got) != 0 {
		t.Fatalf("expected stand pat on a made low, got %v", got)
	}

	tbl.Seats[1].Hand = mustCards(t, "9c", "Td", "Jh", "Qs", "Kc")
	got = Conservative{}.DecideDiscard(tbl, 1)
	if len(got) != 3 {
		t.Fatalf("expected at most three discards, got %v", got)
	}
}

func TestNextMoveOnlyFiresForActingBots(t *testing.T) {
	d := NewDriver(nil, nil)

	tbl := bettingTable(t)
	in, ok := d.nextMove(tbl)
	if !ok || in.Type != engine.IntentBetAction || in.Seat != 1 || in.UID != "alice" {
		t.Fatalf("expected creator-signed bet intent, got %+v ok=%v", in, ok)
	}

	tbl.ActiveSeat = 0 // human's turn
	if _, ok := d.nextMove(tbl); ok {
		t.Fatalf("must not act for humans")
	}

	tbl.ActiveSeat = engine.NoSeat
	if _, ok := d.nextMove(tbl); ok {
		t.Fatalf("no turn, no move")
	}
}

func TestNextMoveSubmitsDraws(t *testing.T) {
	d := NewDriver(nil, nil)
	tbl := bettingTable(t)
	tbl.Config.Variant = engine.VariantTripleDraw
	tbl.Phase = engine.PhaseDraw1
	tbl.Seats[1].Hand = mustCards(t, "2c", "3d", "4h", "Js", "Kc")

	in, ok := d.nextMove(tbl)
	if !ok || in.Type != engine.IntentSubmitDraw {
		t.Fatalf("expected draw intent, got %+v ok=%v", in, ok)
	}
	if len(in.Indices) != 2 {
		t.Fatalf("expected two discards, got %v", in.Indices)
	}
}
