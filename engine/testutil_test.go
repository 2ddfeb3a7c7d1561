package engine

import (
	"math/rand/v2"
	"testing"
	"time"

	"felt/card"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testRand(hand int64) *rand.Rand {
	return HandRand("test-table", hand, hand, []byte("fixed-test-nonce"))
}

func mustCard(t *testing.T, s string) card.Card {
	t.Helper()
	c, err := card.Parse(s)
	if err != nil {
		t.Fatalf("parse card %q: %v", s, err)
	}
	return c
}

func mustCards(t *testing.T, ss ...string) []card.Card {
	t.Helper()
	out := make([]card.Card, len(ss))
	for i := range ss {
		out[i] = mustCard(t, ss[i])
	}
	return out
}

func cashConfig(variant Variant, betting BettingType) Config {
	return Config{
		Variant:     variant,
		BettingType: betting,
		Mode:        ModeCash,
		MaxPlayers:  6,
		SmallBlind:  10,
		BigBlind:    20,
		TurnTimeMS:  30_000,
		MinBuyIn:    400,
		MaxBuyIn:    2000,
	}
}

// newTestTable seats the given stacks, assigns the button to seat 0,
// and leaves the table at IDLE ready for startHand.
func newTestTable(t *testing.T, cfg Config, stacks ...int64) *Table {
	t.Helper()
	tbl, err := NewTable("test-table", "u0", cfg)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	for i, chips := range stacks {
		uid := string(rune('a' + i))
		if tbl.Tournament != nil {
			if _, err := tbl.register(uid, uid, cfg.BuyIn); err != nil {
				t.Fatalf("register seat %d: %v", i, err)
			}
			tbl.Seat(i).Chips = chips
		} else {
			if _, err := tbl.assignSeat(uid, uid, false, "", chips); err != nil {
				t.Fatalf("seat %d: %v", i, err)
			}
		}
	}
	tbl.DealerSeat = 0
	return tbl
}

func totalChips(tbl *Table) int64 {
	sum := tbl.Pot
	for _, s := range tbl.Seats {
		if s != nil {
			sum += s.Chips
		}
	}
	return sum
}

// act drives one betting action for the currently acting seat.
func act(t *testing.T, tbl *Table, action ActionType, amount int64) {
	t.Helper()
	if tbl.ActiveSeat == NoSeat {
		t.Fatalf("no acting seat (phase %s)", tbl.Phase)
	}
	if err := tbl.applyBetAction(int(tbl.ActiveSeat), action, amount, testNow, testRand(tbl.HandNumber)); err != nil {
		t.Fatalf("seat %d %s %d: %v", int(tbl.ActiveSeat), action, amount, err)
	}
}

// draw drives one draw-phase exchange for the currently acting seat.
func draw(t *testing.T, tbl *Table, indices ...int) {
	t.Helper()
	if err := tbl.applyDraw(int(tbl.ActiveSeat), indices, testNow, testRand(tbl.HandNumber)); err != nil {
		t.Fatalf("seat %d draw %v: %v", int(tbl.ActiveSeat), indices, err)
	}
}
