package engine

import "testing"

func TestHoldemCategoryOrdering(t *testing.T) {
	ev := HoldemEvaluator{}
	hands := [][]string{
		{"Ah", "Kd", "9s", "5c", "2h"}, // high card
		{"Ah", "Ad", "9s", "5c", "2h"}, // pair
		{"Ah", "Ad", "9s", "9c", "2h"}, // two pair
		{"Ah", "Ad", "As", "5c", "2h"}, // trips
		{"6h", "5d", "4s", "3c", "2h"}, // straight
		{"Ah", "Kh", "9h", "5h", "2h"}, // flush
		{"Ah", "Ad", "As", "9c", "9h"}, // full house
		{"Ah", "Ad", "As", "Ac", "2h"}, // quads
		{"6h", "5h", "4h", "3h", "2h"}, // straight flush
	}
	var prev HandValue
	for i, hs := range hands {
		hv, err := ev.Evaluate(mustCards(t, hs...))
		if err != nil {
			t.Fatalf("evaluate %v: %v", hs, err)
		}
		if i > 0 && ev.Compare(hv, prev) <= 0 {
			t.Fatalf("%v should beat %v", hs, hands[i-1])
		}
		prev = hv
	}
}

func TestHoldemWheelIsLowestStraight(t *testing.T) {
	ev := HoldemEvaluator{}
	wheel, err := ev.Evaluate(mustCards(t, "Ah", "2d", "3s", "4c", "5h"))
	if err != nil {
		t.Fatal(err)
	}
	sixHigh, err := ev.Evaluate(mustCards(t, "2h", "3d", "4s", "5c", "6h"))
	if err != nil {
		t.Fatal(err)
	}
	if wheel.Score[0] != holdemStraight {
		t.Fatalf("wheel should be a straight, got %s", wheel.Description)
	}
	if ev.Compare(sixHigh, wheel) <= 0 {
		t.Fatalf("6-high straight should beat the wheel")
	}
}

func TestHoldemBestOfSeven(t *testing.T) {
	ev := HoldemEvaluator{}
	seven := mustCards(t, "Ah", "Kh", "Qh", "Jh", "Th", "2c", "2d")
	hv, err := ev.Evaluate(seven)
	if err != nil {
		t.Fatal(err)
	}
	if hv.Score[0] != holdemStraightFlush {
		t.Fatalf("expected a straight flush from 7 cards, got %s", hv.Description)
	}
}

func TestLowballNumberOneIsBest(t *testing.T) {
	ev := LowballEvaluator{}
	numberOne, err := ev.Evaluate(mustCards(t, "7h", "5d", "4s", "3c", "2h"))
	if err != nil {
		t.Fatal(err)
	}
	others := [][]string{
		{"7h", "6d", "4s", "3c", "2h"}, // 7-6 low
		{"8h", "5d", "4s", "3c", "2h"}, // 8 low
		{"Ah", "Kd", "9s", "5c", "2h"}, // ace-high
		{"2h", "2d", "4s", "5c", "7h"}, // a pair
		{"6h", "5d", "4s", "3c", "2h"}, // a straight
		{"7h", "5h", "4h", "3h", "2h"}, // a flush
	}
	for _, hs := range others {
		hv, err := ev.Evaluate(mustCards(t, hs...))
		if err != nil {
			t.Fatalf("evaluate %v: %v", hs, err)
		}
		if ev.Compare(numberOne, hv) <= 0 {
			t.Fatalf("7-5-4-3-2 should beat %v (%s)", hs, hv.Description)
		}
	}
}

// In deuce-to-seven the ace always plays high, so A-2-3-4-5 is an
// ace-high straight and loses to any unpaired no-straight hand.
func TestLowballWheelIsAceHighStraight(t *testing.T) {
	ev := LowballEvaluator{}
	wheel, err := ev.Evaluate(mustCards(t, "Ah", "2d", "3s", "4c", "5h"))
	if err != nil {
		t.Fatal(err)
	}
	junk, err := ev.Evaluate(mustCards(t, "Kh", "Qd", "Js", "9c", "8h"))
	if err != nil {
		t.Fatal(err)
	}
	if wheel.Score[0] != lowballStraight {
		t.Fatalf("lowball wheel should count as a straight, got %s", wheel.Description)
	}
	if ev.Compare(junk, wheel) <= 0 {
		t.Fatalf("king-high junk should beat the A-5 straight in lowball")
	}
}

func TestLowballPairsRankedLow(t *testing.T) {
	ev := LowballEvaluator{}
	deuces, err := ev.Evaluate(mustCards(t, "2h", "2d", "3s", "4c", "5h"))
	if err != nil {
		t.Fatal(err)
	}
	aces, err := ev.Evaluate(mustCards(t, "Ah", "Ad", "3s", "4c", "5h"))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Compare(deuces, aces) <= 0 {
		t.Fatalf("a pair of deuces should beat a pair of aces in lowball")
	}
}

func TestLowballRequiresExactlyFive(t *testing.T) {
	ev := LowballEvaluator{}
	if _, err := ev.Evaluate(mustCards(t, "7h", "5d", "4s", "3c")); err == nil {
		t.Fatal("expected error for a 4-card lowball hand")
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	ev := HoldemEvaluator{}
	a, _ := ev.Evaluate(mustCards(t, "Ah", "Ad", "9s", "5c", "2h"))
	b, _ := ev.Evaluate(mustCards(t, "Kh", "Kd", "9s", "5c", "2h"))
	if ev.Compare(a, b) != 1 || ev.Compare(b, a) != -1 {
		t.Fatalf("compare not antisymmetric: %d vs %d", ev.Compare(a, b), ev.Compare(b, a))
	}
	if ev.Compare(a, a) != 0 {
		t.Fatalf("hand should tie itself")
	}
}
