package engine

import (
	"testing"

	"felt/card"
)

func TestNewShuffledDeckHas52DistinctCards(t *testing.T) {
	d := NewShuffledDeck(testRand(1))
	if len(d.Live) != 52 {
		t.Fatalf("expected 52 live cards, got %d", len(d.Live))
	}
	seen := make(map[card.Card]bool)
	for _, c := range d.Live {
		if !c.Valid() {
			t.Fatalf("invalid card %v in shuffled deck", c)
		}
		if seen[c] {
			t.Fatalf("duplicate card %s", c)
		}
		seen[c] = true
	}
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	a := NewShuffledDeck(testRand(7))
	b := NewShuffledDeck(testRand(7))
	for i := range a.Live {
		if a.Live[i] != b.Live[i] {
			t.Fatalf("same seed produced different shuffles at index %d", i)
		}
	}
	c := NewShuffledDeck(testRand(8))
	same := true
	for i := range a.Live {
		if a.Live[i] != c.Live[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different hand numbers produced identical shuffles")
	}
}

func TestTransitionVersionSeparatesShuffles(t *testing.T) {
	// Two transitions in the same hand (the cut ceremony and the deal
	// that follows it, or a mid-hand reshuffle and the next hand's
	// shuffle) must never draw from the same permutation, or publicly
	// revealed cards would predict concealed ones.
	nonce := []byte("fixed-test-nonce")
	a := NewShuffledDeck(HandRand("test-table", 1, 3, nonce))
	b := NewShuffledDeck(HandRand("test-table", 1, 4, nonce))
	same := true
	for i := range a.Live {
		if a.Live[i] != b.Live[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("consecutive document versions produced identical shuffles")
	}
}

func TestDealManyReshufflesDiscards(t *testing.T) {
	rng := testRand(2)
	d := NewShuffledDeck(rng)

	burned, err := d.DealMany(50, rng)
	if err != nil {
		t.Fatalf("deal 50: %v", err)
	}
	d.ReturnToDiscards(burned[:10])

	got, err := d.DealMany(5, rng)
	if err != nil {
		t.Fatalf("deal past live tail should recycle discards: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 cards, got %d", len(got))
	}
	seen := make(map[card.Card]bool)
	for _, c := range got {
		if seen[c] {
			t.Fatalf("duplicate %s after reshuffle", c)
		}
		seen[c] = true
	}
}

func TestDealManyUnderflow(t *testing.T) {
	rng := testRand(3)
	d := NewShuffledDeck(rng)
	if _, err := d.DealMany(50, rng); err != nil {
		t.Fatal(err)
	}
	_, err := d.DealMany(5, rng)
	if err == nil {
		t.Fatal("expected underflow with 2 live and no discards")
	}
	if KindOf(err) != KindDeckUnderflow {
		t.Fatalf("expected DeckUnderflow, got %v", err)
	}
}
