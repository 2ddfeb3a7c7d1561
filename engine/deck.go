package engine

import (
	"math/rand/v2"

	"felt/card"
)

// Deck is the persisted dealing state of a hand: the ordered live stack and
// the discard set. Cards already dealt appear in neither; the union of
// live, discards and dealt cards is always the full 52.
type Deck struct {
	Live     []card.Card `json:"live"`
	Discards []card.Card `json:"discards,omitempty"`
}

// NewShuffledDeck builds a full 52-card deck in uniformly random order.
func NewShuffledDeck(rng *rand.Rand) Deck {
	cards := card.Deck()
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return Deck{Live: cards}
}

// DealOne pops the top live card.
func (d *Deck) DealOne(rng *rand.Rand) (card.Card, error) {
	cards, err := d.DealMany(1, rng)
	if err != nil {
		return card.Invalid, err
	}
	return cards[0], nil
}

// DealMany pops n cards, reshuffling discards in first if the live stack
// would underflow.
func (d *Deck) DealMany(n int, rng *rand.Rand) ([]card.Card, error) {
	if n < 0 {
		return nil, Errf(KindInvalidInput, "cannot deal %d cards", n)
	}
	d.reshuffleDiscardsIfNeeded(n, rng)
	if len(d.Live) < n {
		return nil, ErrDeckUnderflow
	}
	out := d.Live[:n:n]
	d.Live = d.Live[n:]
	return out, nil
}

// ReturnToDiscards moves cards a seat threw away into the discard set.
func (d *Deck) ReturnToDiscards(cards []card.Card) {
	d.Discards = append(d.Discards, cards...)
}

// reshuffleDiscardsIfNeeded folds the discards back under the live tail
// when fewer than need cards remain. Only the recycled portion is
// shuffled; the pre-existing live tail keeps its order so partial draws
// within one turn stay deterministic.
func (d *Deck) reshuffleDiscardsIfNeeded(need int, rng *rand.Rand) {
	if len(d.Live) >= need || len(d.Discards) == 0 {
		return
	}
	recycled := d.Discards
	d.Discards = nil
	rng.Shuffle(len(recycled), func(i, j int) { recycled[i], recycled[j] = recycled[j], recycled[i] })
	d.Live = append(d.Live, recycled...)
}
