package engine

import (
	"math/rand/v2"

	"felt/card"
)

// assignSeat fills the lowest-index open seat.
func (t *Table) assignSeat(uid, displayName string, isBot bool, difficulty string, chips int64) (*Seat, error) {
	if t.SeatByUID(uid) != nil {
		return nil, Errf(KindIllegalAction, "uid %s already seated", uid)
	}
	for i := range t.Seats {
		if t.Seats[i] != nil {
			continue
		}
		s := &Seat{
			Index:         i,
			UID:           uid,
			DisplayName:   displayName,
			IsBot:         isBot,
			BotDifficulty: difficulty,
			Chips:         chips,
			Status:        SeatActive,
		}
		t.Seats[i] = s
		return s, nil
	}
	return nil, Errf(KindIllegalAction, "table %s is full", t.ID)
}

// rotateButton advances the dealer button to the next seat that will be
// dealt in. Sitting-out and eliminated seats never hold the button, or
// the heads-up derivation would charge an absent seat the small blind.
func (t *Table) rotateButton() {
	from := int(t.DealerSeat)
	if t.DealerSeat == NoSeat {
		from = len(t.Seats) - 1
	}
	next := t.nextSeat(from, canAct)
	if next != nil {
		t.DealerSeat = SeatRef(next.Index)
	}
}

// deriveBlindSeats sets the small and big blind seats from the dealer.
// Heads-up the dealer posts the small blind.
func (t *Table) deriveBlindSeats(participants int) {
	playable := func(s *Seat) bool { return s.Status == SeatActive }
	if participants == 2 {
		t.SmallBlindSeat = t.DealerSeat
		bb := t.nextSeat(int(t.DealerSeat), playable)
		t.BigBlindSeat = SeatRef(bb.Index)
		return
	}
	sb := t.nextSeat(int(t.DealerSeat), playable)
	t.SmallBlindSeat = SeatRef(sb.Index)
	bb := t.nextSeat(sb.Index, playable)
	t.BigBlindSeat = SeatRef(bb.Index)
}

// postBlinds moves the antes and blinds into the pot and seeds the betting
// round. A short-stacked blind posts what it has and is all-in for the
// hand; currentBet stays at the nominal big blind unless both blinds are
// short, in which case it is the larger posted amount. lastRaiseSize
// always seeds at the nominal big blind.
func (t *Table) postBlinds() {
	sbAmount, bbAmount := t.EffectiveBlinds()

	if t.Config.Ante > 0 {
		for _, s := range t.Seats {
			if s == nil || s.Status != SeatActive {
				continue
			}
			t.commitChips(s, t.Config.Ante, false)
		}
	}

	var sbPosted, bbPosted int64
	if sb := t.Seat(int(t.SmallBlindSeat)); sb != nil {
		sbPosted = t.commitChips(sb, sbAmount, true)
	}
	if bb := t.Seat(int(t.BigBlindSeat)); bb != nil {
		bbPosted = t.commitChips(bb, bbAmount, true)
	}

	t.CurrentBet = bbAmount
	if bbPosted < bbAmount && sbPosted < sbAmount {
		t.CurrentBet = maxInt64(sbPosted, bbPosted)
	}
	t.LastRaiseSize = bbAmount
	t.RaisesThisRound = 0
}

// commitChips moves up to amount chips from the seat into the pot,
// marking the seat all-in when its stack empties. Returns the amount
// actually committed. Antes skip the round bet.
func (t *Table) commitChips(s *Seat, amount int64, toRoundBet bool) int64 {
	if amount > s.Chips {
		amount = s.Chips
	}
	if amount <= 0 {
		return 0
	}
	s.Chips -= amount
	s.TotalContribution += amount
	if toRoundBet {
		s.CurrentRoundBet += amount
	}
	t.Pot += amount
	if s.Chips == 0 && s.Status == SeatActive {
		s.Status = SeatAllIn
	}
	return amount
}

// dealCutCards runs the one-time cut-for-dealer ceremony from a scratch
// deck; the cards never touch the hand deck.
func (t *Table) dealCutCards(rng *rand.Rand) error {
	scratch := NewShuffledDeck(rng)
	for _, s := range t.Seats {
		if s == nil || !canAct(s) {
			continue
		}
		c, err := scratch.DealOne(rng)
		if err != nil {
			return err
		}
		s.CutCard = c
	}
	t.Phase = PhaseCutForDealer
	return nil
}

// resolveCutWinner picks the high cut card, ties broken by suit priority
// Spades > Hearts > Diamonds > Clubs.
func (t *Table) resolveCutWinner() *Seat {
	var winner *Seat
	for _, s := range t.Seats {
		if s == nil || s.CutCard == card.Invalid {
			continue
		}
		if winner == nil || cutBeats(s.CutCard, winner.CutCard) {
			winner = s
		}
	}
	return winner
}

func cutBeats(a, b card.Card) bool {
	if a.Rank() != b.Rank() {
		return a.Rank() > b.Rank()
	}
	return a.Suit() > b.Suit()
}
