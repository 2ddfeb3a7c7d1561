package engine

import (
	"math/rand/v2"
	"time"

	"felt/card"
)

// startHand deals a new hand: seat reset, button movement, shuffle, hole
// cards, blinds, and the opening turn.
func (t *Table) startHand(now time.Time, rng *rand.Rand) error {
	if t.seatsWithChips() < 2 {
		return Errf(KindIllegalAction, "need at least 2 seats with chips")
	}

	for _, s := range t.Seats {
		if s == nil {
			continue
		}
		s.Hand = nil
		s.HandRevealed = false
		s.CurrentRoundBet = 0
		s.TotalContribution = 0
		s.LastAction = ""
		s.ActedInRound = false
		s.CutCard = card.Invalid
		switch {
		case s.Status == SeatEliminated:
		case s.PendingSitOut:
			s.Status = SeatSittingOut
			s.PendingSitOut = false
		case s.Chips <= 0:
			s.Status = SeatSittingOut
		case s.Status == SeatSittingOut && !s.JoinedMidHand:
			// Stays out until it asks back in.
		default:
			s.Status = SeatActive
		}
		s.JoinedMidHand = false
	}

	t.HandNumber++
	t.Pot = 0
	t.CurrentBet = 0
	t.SidePots = nil
	t.CommunityCards = nil
	t.ShowBluffDeadline = 0
	t.PreActions = nil

	participants := 0
	for _, s := range t.Seats {
		if s != nil && s.Status == SeatActive {
			participants++
		}
	}

	// The cut ceremony seats the first button; afterwards it rotates.
	if t.HandNumber > 1 || t.DealerSeat == NoSeat {
		t.rotateButton()
	}
	t.deriveBlindSeats(participants)

	t.Deck = NewShuffledDeck(rng)
	if err := t.dealHoleCards(rng); err != nil {
		return err
	}
	t.postBlinds()

	t.Phase = t.variant().Phases[0]
	first := t.firstToAct(true)
	if first == nil {
		// Blinds put everyone all-in; run the hand out.
		return t.runOutAndShowdown(now, rng)
	}
	return t.openTurn(first.Index, now, rng)
}

// dealHoleCards deals one card at a time around the table starting left of
// the dealer, the way a live dealer pitches them.
func (t *Table) dealHoleCards(rng *rand.Rand) error {
	per := t.variant().CardsPerHand
	order := t.dealOrder()
	for round := 0; round < per; round++ {
		for _, s := range order {
			c, err := t.Deck.DealOne(rng)
			if err != nil {
				return err
			}
			s.Hand = append(s.Hand, c)
		}
	}
	return nil
}

func (t *Table) dealOrder() []*Seat {
	var order []*Seat
	n := len(t.Seats)
	for step := 1; step <= n; step++ {
		s := t.Seats[(int(t.DealerSeat)+step)%n]
		if s != nil && s.Status == SeatActive {
			order = append(order, s)
		}
	}
	return order
}

// firstToAct returns the opening actor of a betting round: after the big
// blind on the first round (which is the dealer heads-up), after the
// dealer on every later one.
func (t *Table) firstToAct(opening bool) *Seat {
	from := int(t.DealerSeat)
	if opening {
		from = int(t.BigBlindSeat)
	}
	return t.nextSeat(from, canAct)
}

// openTurn hands the action to seatIdx, starts its clock, and consumes any
// queued pre-action.
func (t *Table) openTurn(seatIdx int, now time.Time, rng *rand.Rand) error {
	t.ActiveSeat = SeatRef(seatIdx)
	t.TurnDeadline = ToMillis(now.Add(time.Duration(t.Config.TurnTimeMS) * time.Millisecond))
	return t.runPreAction(seatIdx, now, rng)
}

// advancePhase moves from a just-closed betting round to the next phase.
func (t *Table) advancePhase(now time.Time, rng *rand.Rand) error {
	// With at most one seat able to act there is no further action; run
	// the remaining board out and show down.
	actors := 0
	for _, s := range t.Seats {
		if s != nil && canAct(s) {
			actors++
		}
	}
	if actors <= 1 && len(t.Contenders()) > 1 {
		return t.runOutAndShowdown(now, rng)
	}

	next := t.variant().nextPhase(t.Phase)
	if next == PhaseShowdown {
		return t.showdown(now)
	}
	t.Phase = next

	if n := t.variant().CommunityDeals[next]; n > 0 {
		cards, err := t.Deck.DealMany(n, rng)
		if err != nil {
			return t.abortHand(now, err)
		}
		t.CommunityCards = append(t.CommunityCards, cards...)
	}

	if next.IsDraw() {
		first := t.nextSeat(int(t.DealerSeat), func(s *Seat) bool { return canAct(s) && !s.ActedInRound })
		if first == nil {
			return t.advancePhase(now, rng)
		}
		return t.openDrawTurn(first.Index, now)
	}

	first := t.firstToAct(false)
	if first == nil {
		return t.advancePhase(now, rng)
	}
	return t.openTurn(first.Index, now, rng)
}

func (t *Table) openDrawTurn(seatIdx int, now time.Time) error {
	t.ActiveSeat = SeatRef(seatIdx)
	t.TurnDeadline = ToMillis(now.Add(time.Duration(t.Config.TurnTimeMS) * time.Millisecond))
	return nil
}

// applyDraw exchanges the chosen cards for the acting seat. An empty
// index list stands pat.
func (t *Table) applyDraw(seatIdx int, indices []int, now time.Time, rng *rand.Rand) error {
	if !t.Phase.IsDraw() {
		return Errf(KindIllegalAction, "phase %s is not a draw phase", t.Phase)
	}
	if t.ActiveSeat != SeatRef(seatIdx) {
		return Errf(KindIllegalAction, "seat %d is not drawing", seatIdx)
	}
	s := t.Seat(seatIdx)
	if s == nil || s.Status != SeatActive {
		return Errf(KindIllegalAction, "seat %d cannot draw", seatIdx)
	}
	if len(indices) > len(s.Hand) {
		return Errf(KindInvalidInput, "cannot discard %d of %d cards", len(indices), len(s.Hand))
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(s.Hand) || seen[idx] {
			return Errf(KindInvalidInput, "bad discard index %d", idx)
		}
		seen[idx] = true
	}

	if len(indices) == 0 {
		s.LastAction = ActionStandPat
	} else {
		discarded := make([]card.Card, 0, len(indices))
		kept := make([]card.Card, 0, len(s.Hand)-len(indices))
		for i, c := range s.Hand {
			if seen[i] {
				discarded = append(discarded, c)
			} else {
				kept = append(kept, c)
			}
		}
		t.Deck.ReturnToDiscards(discarded)
		replacements, err := t.Deck.DealMany(len(indices), rng)
		if err != nil {
			return t.abortHand(now, err)
		}
		s.Hand = append(kept, replacements...)
		s.LastAction = ActionDraw
	}
	s.ActedInRound = true

	next := t.nextSeat(seatIdx, func(n *Seat) bool { return canAct(n) && !n.ActedInRound })
	if next == nil {
		for _, n := range t.Seats {
			if n != nil {
				n.ActedInRound = false
			}
		}
		t.ActiveSeat = NoSeat
		t.TurnDeadline = 0
		return t.advancePhase(now, rng)
	}
	return t.openDrawTurn(next.Index, now)
}

// runOutAndShowdown deals any remaining community cards and shows down.
// Draw-variant seats that are all-in stand pat; no further draws occur.
func (t *Table) runOutAndShowdown(now time.Time, rng *rand.Rand) error {
	v := t.variant()
	if v.HasCommunity {
		missing := 5 - len(t.CommunityCards)
		if missing > 0 {
			cards, err := t.Deck.DealMany(missing, rng)
			if err != nil {
				return t.abortHand(now, err)
			}
			t.CommunityCards = append(t.CommunityCards, cards...)
		}
	}
	return t.showdown(now)
}

// showdown materializes side pots, awards them, reveals per the table
// rules, and records the hand.
func (t *Table) showdown(now time.Time) error {
	t.Phase = PhaseShowdown
	t.ActiveSeat = NoSeat
	t.TurnDeadline = 0
	t.PreActions = nil

	contenders := t.Contenders()
	values := make(map[int]HandValue, len(contenders))
	allAllIn := true
	for _, s := range contenders {
		hv, err := t.evalSeat(s)
		if err != nil {
			return err
		}
		values[s.Index] = hv
		if s.Status != SeatAllIn {
			allAllIn = false
		}
	}

	pots := t.buildSidePots()
	winners := t.awardPots(pots, values)
	t.SidePots = pots

	// Winners are revealed; an all-in showdown force-reveals everyone.
	revealed := make(map[int]bool)
	for _, w := range winners {
		revealed[w.Seat] = true
	}
	for _, s := range contenders {
		if allAllIn || revealed[s.Index] {
			s.HandRevealed = true
		}
	}

	t.finishHand(now, "showdown", winners)
	return nil
}

// resolveUncontested ends the hand when all but one seat folded. The
// winner's cards stay hidden; a short reveal window opens during which
// the winner may show the bluff, and startNextHand waits it out.
func (t *Table) resolveUncontested(now time.Time) error {
	contenders := t.Contenders()
	if len(contenders) != 1 {
		return Errf(KindIllegalAction, "hand is still contested")
	}
	winner := contenders[0]
	winner.Chips += t.Pot

	t.Phase = PhaseShowdown
	t.ActiveSeat = NoSeat
	t.TurnDeadline = 0
	t.PreActions = nil
	t.SidePots = nil
	t.ShowBluffDeadline = ToMillis(now.Add(ShowBluffWindowMS * time.Millisecond))

	entry := WinnerEntry{Seat: winner.Index, UID: winner.UID, Amount: t.Pot}
	t.finishHand(now, "fold", []WinnerEntry{entry})
	return nil
}

// finishHand zeroes the ledger, records the summary, and runs tournament
// bookkeeping. Elimination ordering needs totalContribution, so it runs
// before the ledger reset.
func (t *Table) finishHand(now time.Time, endedBy string, winners []WinnerEntry) {
	pot := t.Pot
	t.processEliminations(now)

	for _, s := range t.Seats {
		if s == nil {
			continue
		}
		s.CurrentRoundBet = 0
		s.TotalContribution = 0
	}
	t.Pot = 0
	t.CurrentBet = 0
	t.LastRaiseSize = 0

	t.appendHistory(HandSummary{
		HandNumber: t.HandNumber,
		Variant:    t.Config.Variant,
		Pot:        pot,
		EndedBy:    endedBy,
		Winners:    winners,
		EndedAt:    ToMillis(now),
	})
}

// abortHand unwinds a hand that cannot continue (deck underflow): every
// seat gets its contributions back and the table returns to IDLE. The
// aborted state commits; the triggering error is still surfaced.
func (t *Table) abortHand(now time.Time, cause error) error {
	for _, s := range t.Seats {
		if s == nil {
			continue
		}
		s.Chips += s.TotalContribution
		s.TotalContribution = 0
		s.CurrentRoundBet = 0
		s.Hand = nil
		s.ActedInRound = false
		if s.Status == SeatFolded || s.Status == SeatAllIn {
			s.Status = SeatActive
		}
	}
	t.Pot = 0
	t.CurrentBet = 0
	t.SidePots = nil
	t.CommunityCards = nil
	t.ActiveSeat = NoSeat
	t.TurnDeadline = 0
	t.ShowBluffDeadline = 0
	t.PreActions = nil
	t.Phase = PhaseIdle

	t.appendHistory(HandSummary{
		HandNumber: t.HandNumber,
		Variant:    t.Config.Variant,
		EndedBy:    "abort",
		EndedAt:    ToMillis(now),
	})
	return cause
}

// applyStartNextHand leaves SHOWDOWN once the reveal window allows it.
// The uncontested winner may cut the window short; anyone else waits.
func (t *Table) applyStartNextHand(callerUID string, now time.Time, rng *rand.Rand) error {
	if t.Phase != PhaseShowdown {
		return Errf(KindIllegalAction, "phase %s is not SHOWDOWN", t.Phase)
	}
	if !t.ShowBluffDeadline.IsZero() && now.UnixMilli() < int64(t.ShowBluffDeadline) {
		if !t.isLastHandWinner(callerUID) {
			return Errf(KindIllegalAction, "reveal window still open")
		}
	}
	t.ShowBluffDeadline = 0
	for _, s := range t.Seats {
		if s != nil {
			s.Hand = nil
			s.HandRevealed = false
			s.LastAction = ""
		}
	}
	t.SidePots = nil
	t.CommunityCards = nil
	t.Phase = PhaseIdle

	if t.Tournament != nil && t.Tournament.State == TournamentRunning {
		return t.startHand(now, rng)
	}
	return nil
}

func (t *Table) isLastHandWinner(uid string) bool {
	if len(t.History) == 0 {
		return false
	}
	last := t.History[len(t.History)-1]
	for _, w := range last.Winners {
		if w.UID == uid {
			return true
		}
	}
	return false
}

// applyRevealHand shows a contender's cards at showdown. For an
// uncontested winner this also waives the remaining reveal window.
func (t *Table) applyRevealHand(seatIdx int) error {
	if t.Phase != PhaseShowdown {
		return Errf(KindIllegalAction, "phase %s is not SHOWDOWN", t.Phase)
	}
	s := t.Seat(seatIdx)
	if s == nil || len(s.Hand) == 0 || !inHand(s) {
		return Errf(KindIllegalAction, "seat %d has no hand to reveal", seatIdx)
	}
	s.HandRevealed = true
	if !t.ShowBluffDeadline.IsZero() && t.isLastHandWinner(s.UID) {
		t.ShowBluffDeadline = 0
	}
	return nil
}
