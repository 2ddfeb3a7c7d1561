package engine

import (
	"math/rand/v2"
	"time"
)

// LegalActions is the pure projection of what the acting seat may do.
type LegalActions struct {
	Actions    []ActionType `json:"actions"`
	CallAmount int64        `json:"callAmount"`
	MinRaiseTo int64        `json:"minRaiseTo"`
	MaxRaiseTo int64        `json:"maxRaiseTo"`
}

func (la LegalActions) Has(a ActionType) bool {
	for _, x := range la.Actions {
		if x == a {
			return true
		}
	}
	return false
}

// LegalActionsFor computes the action set for a seat in the current
// betting phase. Raise amounts are "raise to" totals for the round.
func (t *Table) LegalActionsFor(seatIdx int) (LegalActions, error) {
	s := t.Seat(seatIdx)
	if s == nil {
		return LegalActions{}, Errf(KindInvalidInput, "no seat %d", seatIdx)
	}
	if !t.Phase.IsBetting() || t.ActiveSeat != SeatRef(seatIdx) {
		return LegalActions{}, Errf(KindIllegalAction, "seat %d is not acting", seatIdx)
	}
	if s.Status != SeatActive {
		return LegalActions{}, Errf(KindIllegalAction, "seat %d cannot act (%s)", seatIdx, s.Status)
	}

	la := LegalActions{
		CallAmount: maxInt64(0, t.CurrentBet-s.CurrentRoundBet),
	}
	la.Actions = append(la.Actions, ActionFold)
	if la.CallAmount == 0 {
		la.Actions = append(la.Actions, ActionCheck)
	} else {
		la.Actions = append(la.Actions, ActionCall)
	}

	la.MinRaiseTo = t.CurrentBet + t.LastRaiseSize
	la.MaxRaiseTo = t.maxRaiseTo(s, la.CallAmount)

	canRaise := s.Chips > la.CallAmount &&
		s.CurrentRoundBet+s.Chips >= la.MinRaiseTo &&
		la.MaxRaiseTo >= la.MinRaiseTo
	if t.Config.BettingType == FixedLimit && t.RaisesThisRound >= FixedLimitRaiseCap {
		canRaise = false
	}
	// A short all-in moved the price without re-opening: seats that
	// already acted may only call the difference.
	if s.ActedInRound {
		canRaise = false
	}
	if canRaise {
		if t.CurrentBet == 0 {
			la.Actions = append(la.Actions, ActionBet)
		} else {
			la.Actions = append(la.Actions, ActionRaise)
		}
	}
	if s.Chips > 0 {
		la.Actions = append(la.Actions, ActionAllIn)
	}
	return la, nil
}

// maxRaiseTo is the largest legal raise-to total under the table's
// betting structure, before all-in clamping.
func (t *Table) maxRaiseTo(s *Seat, callAmount int64) int64 {
	allInTo := s.CurrentRoundBet + s.Chips
	switch t.Config.BettingType {
	case PotLimit:
		// Pot after the hypothetical call, added on top of the call.
		m := t.CurrentBet + t.Pot + callAmount
		return minInt64(m, allInTo)
	case FixedLimit:
		m := t.CurrentBet + t.fixedBetIncrement()
		return minInt64(m, allInTo)
	default:
		return allInTo
	}
}

// fixedBetIncrement is the per-phase raise size under fixed-limit: the big
// blind on early streets, doubled on later ones.
func (t *Table) fixedBetIncrement() int64 {
	_, bb := t.EffectiveBlinds()
	if t.variant().BigBetPhases[t.Phase] {
		return bb * 2
	}
	return bb
}

// applyBetAction validates and applies one betting action, then advances
// the turn or the phase. amount is the raise-to total and is ignored for
// FOLD/CHECK/CALL/ALL_IN.
func (t *Table) applyBetAction(seatIdx int, action ActionType, amount int64, now time.Time, rng *rand.Rand) error {
	la, err := t.LegalActionsFor(seatIdx)
	if err != nil {
		return err
	}
	s := t.Seat(seatIdx)

	if !la.Has(action) {
		return Errf(KindIllegalAction, "action %s not legal for seat %d", action, seatIdx)
	}

	priorBet := t.CurrentBet

	switch action {
	case ActionFold:
		s.Status = SeatFolded
		s.Hand = nil

	case ActionCheck:
		// no chips move

	case ActionCall:
		t.commitChips(s, la.CallAmount, true)

	case ActionBet, ActionRaise:
		if t.Config.BettingType == FixedLimit {
			// Fixed-limit ignores the client amount; the increment is preset.
			amount = t.CurrentBet + t.fixedBetIncrement()
		}
		if amount <= t.CurrentBet {
			return Errf(KindInvalidInput, "raise to %d does not exceed current bet %d", amount, t.CurrentBet)
		}
		if amount < la.MinRaiseTo {
			return Errf(KindIllegalAction, "raise to %d below minimum %d", amount, la.MinRaiseTo)
		}
		if amount > la.MaxRaiseTo {
			return Errf(KindIllegalAction, "raise to %d above maximum %d", amount, la.MaxRaiseTo)
		}
		needed := amount - s.CurrentRoundBet
		if needed > s.Chips {
			return Errf(KindInsufficientChips, "need %d chips, have %d", needed, s.Chips)
		}
		t.commitChips(s, needed, true)
		t.registerRaise(s, amount)

	case ActionAllIn:
		allInTo := s.CurrentRoundBet + s.Chips
		t.commitChips(s, s.Chips, true)
		if allInTo > t.CurrentBet {
			raiseDelta := allInTo - t.CurrentBet
			if raiseDelta >= t.LastRaiseSize {
				t.registerRaise(s, allInTo)
			} else {
				// Short all-in: price moves but action does not re-open for
				// seats that already acted at the prior bet level.
				t.CurrentBet = allInTo
			}
		}
	}

	s.LastAction = action
	s.ActedInRound = true
	t.clearPreAction(seatIdx)

	if t.CurrentBet != priorBet {
		t.invalidatePreActionsOnPriceChange()
	}

	// Uncontested: everyone else folded.
	if len(t.Contenders()) == 1 {
		return t.resolveUncontested(now)
	}

	if t.bettingRoundComplete() {
		return t.endBettingRound(now, rng)
	}

	next := t.nextSeat(seatIdx, func(n *Seat) bool {
		return canAct(n) && !(n.ActedInRound && n.CurrentRoundBet == t.CurrentBet)
	})
	if next == nil {
		return t.endBettingRound(now, rng)
	}
	return t.openTurn(next.Index, now, rng)
}

// registerRaise applies a full raise: the bet level moves and action
// re-opens for every other seat still able to act.
func (t *Table) registerRaise(raiser *Seat, raiseTo int64) {
	t.LastRaiseSize = raiseTo - t.CurrentBet
	t.CurrentBet = raiseTo
	t.RaisesThisRound++
	for _, s := range t.Seats {
		if s == nil || s.Index == raiser.Index {
			continue
		}
		if canAct(s) {
			s.ActedInRound = false
		}
	}
}

// bettingRoundComplete holds when every seat still able to act has matched
// the current bet and has acted since the last full raise. With at most
// one such seat left there is nothing to wait for once it has matched.
func (t *Table) bettingRoundComplete() bool {
	actors := 0
	for _, s := range t.Seats {
		if s == nil || !canAct(s) {
			continue
		}
		actors++
	}
	for _, s := range t.Seats {
		if s == nil || !canAct(s) {
			continue
		}
		if s.CurrentRoundBet != t.CurrentBet {
			return false
		}
		if actors > 1 && !s.ActedInRound {
			return false
		}
	}
	return true
}

// endBettingRound rolls round bets into the pot records and hands control
// to the lifecycle for the next phase.
func (t *Table) endBettingRound(now time.Time, rng *rand.Rand) error {
	_, bb := t.EffectiveBlinds()
	for _, s := range t.Seats {
		if s == nil {
			continue
		}
		s.CurrentRoundBet = 0
		s.ActedInRound = false
	}
	t.CurrentBet = 0
	t.LastRaiseSize = bb
	t.RaisesThisRound = 0
	t.ActiveSeat = NoSeat
	t.TurnDeadline = 0
	return t.advancePhase(now, rng)
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
