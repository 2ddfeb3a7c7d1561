package engine

import (
	"math/rand/v2"
	"time"
)

// applySetPreAction queues an action for a seat that is not currently
// acting. The queue holds one entry per seat; a new entry replaces the
// old one.
func (t *Table) applySetPreAction(seatIdx int, pa PreAction) error {
	if !t.Phase.IsBetting() && !t.Phase.IsDraw() {
		return Errf(KindIllegalAction, "no turn to queue against in phase %s", t.Phase)
	}
	if t.ActiveSeat == SeatRef(seatIdx) {
		return Errf(KindIllegalAction, "seat %d is acting; act directly", seatIdx)
	}
	s := t.Seat(seatIdx)
	if s == nil || s.Status != SeatActive {
		return Errf(KindIllegalAction, "seat %d cannot queue actions", seatIdx)
	}
	switch pa.Type {
	case PreActionCheck, PreActionCheckFold, PreActionCallAny, PreActionFold:
	case PreActionCall:
		if pa.Amount <= 0 {
			return Errf(KindInvalidInput, "CALL pre-action needs the amount it matches")
		}
	default:
		return Errf(KindInvalidInput, "unknown pre-action type %q", pa.Type)
	}
	if t.PreActions == nil {
		t.PreActions = make(map[int]*PreAction)
	}
	t.PreActions[seatIdx] = &pa
	s.PreActionNotice = ""
	return nil
}

func (t *Table) applyClearPreAction(seatIdx int) error {
	if s := t.Seat(seatIdx); s == nil {
		return Errf(KindInvalidInput, "no seat %d", seatIdx)
	}
	t.clearPreAction(seatIdx)
	return nil
}

func (t *Table) clearPreAction(seatIdx int) {
	delete(t.PreActions, seatIdx)
}

// invalidatePreActionsOnPriceChange cancels amount-sensitive entries
// after the current bet moved. CHECK and fixed CALL assume a price that
// no longer holds; CHECK_FOLD, CALL_ANY, and FOLD survive as written.
func (t *Table) invalidatePreActionsOnPriceChange() {
	for idx, pa := range t.PreActions {
		s := t.Seat(idx)
		if s == nil || s.Status != SeatActive {
			delete(t.PreActions, idx)
			continue
		}
		switch pa.Type {
		case PreActionCheck, PreActionCall:
			delete(t.PreActions, idx)
			s.PreActionNotice = KindPriceChanged
		}
	}
}

// runPreAction consumes the queued entry for a seat whose turn just
// opened. The entry is removed before the action applies so a failed
// resolution simply leaves the turn with the player. Draw turns never
// consume the queue.
func (t *Table) runPreAction(seatIdx int, now time.Time, rng *rand.Rand) error {
	pa, ok := t.PreActions[seatIdx]
	if !ok || !t.Phase.IsBetting() {
		return nil
	}
	delete(t.PreActions, seatIdx)
	s := t.Seat(seatIdx)

	la, err := t.LegalActionsFor(seatIdx)
	if err != nil {
		return nil
	}

	switch pa.Type {
	case PreActionFold:
		return t.applyBetAction(seatIdx, ActionFold, 0, now, rng)
	case PreActionCheck:
		if la.CallAmount != 0 {
			s.PreActionNotice = KindPriceChanged
			return nil
		}
		return t.applyBetAction(seatIdx, ActionCheck, 0, now, rng)
	case PreActionCheckFold:
		if la.CallAmount == 0 {
			return t.applyBetAction(seatIdx, ActionCheck, 0, now, rng)
		}
		return t.applyBetAction(seatIdx, ActionFold, 0, now, rng)
	case PreActionCall:
		if la.CallAmount != pa.Amount {
			s.PreActionNotice = KindPriceChanged
			return nil
		}
		if la.CallAmount == 0 {
			return t.applyBetAction(seatIdx, ActionCheck, 0, now, rng)
		}
		return t.applyBetAction(seatIdx, ActionCall, 0, now, rng)
	case PreActionCallAny:
		if la.CallAmount == 0 {
			return t.applyBetAction(seatIdx, ActionCheck, 0, now, rng)
		}
		if la.CallAmount >= s.Chips {
			return t.applyBetAction(seatIdx, ActionAllIn, 0, now, rng)
		}
		return t.applyBetAction(seatIdx, ActionCall, 0, now, rng)
	}
	return nil
}
