package engine

import (
	"math/rand/v2"
	"time"
)

// applyTimeout force-acts the seat whose clock ran out: check when free,
// fold otherwise, stand pat on draws. Competing timeout intents for a
// turn that already moved are no-ops, so every watcher may fire one.
func (t *Table) applyTimeout(now time.Time, rng *rand.Rand) error {
	if t.ActiveSeat == NoSeat || t.TurnDeadline.IsZero() {
		return nil
	}
	if now.UnixMilli() < int64(t.TurnDeadline) {
		// Early, or a straggler firing at a turn that already moved
		// and re-armed the clock. Either way nothing to do.
		return nil
	}
	seatIdx := int(t.ActiveSeat)

	if t.Phase.IsDraw() {
		return t.applyDraw(seatIdx, nil, now, rng)
	}

	la, err := t.LegalActionsFor(seatIdx)
	if err != nil {
		return err
	}
	if la.CallAmount == 0 {
		return t.applyBetAction(seatIdx, ActionCheck, 0, now, rng)
	}
	return t.applyBetAction(seatIdx, ActionFold, 0, now, rng)
}
