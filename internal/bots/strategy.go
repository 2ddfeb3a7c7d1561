// Package bots drives house bot seats through ordinary intents. The
// decision policy sits behind Strategy so a smarter external policy can
// replace the built-in rules without touching the driver.
package bots

import (
	"sort"

	"felt/engine"
)

// Decision is one betting-round choice.
type Decision struct {
	Action engine.ActionType
	Amount int64
}

type Strategy interface {
	// DecideBet picks an action from the legal set for the bot's turn.
	DecideBet(t *engine.Table, seatIdx int, la engine.LegalActions) Decision

	// DecideDiscard returns hand indices to throw away on a draw turn.
	// An empty slice stands pat.
	DecideDiscard(t *engine.Table, seatIdx int) []int
}

// Conservative checks when free, calls cheap prices, and never raises.
// Good enough to keep tables moving; not good enough to win money.
type Conservative struct{}

func (Conservative) DecideBet(t *engine.Table, seatIdx int, la engine.LegalActions) Decision {
	if la.Has(engine.ActionCheck) {
		return Decision{Action: engine.ActionCheck}
	}
	s := t.Seat(seatIdx)
	if s == nil || !la.Has(engine.ActionCall) {
		return Decision{Action: engine.ActionFold}
	}

	cheap := t.Config.BigBlind * 4
	if quarter := s.Chips / 4; quarter > cheap {
		cheap = quarter
	}
	if la.CallAmount <= cheap {
		return Decision{Action: engine.ActionCall}
	}
	return Decision{Action: engine.ActionFold}
}

// DecideDiscard keeps low unpaired cards for deuce-to-seven and throws
// pairs and high ranks, at most three cards per draw.
func (Conservative) DecideDiscard(t *engine.Table, seatIdx int) []int {
	s := t.Seat(seatIdx)
	if s == nil {
		return nil
	}

	type scored struct {
		index int
		rank  byte
	}
	seen := make(map[byte]bool, len(s.Hand))
	var bad []scored
	for i, c := range s.Hand {
		r := c.Rank()
		// Aces play high in deuce-to-seven; nines and up rarely make
		// a winning low.
		if seen[r] || r >= 9 {
			bad = append(bad, scored{index: i, rank: r})
			continue
		}
		seen[r] = true
	}
	// Throw the worst cards first.
	sort.Slice(bad, func(i, j int) bool { return bad[i].rank > bad[j].rank })
	if len(bad) > 3 {
		bad = bad[:3]
	}
	out := make([]int, 0, len(bad))
	for _, b := range bad {
		out = append(out, b.index)
	}
	sort.Ints(out)
	return out
}
