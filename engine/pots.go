package engine

import "sort"

// buildSidePots materializes the pot ledger at hand end. Caps are the
// distinct totalContribution levels across every seat, folded ones
// included; each layer's chips go to the contenders who covered it.
func (t *Table) buildSidePots() []SidePot {
	capSet := make(map[int64]bool)
	for _, s := range t.Seats {
		if s != nil && s.TotalContribution > 0 {
			capSet[s.TotalContribution] = true
		}
	}
	caps := make([]int64, 0, len(capSet))
	for c := range capSet {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })

	var pots []SidePot
	prev := int64(0)
	for _, level := range caps {
		var amount int64
		var eligible []int
		for _, s := range t.Seats {
			if s == nil {
				continue
			}
			amount += minInt64(s.TotalContribution, level) - minInt64(s.TotalContribution, prev)
			if inHand(s) && s.TotalContribution >= level {
				eligible = append(eligible, s.Index)
			}
		}
		prev = level
		if amount == 0 {
			continue
		}
		if len(eligible) == 0 && len(pots) > 0 {
			// Dead layer above every contender; fold it into the last pot.
			pots[len(pots)-1].Amount += amount
			continue
		}
		pots = append(pots, SidePot{Amount: amount, Eligible: eligible})
	}
	return pots
}

// awardPots resolves each pot to the best eligible hand(s) and moves the
// chips. Ties split evenly, odd chips to the first eligible winner
// clockwise from the dealer. Returns the winner ledger for the summary.
func (t *Table) awardPots(pots []SidePot, values map[int]HandValue) []WinnerEntry {
	eval := t.variant().Eval
	var entries []WinnerEntry

	for pi := range pots {
		pot := &pots[pi]
		var winners []int
		for _, idx := range pot.Eligible {
			hv, ok := values[idx]
			if !ok {
				continue
			}
			if len(winners) == 0 {
				winners = []int{idx}
				continue
			}
			switch eval.Compare(hv, values[winners[0]]) {
			case 1:
				winners = []int{idx}
			case 0:
				winners = append(winners, idx)
			}
		}
		if len(winners) == 0 {
			continue
		}
		t.sortClockwiseFromDealer(winners)

		share := pot.Amount / int64(len(winners))
		odd := pot.Amount % int64(len(winners))
		pot.Winners = winners
		pot.WinAmounts = make([]int64, len(winners))
		for i, idx := range winners {
			amt := share
			if i == 0 {
				amt += odd
			}
			pot.WinAmounts[i] = amt
			s := t.Seat(idx)
			s.Chips += amt
			entries = append(entries, WinnerEntry{
				Seat:        idx,
				UID:         s.UID,
				Amount:      amt,
				Description: values[idx].Description,
			})
		}
	}
	return entries
}

// sortClockwiseFromDealer orders seat indices by clockwise distance from
// the seat after the dealer.
func (t *Table) sortClockwiseFromDealer(seats []int) {
	n := len(t.Seats)
	start := (int(t.DealerSeat) + 1) % n
	dist := func(i int) int { return ((i - start) + n) % n }
	sort.Slice(seats, func(a, b int) bool { return dist(seats[a]) < dist(seats[b]) })
}
