package engine

import "felt/card"

// variantSpec is the per-variant strategy record: phase sequence, dealing
// shape, and evaluator. No deeper polymorphism than this table.
type variantSpec struct {
	CardsPerHand int
	HasCommunity bool
	HasDraw      bool

	// Ordered betting/draw phases between DEAL and SHOWDOWN.
	Phases []Phase

	// Community cards dealt when a betting phase opens (Hold'em).
	CommunityDeals map[Phase]int

	// Phases using the big bet increment under fixed-limit.
	BigBetPhases map[Phase]bool

	Eval Evaluator
}

var variantSpecs = map[Variant]variantSpec{
	VariantTripleDraw: {
		CardsPerHand: 5,
		HasDraw:      true,
		Phases: []Phase{
			PhaseBetting1, PhaseDraw1, PhaseBetting2, PhaseDraw2,
			PhaseBetting3, PhaseDraw3, PhaseBetting4,
		},
		BigBetPhases: map[Phase]bool{PhaseBetting3: true, PhaseBetting4: true},
		Eval:         LowballEvaluator{},
	},
	VariantSingleDraw: {
		CardsPerHand: 5,
		HasDraw:      true,
		Phases:       []Phase{PhaseBetting1, PhaseDraw1, PhaseBetting2},
		BigBetPhases: map[Phase]bool{PhaseBetting2: true},
		Eval:         LowballEvaluator{},
	},
	VariantHoldem: {
		CardsPerHand: 2,
		HasCommunity: true,
		Phases: []Phase{
			PhaseBettingPreflop, PhaseBettingFlop, PhaseBettingTurn, PhaseBettingRiver,
		},
		CommunityDeals: map[Phase]int{
			PhaseBettingFlop: 3, PhaseBettingTurn: 1, PhaseBettingRiver: 1,
		},
		BigBetPhases: map[Phase]bool{PhaseBettingTurn: true, PhaseBettingRiver: true},
		Eval:         HoldemEvaluator{},
	},
}

func (t *Table) variant() variantSpec {
	return variantSpecs[t.Config.Variant]
}

// nextPhase returns the phase after p in the variant sequence, or
// PhaseShowdown past the end.
func (v variantSpec) nextPhase(p Phase) Phase {
	for i, ph := range v.Phases {
		if ph == p {
			if i+1 < len(v.Phases) {
				return v.Phases[i+1]
			}
			return PhaseShowdown
		}
	}
	return PhaseShowdown
}

// evalSeat evaluates a contender's full holding for this table's variant.
func (t *Table) evalSeat(s *Seat) (HandValue, error) {
	v := t.variant()
	if v.HasCommunity {
		cards := make([]card.Card, 0, len(s.Hand)+len(t.CommunityCards))
		cards = append(cards, s.Hand...)
		cards = append(cards, t.CommunityCards...)
		return v.Eval.Evaluate(cards)
	}
	return v.Eval.Evaluate(s.Hand)
}
