package engine

import (
	"fmt"

	"felt/card"
)

// High-hand categories, higher is better.
const (
	holdemHighCard = iota
	holdemPair
	holdemTwoPair
	holdemTrips
	holdemStraight
	holdemFlush
	holdemFullHouse
	holdemQuads
	holdemStraightFlush
)

var holdemCategoryNames = [...]string{
	"High Card", "Pair", "Two Pair", "Three of a Kind", "Straight",
	"Flush", "Full House", "Four of a Kind", "Straight Flush",
}

// HoldemEvaluator ranks the best 5-card high hand out of 5 to 7 cards.
// Higher scores are better.
type HoldemEvaluator struct{}

func (HoldemEvaluator) Evaluate(cards []card.Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandValue{}, Errf(KindInvalidInput, "holdem evaluator needs 5..7 cards, got %d", len(cards))
	}
	var best HandValue
	for _, subset := range fiveCardSubsets(cards) {
		hv := evalHoldemFive(subset)
		if best.Score == nil || compareScores(hv.Score, best.Score) > 0 {
			best = hv
		}
	}
	return best, nil
}

func (HoldemEvaluator) Compare(a, b HandValue) int {
	return compareScores(a.Score, b.Score)
}

func evalHoldemFive(cards []card.Card) HandValue {
	sh := analyzeFive(cards, true)

	var category int
	var tiebreak []int
	switch {
	case sh.straight && sh.flush:
		category = holdemStraightFlush
		tiebreak = []int{int(sh.straightHigh)}
	case sh.groups[0].count == 4:
		category = holdemQuads
		tiebreak = groupedRanks(sh)
	case sh.groups[0].count == 3 && sh.groups[1].count == 2:
		category = holdemFullHouse
		tiebreak = groupedRanks(sh)
	case sh.flush:
		category = holdemFlush
		tiebreak = ranksKey(sh.ranksDesc)
	case sh.straight:
		category = holdemStraight
		tiebreak = []int{int(sh.straightHigh)}
	case sh.groups[0].count == 3:
		category = holdemTrips
		tiebreak = groupedRanks(sh)
	case sh.groups[0].count == 2 && sh.groups[1].count == 2:
		category = holdemTwoPair
		tiebreak = groupedRanks(sh)
	case sh.groups[0].count == 2:
		category = holdemPair
		tiebreak = groupedRanks(sh)
	default:
		category = holdemHighCard
		tiebreak = ranksKey(sh.ranksDesc)
	}

	hv := HandValue{
		Score:      append([]int{category}, tiebreak...),
		Category:   holdemCategoryNames[category],
		Components: append([]card.Card(nil), cards...),
	}
	if category == holdemStraightFlush && sh.straightHigh == card.RankAce {
		hv.Category = "Royal Flush"
	}
	hv.Description = describeHoldem(category, sh, hv.Category)
	return hv
}

// groupedRanks flattens groups into a kicker-ordered tail: group ranks by
// count desc then rank desc, which is exactly the tie-break order.
func groupedRanks(sh shape) []int {
	out := make([]int, 0, len(sh.groups))
	for _, g := range sh.groups {
		out = append(out, int(g.rank))
	}
	return out
}

func ranksKey(ranks []byte) []int {
	out := make([]int, len(ranks))
	for i, r := range ranks {
		out[i] = int(r)
	}
	return out
}

func describeHoldem(category int, sh shape, categoryName string) string {
	switch category {
	case holdemStraightFlush:
		if sh.straightHigh == card.RankAce {
			return "Royal Flush"
		}
		return fmt.Sprintf("Straight Flush, %s high", rankName(sh.straightHigh))
	case holdemQuads:
		return fmt.Sprintf("Four of a Kind, %s", plural(sh.groups[0].rank))
	case holdemFullHouse:
		return fmt.Sprintf("Full House, %s over %s", plural(sh.groups[0].rank), plural(sh.groups[1].rank))
	case holdemFlush:
		return fmt.Sprintf("Flush, %s high", rankName(sh.ranksDesc[0]))
	case holdemStraight:
		return fmt.Sprintf("Straight, %s high", rankName(sh.straightHigh))
	case holdemTrips:
		return fmt.Sprintf("Three of a Kind, %s", plural(sh.groups[0].rank))
	case holdemTwoPair:
		return fmt.Sprintf("Two Pair, %s and %s", plural(sh.groups[0].rank), plural(sh.groups[1].rank))
	case holdemPair:
		return fmt.Sprintf("Pair of %s", plural(sh.groups[0].rank))
	default:
		return fmt.Sprintf("%s high", rankName(sh.ranksDesc[0]))
	}
}
