package engine

import (
	"fmt"
	"strings"

	"felt/card"
)

// 2-7 badness categories, lower is better. Pairs of any depth beat
// straights, straights beat flushes, flushes beat straight flushes: the
// "made" high hands are ordered strictly worse than every paired hand.
const (
	lowballHighCard = iota
	lowballPair
	lowballTwoPair
	lowballTrips
	lowballFullHouse
	lowballQuads
	lowballStraight
	lowballFlush
	lowballStraightFlush
)

var lowballCategoryNames = [...]string{
	"High Card", "Pair", "Two Pair", "Three of a Kind", "Full House",
	"Four of a Kind", "Straight", "Flush", "Straight Flush",
}

// LowballEvaluator ranks exactly five cards for 2-7 Kansas City lowball.
// Aces are always high; A-2-3-4-5 is an ace-high straight, never a wheel.
// Lower scores are better hands.
type LowballEvaluator struct{}

func (LowballEvaluator) Evaluate(cards []card.Card) (HandValue, error) {
	if len(cards) != 5 {
		return HandValue{}, Errf(KindInvalidInput, "lowball evaluator needs exactly 5 cards, got %d", len(cards))
	}
	sh := analyzeFive(cards, false)

	var category int
	var tiebreak []int
	switch {
	case sh.straight && sh.flush:
		category = lowballStraightFlush
		tiebreak = []int{int(sh.straightHigh)}
	case sh.flush:
		category = lowballFlush
		tiebreak = ranksKey(sh.ranksDesc)
	case sh.straight:
		category = lowballStraight
		tiebreak = []int{int(sh.straightHigh)}
	case sh.groups[0].count == 4:
		category = lowballQuads
		tiebreak = groupedRanks(sh)
	case sh.groups[0].count == 3 && sh.groups[1].count == 2:
		category = lowballFullHouse
		tiebreak = groupedRanks(sh)
	case sh.groups[0].count == 3:
		category = lowballTrips
		tiebreak = groupedRanks(sh)
	case sh.groups[0].count == 2 && sh.groups[1].count == 2:
		category = lowballTwoPair
		tiebreak = groupedRanks(sh)
	case sh.groups[0].count == 2:
		category = lowballPair
		tiebreak = groupedRanks(sh)
	default:
		category = lowballHighCard
		tiebreak = ranksKey(sh.ranksDesc)
	}

	hv := HandValue{
		Score:      append([]int{category}, tiebreak...),
		Category:   lowballCategoryNames[category],
		Components: append([]card.Card(nil), cards...),
	}
	hv.Description = describeLowball(category, sh)
	return hv, nil
}

// Compare: lower lexicographic key wins in lowball.
func (LowballEvaluator) Compare(a, b HandValue) int {
	return -compareScores(a.Score, b.Score)
}

func describeLowball(category int, sh shape) string {
	if category == lowballHighCard {
		// e.g. "7-5-4-3-2 low"
		parts := make([]string, len(sh.ranksDesc))
		for i, r := range sh.ranksDesc {
			parts[i] = string(card.Make(r, card.Spade).RankChar())
		}
		return strings.Join(parts, "-") + " low"
	}
	switch category {
	case lowballStraightFlush:
		return fmt.Sprintf("Straight Flush, %s high", rankName(sh.straightHigh))
	case lowballFlush:
		return fmt.Sprintf("Flush, %s high", rankName(sh.ranksDesc[0]))
	case lowballStraight:
		return fmt.Sprintf("Straight, %s high", rankName(sh.straightHigh))
	case lowballQuads:
		return fmt.Sprintf("Four of a Kind, %s", plural(sh.groups[0].rank))
	case lowballFullHouse:
		return fmt.Sprintf("Full House, %s over %s", plural(sh.groups[0].rank), plural(sh.groups[1].rank))
	case lowballTrips:
		return fmt.Sprintf("Three of a Kind, %s", plural(sh.groups[0].rank))
	case lowballTwoPair:
		return fmt.Sprintf("Two Pair, %s and %s", plural(sh.groups[0].rank), plural(sh.groups[1].rank))
	default:
		return fmt.Sprintf("Pair of %s", plural(sh.groups[0].rank))
	}
}
