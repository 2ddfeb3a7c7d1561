package engine

import (
	"sort"

	"felt/card"
)

// HandValue is the common evaluator output. Score is a lexicographic key
// whose ordering direction is variant-specific, so callers must always go
// through Evaluator.Compare and never compare raw scores across variants.
type HandValue struct {
	Score       []int       `json:"score"`
	Category    string      `json:"categoryName"`
	Description string      `json:"description"`
	Components  []card.Card `json:"components"`
}

// Evaluator ranks hands for one variant.
type Evaluator interface {
	// Evaluate ranks a hand; the card count it accepts is variant-specific.
	Evaluate(cards []card.Card) (HandValue, error)
	// Compare returns +1 if a beats b, -1 if b beats a, 0 on an exact tie.
	Compare(a, b HandValue) int
}

// compareScores compares two lexicographic keys; shorter keys sort as if
// padded with an absent (losing) tail, which never happens for same-variant
// hands.
func compareScores(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	switch {
	case len(a) > len(b):
		return 1
	case len(a) < len(b):
		return -1
	}
	return 0
}

// rankGroup is a run of equal ranks within a 5-card hand.
type rankGroup struct {
	rank  byte
	count int
}

// shape is the structural analysis of exactly five cards, shared by both
// variants. Ace counts as 14; wheel handling differs per variant.
type shape struct {
	flush        bool
	straight     bool
	straightHigh byte
	groups       []rankGroup // by count desc, then rank desc
	ranksDesc    []byte      // all five ranks, descending
}

func analyzeFive(cards []card.Card, aceLowStraight bool) shape {
	var sh shape

	counts := make(map[byte]int, 5)
	sh.flush = true
	suit := cards[0].Suit()
	for _, c := range cards {
		counts[c.Rank()]++
		if c.Suit() != suit {
			sh.flush = false
		}
		sh.ranksDesc = append(sh.ranksDesc, c.Rank())
	}
	sort.Slice(sh.ranksDesc, func(i, j int) bool { return sh.ranksDesc[i] > sh.ranksDesc[j] })

	for rank, n := range counts {
		sh.groups = append(sh.groups, rankGroup{rank: rank, count: n})
	}
	sort.Slice(sh.groups, func(i, j int) bool {
		if sh.groups[i].count != sh.groups[j].count {
			return sh.groups[i].count > sh.groups[j].count
		}
		return sh.groups[i].rank > sh.groups[j].rank
	})

	if len(counts) == 5 {
		if sh.ranksDesc[0]-sh.ranksDesc[4] == 4 {
			sh.straight = true
			sh.straightHigh = sh.ranksDesc[0]
		} else if sh.ranksDesc[0] == card.RankAce && sh.ranksDesc[1] == 5 {
			// A-2-3-4-5. For Hold'em the ace plays low (five-high wheel);
			// for 2-7 the ace stays high and the hand still counts as a
			// straight, ranked ace-high.
			sh.straight = true
			if aceLowStraight {
				sh.straightHigh = 5
			} else {
				sh.straightHigh = card.RankAce
			}
		}
	}
	return sh
}

var rankNames = map[byte]string{
	2: "Two", 3: "Three", 4: "Four", 5: "Five", 6: "Six", 7: "Seven",
	8: "Eight", 9: "Nine", 10: "Ten", 11: "Jack", 12: "Queen", 13: "King",
	14: "Ace",
}

func rankName(r byte) string {
	if n, ok := rankNames[r]; ok {
		return n
	}
	return "?"
}

func plural(r byte) string {
	if r == 6 {
		return "Sixes"
	}
	return rankName(r) + "s"
}

// fiveCardSubsets enumerates all 5-card subsets of cards (5..7 inputs).
func fiveCardSubsets(cards []card.Card) [][]card.Card {
	n := len(cards)
	if n == 5 {
		return [][]card.Card{cards}
	}
	var out [][]card.Card
	var pick func(start int, cur []card.Card)
	pick = func(start int, cur []card.Card) {
		if len(cur) == 5 {
			out = append(out, append([]card.Card(nil), cur...))
			return
		}
		for i := start; i <= n-(5-len(cur)); i++ {
			pick(i+1, append(cur, cards[i]))
		}
	}
	pick(0, make([]card.Card, 0, 5))
	return out
}
