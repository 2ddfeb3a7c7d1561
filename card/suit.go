package card

import "fmt"

// Suit ordering doubles as the cut-for-dealer tie-break priority:
// Spade > Heart > Diamond > Club.
type Suit byte

const (
	Club Suit = iota
	Diamond
	Heart
	Spade
)

func (s Suit) Char() byte {
	switch s {
	case Club:
		return 'c'
	case Diamond:
		return 'd'
	case Heart:
		return 'h'
	case Spade:
		return 's'
	}
	return '?'
}

func (s Suit) String() string {
	return string(s.Char())
}

func ParseSuit(ch byte) (Suit, error) {
	switch ch {
	case 'c':
		return Club, nil
	case 'd':
		return Diamond, nil
	case 'h':
		return Heart, nil
	case 's':
		return Spade, nil
	}
	return 0, fmt.Errorf("invalid suit %q", ch)
}
