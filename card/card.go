package card

import (
	"encoding/json"
	"fmt"
)

// Card is a playing card packed into one byte.
//
// Encoding:
// - high nibble: suit (0:c, 1:d, 2:h, 3:s)
// - low nibble: rank (2..14, ace is always 14)
type Card byte

const Invalid Card = 0

const (
	RankTwo   byte = 2
	RankTen   byte = 10
	RankJack  byte = 11
	RankQueen byte = 12
	RankKing  byte = 13
	RankAce   byte = 14
)

func Make(rank byte, suit Suit) Card {
	return Card(byte(suit)<<4 | rank&0x0F)
}

// Rank is the card value 2..14 (ace high).
func (c Card) Rank() byte {
	return byte(c) & 0x0F
}

func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) Valid() bool {
	r := c.Rank()
	return r >= RankTwo && r <= RankAce && c.Suit() <= Spade
}

var rankChars = map[byte]byte{
	2: '2', 3: '3', 4: '4', 5: '5', 6: '6', 7: '7', 8: '8', 9: '9',
	10: 'T', 11: 'J', 12: 'Q', 13: 'K', 14: 'A',
}

// RankChar is the single uppercase wire character for the rank.
func (c Card) RankChar() byte {
	if ch, ok := rankChars[c.Rank()]; ok {
		return ch
	}
	return '?'
}

// String renders the wire form, e.g. "Ah", "Tc", "2s".
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string([]byte{c.RankChar(), c.Suit().Char()})
}

// Parse converts a wire string like "Ah" or "Tc" to a Card.
func Parse(s string) (Card, error) {
	if len(s) != 2 {
		return Invalid, fmt.Errorf("invalid card string %q", s)
	}
	var rank byte
	switch s[0] {
	case 'T':
		rank = 10
	case 'J':
		rank = 11
	case 'Q':
		rank = 12
	case 'K':
		rank = 13
	case 'A':
		rank = 14
	default:
		if s[0] < '2' || s[0] > '9' {
			return Invalid, fmt.Errorf("invalid rank %q", s[0])
		}
		rank = s[0] - '0'
	}
	suit, err := ParseSuit(s[1])
	if err != nil {
		return Invalid, err
	}
	return Make(rank, suit), nil
}

func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid card %#x", byte(c))
	}
	return json.Marshal(c.String())
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Deck returns the 52 cards in canonical order (clubs 2..A, then
// diamonds, hearts, spades).
func Deck() []Card {
	out := make([]Card, 0, 52)
	for suit := Club; suit <= Spade; suit++ {
		for rank := RankTwo; rank <= RankAce; rank++ {
			out = append(out, Make(rank, suit))
		}
	}
	return out
}

// Contains reports whether c is in cards.
func Contains(cards []Card, c Card) bool {
	for _, cc := range cards {
		if cc == c {
			return true
		}
	}
	return false
}
