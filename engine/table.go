package engine

import (
	"encoding/json"
	"fmt"

	"felt/card"
)

// Seat is one chair at the table. Index is fixed for the table's lifetime;
// emptiness is expressed by a nil entry in Table.Seats, never by a zero Seat.
type Seat struct {
	Index         int    `json:"index"`
	UID           string `json:"uid"`
	DisplayName   string `json:"displayName"`
	IsBot         bool   `json:"isBot"`
	BotDifficulty string `json:"botDifficulty,omitempty"`

	Chips  int64      `json:"chips"`
	Status SeatStatus `json:"status"`

	Hand         []card.Card `json:"hand,omitempty"`
	HandRevealed bool        `json:"handRevealed"`
	CutCard      card.Card   `json:"cutCard,omitempty"`

	CurrentRoundBet   int64      `json:"currentRoundBet"`
	TotalContribution int64      `json:"totalContribution"`
	LastAction        ActionType `json:"lastAction,omitempty"`
	ActedInRound      bool       `json:"actedInRound"`

	PendingSitOut bool `json:"pendingSitOut,omitempty"`
	// Sat out of the current hand but asked to be dealt in at the
	// next one.
	JoinedMidHand bool `json:"joinedMidHand,omitempty"`

	// Set when a queued pre-action was cancelled; cleared on the seat's
	// next action or queue write. Informational only.
	PreActionNotice ErrorKind `json:"preActionNotice,omitempty"`
}

// Config is the immutable table configuration.
type Config struct {
	Variant     Variant     `json:"variant"`
	BettingType BettingType `json:"bettingType"`
	Mode        TableMode   `json:"mode"`

	MaxPlayers int   `json:"maxPlayers"`
	SmallBlind int64 `json:"smallBlind"`
	BigBlind   int64 `json:"bigBlind"`
	Ante       int64 `json:"ante,omitempty"`

	TurnTimeMS int64 `json:"turnTimeMs"`

	// Cash mode buy-in bounds.
	MinBuyIn int64 `json:"minBuyIn,omitempty"`
	MaxBuyIn int64 `json:"maxBuyIn,omitempty"`

	// SNG mode.
	BuyIn          int64     `json:"buyIn,omitempty"`
	StartingChips  int64     `json:"startingChips,omitempty"`
	PrizeStructure []float64 `json:"prizeStructure,omitempty"`

	PasswordHash string `json:"passwordHash,omitempty"`
}

func (c Config) Validate() error {
	if c.MaxPlayers < 2 || c.MaxPlayers > MaxSeats {
		return Errf(KindInvalidInput, "maxPlayers must be 2..%d, got %d", MaxSeats, c.MaxPlayers)
	}
	switch c.Variant {
	case VariantTripleDraw, VariantSingleDraw, VariantHoldem:
	default:
		return Errf(KindInvalidInput, "unknown variant %q", c.Variant)
	}
	switch c.BettingType {
	case NoLimit, PotLimit, FixedLimit:
	default:
		return Errf(KindInvalidInput, "unknown betting type %q", c.BettingType)
	}
	if c.SmallBlind <= 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return Errf(KindInvalidInput, "invalid blinds %d/%d", c.SmallBlind, c.BigBlind)
	}
	if c.Ante < 0 {
		return Errf(KindInvalidInput, "ante must be >= 0")
	}
	switch c.Mode {
	case ModeCash:
		if c.MinBuyIn <= 0 || c.MaxBuyIn < c.MinBuyIn {
			return Errf(KindInvalidInput, "invalid buy-in range %d..%d", c.MinBuyIn, c.MaxBuyIn)
		}
	case ModeSNG:
		if c.BuyIn <= 0 || c.StartingChips <= 0 {
			return Errf(KindInvalidInput, "sng requires buyIn and startingChips")
		}
		if err := ValidatePrizeStructure(c.PrizeStructure); err != nil {
			return err
		}
	default:
		return Errf(KindInvalidInput, "unknown mode %q", c.Mode)
	}
	return nil
}

// PreAction is a queued intent for a non-acting seat.
type PreAction struct {
	Type   PreActionType `json:"type"`
	Amount int64         `json:"amount,omitempty"`
}

// SidePot is one materialized pot at showdown.
type SidePot struct {
	Amount     int64   `json:"amount"`
	Eligible   []int   `json:"eligible"`
	Winners    []int   `json:"winners,omitempty"`
	WinAmounts []int64 `json:"winAmounts,omitempty"`
}

// HandSummary is one ring entry of recent hand outcomes.
type HandSummary struct {
	HandNumber int64         `json:"handNumber"`
	Variant    Variant       `json:"variant"`
	Pot        int64         `json:"pot"`
	EndedBy    string        `json:"endedBy"` // "fold" | "showdown" | "abort"
	Winners    []WinnerEntry `json:"winners,omitempty"`
	EndedAt    Millis        `json:"endedAt"`
}

type WinnerEntry struct {
	Seat        int    `json:"seat"`
	UID         string `json:"uid"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// ChatMessage is opaque to the engine; the gateway appends, bounded.
type ChatMessage struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	Text string `json:"text"`
	At   Millis `json:"at"`
}

// Table is the single authoritative document for one table. The core only
// ever mutates it inside a compare-and-set transaction keyed on the store
// version; nothing here carries server secrets.
type Table struct {
	ID         string `json:"id"`
	CreatorUID string `json:"creatorUid"`
	Config     Config `json:"config"`

	Seats []*Seat `json:"seats"`
	Deck  Deck    `json:"deck"`

	Phase          Phase   `json:"phase"`
	DealerSeat     SeatRef `json:"dealerSeat"`
	SmallBlindSeat SeatRef `json:"smallBlindSeat"`
	BigBlindSeat   SeatRef `json:"bigBlindSeat"`
	ActiveSeat     SeatRef `json:"activeSeat"`

	CurrentBet      int64 `json:"currentBet"`
	LastRaiseSize   int64 `json:"lastRaiseSize"`
	RaisesThisRound int   `json:"raisesThisRound"`
	Pot             int64 `json:"pot"`

	SidePots       []SidePot   `json:"sidePots,omitempty"`
	CommunityCards []card.Card `json:"communityCards,omitempty"`

	TurnDeadline      Millis `json:"turnDeadline,omitempty"`
	ShowBluffDeadline Millis `json:"showBluffDeadline,omitempty"`

	PreActions map[int]*PreAction `json:"preActions,omitempty"`

	HandNumber int64         `json:"handNumber"`
	History    []HandSummary `json:"history,omitempty"`

	Tournament *Tournament `json:"tournament,omitempty"`

	ChatLog []ChatMessage `json:"chatLog,omitempty"`
}

// NewTable creates an IDLE table with empty seats.
func NewTable(id, creatorUID string, cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TurnTimeMS <= 0 {
		cfg.TurnTimeMS = DefaultTurnTimeMS
	}
	t := &Table{
		ID:             id,
		CreatorUID:     creatorUID,
		Config:         cfg,
		Seats:          make([]*Seat, cfg.MaxPlayers),
		Phase:          PhaseIdle,
		DealerSeat:     NoSeat,
		SmallBlindSeat: NoSeat,
		BigBlindSeat:   NoSeat,
		ActiveSeat:     NoSeat,
	}
	if cfg.Mode == ModeSNG {
		t.Tournament = NewTournament(cfg)
	}
	return t, nil
}

// Clone deep-copies the document by round-tripping its JSON form. Intent
// handlers mutate a clone so a failed transition never leaks partial writes.
func (t *Table) Clone() *Table {
	data, err := json.Marshal(t)
	if err != nil {
		panic(fmt.Sprintf("table %s not serializable: %v", t.ID, err))
	}
	var out Table
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("table %s clone decode: %v", t.ID, err))
	}
	return &out
}

func (t *Table) Seat(i int) *Seat {
	if i < 0 || i >= len(t.Seats) {
		return nil
	}
	return t.Seats[i]
}

// SeatByUID finds the seat owned by uid, or nil.
func (t *Table) SeatByUID(uid string) *Seat {
	for _, s := range t.Seats {
		if s != nil && s.UID == uid {
			return s
		}
	}
	return nil
}

// nextSeat walks clockwise from (but excluding) from, returning the first
// seat accepted by ok, or nil after a full lap.
func (t *Table) nextSeat(from int, ok func(*Seat) bool) *Seat {
	n := len(t.Seats)
	for step := 1; step <= n; step++ {
		s := t.Seats[(from+step)%n]
		if s != nil && ok(s) {
			return s
		}
	}
	return nil
}

func canAct(s *Seat) bool {
	return s.Status == SeatActive && s.Chips > 0
}

func inHand(s *Seat) bool {
	return s.Status == SeatActive || s.Status == SeatAllIn
}

// Contenders are seats still eligible for the pot: active or all-in.
func (t *Table) Contenders() []*Seat {
	var out []*Seat
	for _, s := range t.Seats {
		if s != nil && inHand(s) {
			out = append(out, s)
		}
	}
	return out
}

// seatsWithChips counts seats able to start a hand.
func (t *Table) seatsWithChips() int {
	n := 0
	for _, s := range t.Seats {
		if s == nil || s.Chips <= 0 {
			continue
		}
		switch s.Status {
		case SeatEliminated, SeatSittingOut:
			continue
		}
		n++
	}
	return n
}

// handInProgress reports whether a hand is between DEAL and pot award.
func (t *Table) handInProgress() bool {
	return t.Phase != PhaseIdle && t.Phase != PhaseShowdown && t.Phase != PhaseCutForDealer
}

func (t *Table) appendHistory(sum HandSummary) {
	t.History = append(t.History, sum)
	if len(t.History) > MaxHandHistory {
		t.History = t.History[len(t.History)-MaxHandHistory:]
	}
}

// AppendChat adds an opaque chat line, bounded.
func (t *Table) AppendChat(msg ChatMessage) {
	t.ChatLog = append(t.ChatLog, msg)
	if len(t.ChatLog) > MaxChatLog {
		t.ChatLog = t.ChatLog[len(t.ChatLog)-MaxChatLog:]
	}
}

// EffectiveBlinds returns the blinds for the next hand, applying the
// tournament blind level when running.
func (t *Table) EffectiveBlinds() (sb, bb int64) {
	sb, bb = t.Config.SmallBlind, t.Config.BigBlind
	if t.Tournament != nil && t.Tournament.State == TournamentRunning {
		level := t.Tournament.BlindTimer.CurrentLevel
		sb <<= level
		bb <<= level
	}
	return sb, bb
}
