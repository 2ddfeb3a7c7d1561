package engine

import (
	"encoding/json"
	"time"
)

// Variant selects the game rules for a table.
type Variant string

const (
	VariantTripleDraw Variant = "triple_draw_27"
	VariantSingleDraw Variant = "single_draw_27"
	VariantHoldem     Variant = "texas_holdem"
)

// BettingType selects the betting structure.
type BettingType string

const (
	NoLimit    BettingType = "no_limit"
	PotLimit   BettingType = "pot_limit"
	FixedLimit BettingType = "fixed_limit"
)

// TableMode distinguishes open cash tables from closed-registration SNGs.
type TableMode string

const (
	ModeCash TableMode = "cash"
	ModeSNG  TableMode = "sng"
)

// Phase is a named step within a hand. The enum strings are part of the
// persisted contract.
type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhaseCutForDealer Phase = "CUT_FOR_DEALER"

	PhaseBetting1 Phase = "BETTING_1"
	PhaseDraw1    Phase = "DRAW_1"
	PhaseBetting2 Phase = "BETTING_2"
	PhaseDraw2    Phase = "DRAW_2"
	PhaseBetting3 Phase = "BETTING_3"
	PhaseDraw3    Phase = "DRAW_3"
	PhaseBetting4 Phase = "BETTING_4"

	PhaseBettingPreflop Phase = "BETTING_PREFLOP"
	PhaseBettingFlop    Phase = "BETTING_FLOP"
	PhaseBettingTurn    Phase = "BETTING_TURN"
	PhaseBettingRiver   Phase = "BETTING_RIVER"

	PhaseShowdown Phase = "SHOWDOWN"
)

func (p Phase) IsBetting() bool {
	switch p {
	case PhaseBetting1, PhaseBetting2, PhaseBetting3, PhaseBetting4,
		PhaseBettingPreflop, PhaseBettingFlop, PhaseBettingTurn, PhaseBettingRiver:
		return true
	}
	return false
}

func (p Phase) IsDraw() bool {
	switch p {
	case PhaseDraw1, PhaseDraw2, PhaseDraw3:
		return true
	}
	return false
}

// SeatStatus is the per-seat state within and across hands.
type SeatStatus string

const (
	SeatActive     SeatStatus = "active"
	SeatFolded     SeatStatus = "folded"
	SeatAllIn      SeatStatus = "all-in"
	SeatSittingOut SeatStatus = "sitting_out"
	SeatEliminated SeatStatus = "eliminated"
)

// ActionType is a betting action.
type ActionType string

const (
	ActionFold  ActionType = "FOLD"
	ActionCheck ActionType = "CHECK"
	ActionCall  ActionType = "CALL"
	ActionBet   ActionType = "BET"
	ActionRaise ActionType = "RAISE"
	ActionAllIn ActionType = "ALL_IN"

	// Draw-phase outcomes recorded as a seat's last action.
	ActionDraw     ActionType = "DRAW"
	ActionStandPat ActionType = "STAND_PAT"
)

// PreActionType is a queueable intent for a non-acting seat.
type PreActionType string

const (
	PreActionCheck     PreActionType = "CHECK"
	PreActionCheckFold PreActionType = "CHECK_FOLD"
	PreActionCall      PreActionType = "CALL"
	PreActionCallAny   PreActionType = "CALL_ANY"
	PreActionFold      PreActionType = "FOLD"
)

// TournamentState is the SNG lifecycle.
type TournamentState string

const (
	TournamentRegistering TournamentState = "REGISTERING"
	TournamentRunning     TournamentState = "RUNNING"
	TournamentCompleted   TournamentState = "COMPLETED"
)

// TournamentSeatState overrides seat status for SNG bookkeeping.
type TournamentSeatState string

const (
	TourSeatOpen       TournamentSeatState = "OPEN"
	TourSeatActive     TournamentSeatState = "ACTIVE"
	TourSeatEliminated TournamentSeatState = "ELIMINATED"
)

// SeatRef is a seat index that serializes -1 as null ("no seat").
type SeatRef int

const NoSeat SeatRef = -1

func (r SeatRef) MarshalJSON() ([]byte, error) {
	if r < 0 {
		return []byte("null"), nil
	}
	return json.Marshal(int(r))
}

func (r *SeatRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NoSeat
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = SeatRef(n)
	return nil
}

// Timing constants. Durations are milliseconds on the wire.
const (
	ShowBluffWindowMS  = 5000
	GracePeriodSeconds = 2
	BlindLevelDuration = 5 * time.Minute
	DefaultTurnTimeMS  = 30_000

	MaxSeats           = 6
	MaxHandHistory     = 20
	MaxChatLog         = 100
	FixedLimitRaiseCap = 4
	MaxBlindLevel      = 7
)
