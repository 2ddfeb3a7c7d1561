package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"time"
)

// IntentType names every player- or system-initiated table operation.
type IntentType string

const (
	IntentDeal               IntentType = "deal"
	IntentResolveCut         IntentType = "resolveCutForDealer"
	IntentBetAction          IntentType = "betAction"
	IntentSubmitDraw         IntentType = "submitDraw"
	IntentRevealHand         IntentType = "revealHand"
	IntentStartNextHand      IntentType = "startNextHand"
	IntentTimeout            IntentType = "timeout"
	IntentSetPreAction       IntentType = "setPreAction"
	IntentClearPreAction     IntentType = "clearPreAction"
	IntentRequestSitOut      IntentType = "requestSitOut"
	IntentCancelSitOut       IntentType = "cancelSitOut"
	IntentJoinAsPlayer       IntentType = "joinAsPlayer"
	IntentAddBot             IntentType = "addBot"
	IntentKickBot            IntentType = "kickBot"
	IntentIncreaseBlindLevel IntentType = "increaseBlindLevel"
	IntentRegister           IntentType = "registerForTournament"
)

// Intent is one requested table transition. UID identifies the caller;
// Seat is the seat the intent acts on where that differs per type.
type Intent struct {
	Type IntentType `json:"type"`
	UID  string     `json:"uid"`
	Seat int        `json:"seat,omitempty"`

	Action  ActionType `json:"action,omitempty"`
	Amount  int64      `json:"amount,omitempty"`
	Indices []int      `json:"indices,omitempty"`

	PreAction *PreAction `json:"preAction,omitempty"`

	BuyIn       int64  `json:"buyIn,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// IdempotencyKey fingerprints an intent against the hand and phase it
// targets. A retried intent hashes identically; the same gesture in a
// later phase does not.
func (in Intent) IdempotencyKey(tableID string, handNumber int64, phase Phase) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%s|%s|%d|%s|%d|%v",
		tableID, handNumber, phase, in.Type, in.UID, in.Seat, in.Action, in.Amount, in.Indices)
	if in.PreAction != nil {
		fmt.Fprintf(h, "|%s|%d", in.PreAction.Type, in.PreAction.Amount)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Apply runs one intent against the table document. The table is
// mutated in place; callers work on a Clone and commit on success.
// A DeckUnderflow error is special: the table has been reset to an
// aborted IDLE state that must still be persisted.
func Apply(t *Table, in Intent, now time.Time, rng *rand.Rand) error {
	switch in.Type {
	case IntentDeal:
		return applyDeal(t, in, now, rng)

	case IntentResolveCut:
		if t.Phase != PhaseCutForDealer {
			return Errf(KindIllegalAction, "phase %s is not CUT_FOR_DEALER", t.Phase)
		}
		winner := t.resolveCutWinner()
		if winner == nil {
			return Errf(KindIllegalAction, "no cut cards to resolve")
		}
		t.DealerSeat = SeatRef(winner.Index)
		t.Phase = PhaseIdle
		return t.startHand(now, rng)

	case IntentBetAction:
		if err := authorizeSeat(t, in); err != nil {
			return err
		}
		return t.applyBetAction(in.Seat, in.Action, in.Amount, now, rng)

	case IntentSubmitDraw:
		if err := authorizeSeat(t, in); err != nil {
			return err
		}
		return t.applyDraw(in.Seat, in.Indices, now, rng)

	case IntentRevealHand:
		if err := authorizeSeat(t, in); err != nil {
			return err
		}
		return t.applyRevealHand(in.Seat)

	case IntentStartNextHand:
		return t.applyStartNextHand(in.UID, now, rng)

	case IntentTimeout:
		return t.applyTimeout(now, rng)

	case IntentSetPreAction:
		if err := authorizeSeat(t, in); err != nil {
			return err
		}
		if in.PreAction == nil {
			return Errf(KindInvalidInput, "setPreAction needs a preAction body")
		}
		return t.applySetPreAction(in.Seat, *in.PreAction)

	case IntentClearPreAction:
		if err := authorizeSeat(t, in); err != nil {
			return err
		}
		return t.applyClearPreAction(in.Seat)

	case IntentRequestSitOut:
		if err := authorizeSeat(t, in); err != nil {
			return err
		}
		return t.applyRequestSitOut(in.Seat)

	case IntentCancelSitOut:
		if err := authorizeSeat(t, in); err != nil {
			return err
		}
		return t.applyCancelSitOut(in.Seat)

	case IntentJoinAsPlayer:
		return applyJoin(t, in)

	case IntentAddBot:
		return applyAddBot(t, in, now)

	case IntentKickBot:
		return applyKickBot(t, in)

	case IntentIncreaseBlindLevel:
		return t.applyIncreaseBlindLevel(now)

	case IntentRegister:
		_, err := t.register(in.UID, in.DisplayName, in.BuyIn)
		if err != nil {
			return err
		}
		if t.registeredCount() == t.Config.MaxPlayers {
			return t.startTournament(now)
		}
		return nil

	default:
		return Errf(KindInvalidInput, "unknown intent type %q", in.Type)
	}
}

// authorizeSeat checks that the caller owns the seat the intent acts
// on. The table creator actuates bot seats.
func authorizeSeat(t *Table, in Intent) error {
	s := t.Seat(in.Seat)
	if s == nil {
		return Errf(KindInvalidInput, "no seat %d", in.Seat)
	}
	if s.UID == in.UID {
		return nil
	}
	if s.IsBot && in.UID == t.CreatorUID {
		return nil
	}
	return Errf(KindNotAuthorized, "uid %s does not control seat %d", in.UID, in.Seat)
}

// applyDeal starts play from IDLE. The very first hand opens with the
// cut-for-dealer ceremony; the creator may also use deal to close a
// partially filled tournament and start it short-handed.
func applyDeal(t *Table, in Intent, now time.Time, rng *rand.Rand) error {
	if tour := t.Tournament; tour != nil && tour.State == TournamentRegistering {
		if in.UID != t.CreatorUID {
			return Errf(KindNotAuthorized, "only the creator starts the tournament early")
		}
		if err := t.startTournament(now); err != nil {
			return err
		}
	}
	if t.Phase != PhaseIdle {
		return Errf(KindIllegalAction, "phase %s is not IDLE", t.Phase)
	}
	if t.SeatByUID(in.UID) == nil && in.UID != t.CreatorUID {
		return Errf(KindNotAuthorized, "uid %s is not at the table", in.UID)
	}
	if t.seatsWithChips() < 2 {
		return Errf(KindIllegalAction, "need at least 2 seats with chips")
	}
	if t.HandNumber == 0 && t.DealerSeat == NoSeat {
		return t.dealCutCards(rng)
	}
	return t.startHand(now, rng)
}

func (t *Table) applyRequestSitOut(seatIdx int) error {
	s := t.Seat(seatIdx)
	if s.Status == SeatEliminated {
		return Errf(KindIllegalAction, "seat %d is eliminated", seatIdx)
	}
	if t.handInProgress() && inHand(s) {
		s.PendingSitOut = true
		return nil
	}
	s.Status = SeatSittingOut
	return nil
}

func (t *Table) applyCancelSitOut(seatIdx int) error {
	s := t.Seat(seatIdx)
	if s.Status == SeatEliminated {
		return Errf(KindIllegalAction, "seat %d is eliminated", seatIdx)
	}
	s.PendingSitOut = false
	if s.Status == SeatSittingOut && s.Chips > 0 {
		if t.handInProgress() {
			// Dealt back in at the next hand.
			s.JoinedMidHand = true
		} else {
			s.Status = SeatActive
		}
	}
	return nil
}

// applyJoin seats a cash-game player between hands. Tournament entry
// goes through registerForTournament instead.
func applyJoin(t *Table, in Intent) error {
	if t.Config.Mode != ModeCash {
		return Errf(KindIllegalAction, "use registerForTournament on sng tables")
	}
	if t.handInProgress() {
		return Errf(KindIllegalAction, "hand in progress; join between hands")
	}
	if in.BuyIn < t.Config.MinBuyIn || in.BuyIn > t.Config.MaxBuyIn {
		return Errf(KindInvalidInput, "buy-in %d outside %d..%d", in.BuyIn, t.Config.MinBuyIn, t.Config.MaxBuyIn)
	}
	_, err := t.assignSeat(in.UID, in.DisplayName, false, "", in.BuyIn)
	return err
}

// applyAddBot seats a house bot for the creator. Bots buy in with play
// chips; their bankrolls live nowhere.
func applyAddBot(t *Table, in Intent, now time.Time) error {
	if in.UID != t.CreatorUID {
		return Errf(KindNotAuthorized, "only the creator seats bots")
	}
	if t.handInProgress() {
		return Errf(KindIllegalAction, "hand in progress")
	}
	uid := t.nextBotUID()
	name := in.DisplayName
	if name == "" {
		name = "Bot " + uid[len("bot-"):]
	}

	if t.Config.Mode == ModeSNG {
		s, err := t.register(uid, name, t.Config.BuyIn)
		if err != nil {
			return err
		}
		s.IsBot = true
		s.BotDifficulty = in.Difficulty
		if t.registeredCount() == t.Config.MaxPlayers {
			return t.startTournament(now)
		}
		return nil
	}

	buyIn := in.BuyIn
	if buyIn == 0 {
		buyIn = t.Config.MaxBuyIn
	}
	if buyIn < t.Config.MinBuyIn || buyIn > t.Config.MaxBuyIn {
		return Errf(KindInvalidInput, "buy-in %d outside %d..%d", buyIn, t.Config.MinBuyIn, t.Config.MaxBuyIn)
	}
	_, err := t.assignSeat(uid, name, true, in.Difficulty, buyIn)
	return err
}

func (t *Table) nextBotUID() string {
	for n := 1; ; n++ {
		uid := fmt.Sprintf("bot-%d", n)
		if t.SeatByUID(uid) == nil {
			return uid
		}
	}
}

func applyKickBot(t *Table, in Intent) error {
	if in.UID != t.CreatorUID {
		return Errf(KindNotAuthorized, "only the creator removes bots")
	}
	if t.handInProgress() {
		return Errf(KindIllegalAction, "hand in progress")
	}
	s := t.Seat(in.Seat)
	if s == nil || !s.IsBot {
		return Errf(KindInvalidInput, "seat %d is not a bot", in.Seat)
	}
	t.Seats[in.Seat] = nil
	return nil
}
