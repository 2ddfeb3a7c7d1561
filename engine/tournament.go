package engine

import (
	"math"
	"sort"
	"time"
)

// Tournament is the sit-and-go state carried inside the table document.
type Tournament struct {
	State     TournamentState `json:"state"`
	BuyIn     int64           `json:"buyIn"`
	PrizePool int64           `json:"prizePool"`

	BlindTimer BlindTimer `json:"blindTimer"`

	// Finish order as players bust; the winner never appears here.
	Eliminations []Elimination `json:"eliminations,omitempty"`

	Payouts []Payout `json:"payouts,omitempty"`
}

type BlindTimer struct {
	CurrentLevel int    `json:"currentLevel"`
	NextLevelAt  Millis `json:"nextLevelAt,omitempty"`
}

type Elimination struct {
	Seat       int    `json:"seat"`
	UID        string `json:"uid"`
	HandNumber int64  `json:"handNumber"`
	Position   int    `json:"position"`
}

type Payout struct {
	Position int    `json:"position"`
	Seat     int    `json:"seat"`
	UID      string `json:"uid"`
	Amount   int64  `json:"amount"`
}

func NewTournament(cfg Config) *Tournament {
	return &Tournament{
		State: TournamentRegistering,
		BuyIn: cfg.BuyIn,
	}
}

// ValidatePrizeStructure checks that the paid fractions describe a whole
// prize pool, within a small float tolerance.
func ValidatePrizeStructure(fracs []float64) error {
	if len(fracs) == 0 {
		return Errf(KindInvalidInput, "prize structure must pay at least one place")
	}
	if len(fracs) > MaxSeats {
		return Errf(KindInvalidInput, "prize structure pays %d places, table seats %d", len(fracs), MaxSeats)
	}
	sum := 0.0
	for i, f := range fracs {
		if f <= 0 {
			return Errf(KindInvalidInput, "prize fraction %d must be positive", i+1)
		}
		sum += f
	}
	if math.Abs(sum-1) > 0.01 {
		return Errf(KindInvalidInput, "prize fractions sum to %.4f, want 1", sum)
	}
	return nil
}

// PresetPrizeStructure returns the payout split the lobby offers for a
// given field size.
func PresetPrizeStructure(players int) []float64 {
	switch {
	case players <= 3:
		return []float64{1}
	case players <= 5:
		return []float64{0.7, 0.3}
	default:
		return []float64{0.5, 0.3, 0.2}
	}
}

// register seats a paid entrant. Registration closes permanently once
// cards are in the air.
func (t *Table) register(uid, displayName string, buyIn int64) (*Seat, error) {
	tour := t.Tournament
	if tour == nil {
		return nil, Errf(KindIllegalAction, "table %s is not a tournament", t.ID)
	}
	if tour.State != TournamentRegistering {
		return nil, Errf(KindTournamentClosed, "registration is closed")
	}
	if buyIn != tour.BuyIn {
		return nil, Errf(KindInvalidInput, "buy-in is %d, got %d", tour.BuyIn, buyIn)
	}
	s, err := t.assignSeat(uid, displayName, false, "", t.Config.StartingChips)
	if err != nil {
		return nil, err
	}
	tour.PrizePool += buyIn
	return s, nil
}

func (t *Table) registeredCount() int {
	n := 0
	for _, s := range t.Seats {
		if s != nil && s.Status != SeatEliminated {
			n++
		}
	}
	return n
}

// startTournament locks the field and arms the blind timer.
func (t *Table) startTournament(now time.Time) error {
	tour := t.Tournament
	if tour == nil || tour.State != TournamentRegistering {
		return Errf(KindIllegalAction, "tournament cannot start")
	}
	if t.registeredCount() < 2 {
		return Errf(KindIllegalAction, "need at least 2 entrants")
	}
	tour.State = TournamentRunning
	tour.BlindTimer = BlindTimer{
		CurrentLevel: 0,
		NextLevelAt:  ToMillis(now.Add(BlindLevelDuration)),
	}
	return nil
}

// applyIncreaseBlindLevel bumps the level once its timer lapses. The
// level clamps at the ceiling; the timer keeps rolling so duplicate
// intents past the clamp stay harmless.
func (t *Table) applyIncreaseBlindLevel(now time.Time) error {
	tour := t.Tournament
	if tour == nil || tour.State != TournamentRunning {
		return Errf(KindIllegalAction, "no running tournament")
	}
	if now.UnixMilli() < int64(tour.BlindTimer.NextLevelAt) {
		return Errf(KindIllegalAction, "blind level not due")
	}
	if tour.BlindTimer.CurrentLevel < MaxBlindLevel {
		tour.BlindTimer.CurrentLevel++
	}
	tour.BlindTimer.NextLevelAt = ToMillis(now.Add(BlindLevelDuration))
	return nil
}

// processEliminations runs at hand end, before contributions are zeroed:
// seats that busted this hand finish in order of totalContribution
// (smallest stack busts lowest), ties broken clockwise from the dealer.
// When one player remains the tournament completes and pays out.
func (t *Table) processEliminations(now time.Time) {
	tour := t.Tournament
	if tour == nil || tour.State != TournamentRunning {
		return
	}

	remaining := 0
	var busted []*Seat
	for _, s := range t.Seats {
		if s == nil || s.Status == SeatEliminated {
			continue
		}
		remaining++
		if s.Chips == 0 {
			busted = append(busted, s)
		}
	}
	if len(busted) == 0 {
		return
	}

	order := make([]int, 0, len(busted))
	for _, s := range busted {
		order = append(order, s.Index)
	}
	t.sortClockwiseFromDealer(order)
	sort.SliceStable(order, func(i, j int) bool {
		return t.Seat(order[i]).TotalContribution < t.Seat(order[j]).TotalContribution
	})

	for rank, idx := range order {
		s := t.Seat(idx)
		s.Status = SeatEliminated
		tour.Eliminations = append(tour.Eliminations, Elimination{
			Seat:       idx,
			UID:        s.UID,
			HandNumber: t.HandNumber,
			Position:   remaining - rank,
		})
	}

	if remaining-len(busted) == 1 {
		t.completeTournament()
	}
}

// completeTournament pays the prize structure. Fractional remainders
// from flooring go to first place so the pool pays out exactly.
func (t *Table) completeTournament() {
	tour := t.Tournament
	tour.State = TournamentCompleted

	byPosition := make(map[int]*Seat, len(t.Seats))
	for _, s := range t.Seats {
		if s != nil && s.Status != SeatEliminated {
			byPosition[1] = s
		}
	}
	for _, e := range tour.Eliminations {
		byPosition[e.Position] = t.Seat(e.Seat)
	}

	paid := int64(0)
	for i, frac := range t.Config.PrizeStructure {
		pos := i + 1
		s := byPosition[pos]
		if s == nil {
			continue
		}
		amount := int64(math.Floor(float64(tour.PrizePool) * frac))
		paid += amount
		tour.Payouts = append(tour.Payouts, Payout{
			Position: pos,
			Seat:     s.Index,
			UID:      s.UID,
			Amount:   amount,
		})
	}
	if rem := tour.PrizePool - paid; rem > 0 && len(tour.Payouts) > 0 {
		tour.Payouts[0].Amount += rem
	}
}
