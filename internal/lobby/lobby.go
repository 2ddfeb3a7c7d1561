// Package lobby exposes table discovery and creation on top of the
// table service.
package lobby

import (
	"context"
	"errors"
	"sort"

	"felt/engine"
	"felt/internal/service"
	"felt/store"
)

// Summary is one lobby listing row.
type Summary struct {
	ID          string             `json:"id"`
	Variant     engine.Variant     `json:"variant"`
	BettingType engine.BettingType `json:"bettingType"`
	Mode        engine.TableMode   `json:"mode"`

	SmallBlind int64 `json:"smallBlind"`
	BigBlind   int64 `json:"bigBlind"`
	BuyIn      int64 `json:"buyIn,omitempty"`
	MinBuyIn   int64 `json:"minBuyIn,omitempty"`
	MaxBuyIn   int64 `json:"maxBuyIn,omitempty"`

	Seated      int  `json:"seated"`
	MaxPlayers  int  `json:"maxPlayers"`
	HasPassword bool `json:"hasPassword"`

	Phase           engine.Phase           `json:"phase"`
	TournamentState engine.TournamentState `json:"tournamentState,omitempty"`
}

type Lobby struct {
	svc *service.Service
}

func New(svc *service.Service) *Lobby {
	return &Lobby{svc: svc}
}

// CreateRequest is the player-facing table creation form. Zero fields
// fall back to sensible defaults.
type CreateRequest struct {
	Variant     engine.Variant     `json:"variant"`
	BettingType engine.BettingType `json:"bettingType"`
	Mode        engine.TableMode   `json:"mode"`

	MaxPlayers int   `json:"maxPlayers"`
	SmallBlind int64 `json:"smallBlind"`
	BigBlind   int64 `json:"bigBlind"`
	Ante       int64 `json:"ante"`
	TurnTimeMS int64 `json:"turnTimeMs"`

	MinBuyIn int64 `json:"minBuyIn"`
	MaxBuyIn int64 `json:"maxBuyIn"`

	BuyIn         int64 `json:"buyIn"`
	StartingChips int64 `json:"startingChips"`

	Password string `json:"password"`
}

// Create builds a full config from the request and persists the table.
// SNG prize structures come from the preset for the table size.
func (l *Lobby) Create(ctx context.Context, creatorUID string, req CreateRequest) (*engine.Table, error) {
	cfg := engine.Config{
		Variant:     req.Variant,
		BettingType: req.BettingType,
		Mode:        req.Mode,
		MaxPlayers:  req.MaxPlayers,
		SmallBlind:  req.SmallBlind,
		BigBlind:    req.BigBlind,
		Ante:        req.Ante,
		TurnTimeMS:  req.TurnTimeMS,
	}
	if cfg.Mode == "" {
		cfg.Mode = engine.ModeCash
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = engine.MaxSeats
	}
	if cfg.SmallBlind == 0 && cfg.BigBlind == 0 {
		cfg.SmallBlind, cfg.BigBlind = 10, 20
	}

	switch cfg.Mode {
	case engine.ModeCash:
		cfg.MinBuyIn = req.MinBuyIn
		cfg.MaxBuyIn = req.MaxBuyIn
		if cfg.MinBuyIn == 0 && cfg.MaxBuyIn == 0 {
			cfg.MinBuyIn = cfg.BigBlind * 20
			cfg.MaxBuyIn = cfg.BigBlind * 100
		}
	case engine.ModeSNG:
		cfg.BuyIn = req.BuyIn
		cfg.StartingChips = req.StartingChips
		if cfg.StartingChips == 0 && cfg.BuyIn > 0 {
			cfg.StartingChips = cfg.BuyIn * 10
		}
		cfg.PrizeStructure = engine.PresetPrizeStructure(cfg.MaxPlayers)
	}

	return l.svc.CreateTable(ctx, creatorUID, cfg, req.Password)
}

// List returns a summary for every stored table, sorted by id for a
// stable lobby screen.
func (l *Lobby) List(ctx context.Context) ([]Summary, error) {
	ids, err := l.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		tbl, _, err := l.svc.Load(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue // swept between List and Load
			}
			return nil, err
		}
		out = append(out, summarize(tbl))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func summarize(t *engine.Table) Summary {
	s := Summary{
		ID:          t.ID,
		Variant:     t.Config.Variant,
		BettingType: t.Config.BettingType,
		Mode:        t.Config.Mode,
		SmallBlind:  t.Config.SmallBlind,
		BigBlind:    t.Config.BigBlind,
		BuyIn:       t.Config.BuyIn,
		MinBuyIn:    t.Config.MinBuyIn,
		MaxBuyIn:    t.Config.MaxBuyIn,
		MaxPlayers:  t.Config.MaxPlayers,
		HasPassword: t.Config.PasswordHash != "",
		Phase:       t.Phase,
	}
	for _, seat := range t.Seats {
		if seat != nil {
			s.Seated++
		}
	}
	if t.Tournament != nil {
		s.TournamentState = t.Tournament.State
	}
	return s
}
