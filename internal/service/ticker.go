package service

import (
	"context"
	"errors"
	"log"
	"time"

	"felt/engine"
	"felt/store"
)

const (
	tickInterval = 500 * time.Millisecond

	// How long a finished contested showdown stays on screen before the
	// clock advances the table.
	showdownLinger = 8 * time.Second

	// Idle cash tables with nobody seated are deleted after this long.
	staleTableAfter = 24 * time.Hour
	sweepEvery      = 10 * time.Minute
)

// Notifier receives the committed document after a clock-driven
// transition so the gateway can fan it out.
type Notifier interface {
	TableChanged(tableID string, res Result)
}

// RunClock drives every time-based transition: turn timeouts past the
// grace period, due blind level increases, and expired reveal windows.
// It returns when ctx is done.
func (s *Service) RunClock(ctx context.Context, notify Notifier) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, notify)
		case <-sweep.C:
			s.sweepStale(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context, notify Notifier) {
	ids, err := s.store.List(ctx)
	if err != nil {
		log.Printf("[Clock] list tables: %v", err)
		return
	}
	now := time.Now()
	for _, id := range ids {
		s.tickTable(ctx, id, now, notify)
	}
}

func (s *Service) tickTable(ctx context.Context, tableID string, now time.Time, notify Notifier) {
	tbl, _, err := s.store.Load(ctx, tableID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[Clock] load table %s: %v", tableID, err)
		}
		return
	}

	for _, in := range dueIntents(tbl, now) {
		res, err := s.Dispatch(ctx, tableID, in)
		if err != nil {
			// Lost race against a player action; the next tick
			// re-evaluates from the fresh document.
			continue
		}
		if notify != nil {
			notify.TableChanged(tableID, res)
		}
	}
}

// dueIntents derives the clock intents a document is owed at time now.
func dueIntents(t *engine.Table, now time.Time) []engine.Intent {
	var out []engine.Intent

	if t.ActiveSeat != engine.NoSeat && !t.TurnDeadline.IsZero() {
		fireAt := t.TurnDeadline.Time().Add(engine.GracePeriodSeconds * time.Second)
		if !now.Before(fireAt) {
			out = append(out, engine.Intent{Type: engine.IntentTimeout})
		}
	}

	if tour := t.Tournament; tour != nil && tour.State == engine.TournamentRunning {
		if !tour.BlindTimer.NextLevelAt.IsZero() && tour.BlindTimer.NextLevelAt.Before(now) &&
			tour.BlindTimer.CurrentLevel < engine.MaxBlindLevel {
			out = append(out, engine.Intent{Type: engine.IntentIncreaseBlindLevel})
		}
	}

	if t.Phase == engine.PhaseShowdown {
		switch {
		case !t.ShowBluffDeadline.IsZero() && t.ShowBluffDeadline.Before(now):
			// Reveal window expired after an uncontested win.
			out = append(out, engine.Intent{Type: engine.IntentStartNextHand})
		case t.ShowBluffDeadline.IsZero() && len(t.History) > 0:
			// Contested showdown: give everyone a moment to read the
			// board, then move on without waiting for a player.
			endedAt := t.History[len(t.History)-1].EndedAt
			if endedAt.Time().Add(showdownLinger).Before(now) {
				out = append(out, engine.Intent{Type: engine.IntentStartNextHand})
			}
		}
	}

	return out
}

// sweepStale deletes cash tables that sat empty and idle for too long.
func (s *Service) sweepStale(ctx context.Context) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return
	}
	now := time.Now()
	for _, id := range ids {
		tbl, _, err := s.store.Load(ctx, id)
		if err != nil {
			continue
		}
		if !isStale(tbl, now) {
			continue
		}
		if err := s.store.Delete(ctx, id); err == nil {
			log.Printf("[Clock] swept stale table %s", id)
		}
	}
}

func isStale(t *engine.Table, now time.Time) bool {
	if t.Phase != engine.PhaseIdle {
		return false
	}
	if t.Tournament != nil && t.Tournament.State != engine.TournamentCompleted {
		return false
	}
	for _, s := range t.Seats {
		if s != nil && !s.IsBot {
			return false
		}
	}
	// Tables that never played a hand are kept; creators may still be
	// gathering players.
	if len(t.History) == 0 {
		return false
	}
	endedAt := t.History[len(t.History)-1].EndedAt
	return endedAt.Time().Add(staleTableAfter).Before(now)
}
