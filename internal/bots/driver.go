package bots

import (
	"context"
	"log"
	"time"

	"felt/engine"
	"felt/internal/service"
)

const pollInterval = 750 * time.Millisecond

// Driver polls stored tables and submits intents for bot seats whose
// turn it is. Bot intents travel the same dispatch path as human ones;
// the engine authorizes them under the table creator's identity.
type Driver struct {
	svc   *service.Service
	strat Strategy
}

func NewDriver(svc *service.Service, strat Strategy) *Driver {
	if strat == nil {
		strat = Conservative{}
	}
	return &Driver{svc: svc, strat: strat}
}

// Run polls until ctx is done. Committed bot moves are handed to notify
// for fan-out.
func (d *Driver) Run(ctx context.Context, notify service.Notifier) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx, notify)
		}
	}
}

func (d *Driver) tick(ctx context.Context, notify service.Notifier) {
	ids, err := d.svc.List(ctx)
	if err != nil {
		log.Printf("[Bots] list tables: %v", err)
		return
	}
	for _, id := range ids {
		tbl, _, err := d.svc.Load(ctx, id)
		if err != nil {
			continue
		}
		in, ok := d.nextMove(tbl)
		if !ok {
			continue
		}
		res, err := d.svc.Dispatch(ctx, id, in)
		if err != nil {
			// Lost a race with a human or the clock; re-evaluated on
			// the next poll.
			continue
		}
		if notify != nil {
			notify.TableChanged(id, res)
		}
	}
}

// nextMove derives the intent owed by the acting bot seat, if any.
func (d *Driver) nextMove(t *engine.Table) (engine.Intent, bool) {
	if t.ActiveSeat == engine.NoSeat {
		return engine.Intent{}, false
	}
	s := t.Seat(int(t.ActiveSeat))
	if s == nil || !s.IsBot {
		return engine.Intent{}, false
	}

	switch {
	case t.Phase.IsBetting():
		la, err := t.LegalActionsFor(s.Index)
		if err != nil {
			return engine.Intent{}, false
		}
		dec := d.strat.DecideBet(t, s.Index, la)
		return engine.Intent{
			Type:   engine.IntentBetAction,
			UID:    t.CreatorUID,
			Seat:   s.Index,
			Action: dec.Action,
			Amount: dec.Amount,
		}, true

	case t.Phase.IsDraw():
		return engine.Intent{
			Type:    engine.IntentSubmitDraw,
			UID:     t.CreatorUID,
			Seat:    s.Index,
			Indices: d.strat.DecideDiscard(t, s.Index),
		}, true
	}
	return engine.Intent{}, false
}
