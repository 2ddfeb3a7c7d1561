package service

import (
	"context"
	"testing"
	"time"

	"felt/engine"
	"felt/internal/wallet"
	"felt/store"
)

func cashConfig() engine.Config {
	return engine.Config{
		Variant:     engine.VariantHoldem,
		BettingType: engine.NoLimit,
		Mode:        engine.ModeCash,
		MaxPlayers:  6,
		SmallBlind:  10,
		BigBlind:    20,
		MinBuyIn:    400,
		MaxBuyIn:    2000,
		TurnTimeMS:  30_000,
	}
}

func newService(t *testing.T) (*Service, wallet.Service) {
	t.Helper()
	w := wallet.NewMemoryService()
	svc, err := New(store.NewMemoryStore(), w)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, w
}

func fund(t *testing.T, w wallet.Service, uid string, amount int64) {
	t.Helper()
	if _, err := w.Credit(context.Background(), uid, amount, "signup:"+uid, ""); err != nil {
		t.Fatalf("fund %s: %v", uid, err)
	}
}

func TestJoinDebitsBankroll(t *testing.T) {
	ctx := context.Background()
	svc, w := newService(t)
	fund(t, w, "alice", 3000)

	tbl, err := svc.CreateTable(ctx, "alice", cashConfig(), "")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	res, err := svc.Dispatch(ctx, tbl.ID, engine.Intent{
		Type: engine.IntentJoinAsPlayer, UID: "alice", DisplayName: "alice", BuyIn: 1000,
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if res.Table.SeatByUID("alice") == nil {
		t.Fatalf("expected alice seated")
	}
	balance, _ := w.Balance(ctx, "alice")
	if balance != 2000 {
		t.Fatalf("expected bankroll 2000 after buy-in, got %d", balance)
	}
}

func TestJoinRejectedWithoutFunds(t *testing.T) {
	ctx := context.Background()
	svc, w := newService(t)
	fund(t, w, "alice", 3000)
	fund(t, w, "bob", 100)

	tbl, err := svc.CreateTable(ctx, "alice", cashConfig(), "")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	_, err = svc.Dispatch(ctx, tbl.ID, engine.Intent{
		Type: engine.IntentJoinAsPlayer, UID: "bob", DisplayName: "bob", BuyIn: 1000,
	})
	if engine.KindOf(err) != engine.KindInsufficientChips {
		t.Fatalf("expected InsufficientChips, got %v", err)
	}

	loaded, _, _ := svc.Load(ctx, tbl.ID)
	if loaded.SeatByUID("bob") != nil {
		t.Fatalf("bob must not be seated")
	}
	balance, _ := w.Balance(ctx, "bob")
	if balance != 100 {
		t.Fatalf("expected bob's bankroll untouched, got %d", balance)
	}
}

func TestRejectedJoinRefundsBuyIn(t *testing.T) {
	ctx := context.Background()
	svc, w := newService(t)
	fund(t, w, "alice", 3000)

	tbl, err := svc.CreateTable(ctx, "alice", cashConfig(), "")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	// Below the table minimum: wallet is charged up front, then the
	// engine rejects and the charge is reversed.
	_, err = svc.Dispatch(ctx, tbl.ID, engine.Intent{
		Type: engine.IntentJoinAsPlayer, UID: "alice", DisplayName: "alice", BuyIn: 50,
	})
	if engine.KindOf(err) != engine.KindInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	balance, _ := w.Balance(ctx, "alice")
	if balance != 3000 {
		t.Fatalf("expected full refund to 3000, got %d", balance)
	}
}

func TestDispatchRetriesOnVersionRace(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemoryStore()
	flaky := &racingStore{Store: inner, failSaves: 2}
	svc, err := New(flaky, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	tbl, err := svc.CreateTable(ctx, "alice", cashConfig(), "")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	res, err := svc.Dispatch(ctx, tbl.ID, engine.Intent{
		Type: engine.IntentJoinAsPlayer, UID: "alice", DisplayName: "alice", BuyIn: 1000,
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if res.Table.SeatByUID("alice") == nil {
		t.Fatalf("expected alice seated after retries")
	}
	if flaky.saves < 3 {
		t.Fatalf("expected at least 3 save attempts, got %d", flaky.saves)
	}
}

func TestDispatchGivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	flaky := &racingStore{Store: store.NewMemoryStore(), failSaves: 100}
	svc, err := New(flaky, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	tbl, err := svc.CreateTable(ctx, "alice", cashConfig(), "")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	_, err = svc.Dispatch(ctx, tbl.ID, engine.Intent{
		Type: engine.IntentJoinAsPlayer, UID: "alice", DisplayName: "alice", BuyIn: 1000,
	})
	if engine.KindOf(err) != engine.KindConflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestDuplicateIntentAppliesOnce(t *testing.T) {
	ctx := context.Background()
	svc, w := newService(t)
	fund(t, w, "alice", 3000)
	fund(t, w, "bob", 3000)

	tbl, err := svc.CreateTable(ctx, "alice", cashConfig(), "")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, uid := range []string{"alice", "bob"} {
		if _, err := svc.Dispatch(ctx, tbl.ID, engine.Intent{
			Type: engine.IntentJoinAsPlayer, UID: uid, DisplayName: uid, BuyIn: 1000,
		}); err != nil {
			t.Fatalf("join %s: %v", uid, err)
		}
	}
	if _, err := svc.Dispatch(ctx, tbl.ID, engine.Intent{Type: engine.IntentDeal, UID: "alice"}); err != nil {
		t.Fatalf("deal: %v", err)
	}
	res, err := svc.Dispatch(ctx, tbl.ID, engine.Intent{Type: engine.IntentResolveCut, UID: "alice"})
	if err != nil {
		t.Fatalf("resolve cut: %v", err)
	}

	actor := res.Table.Seat(int(res.Table.ActiveSeat))
	in := engine.Intent{
		Type: engine.IntentBetAction, UID: actor.UID, Seat: actor.Index, Action: engine.ActionCall,
	}
	first, err := svc.Dispatch(ctx, tbl.ID, in)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	// Same gesture delivered again: no replay, no error.
	second, err := svc.Dispatch(ctx, tbl.ID, in)
	if err != nil {
		t.Fatalf("duplicate call: %v", err)
	}
	if second.Version != first.Version {
		t.Fatalf("duplicate must not advance the document: %d vs %d", first.Version, second.Version)
	}
}

func TestCutShuffleDoesNotLeakHandOneDeck(t *testing.T) {
	ctx := context.Background()
	svc, err := New(store.NewMemoryStore(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	tbl, err := svc.CreateTable(ctx, "alice", cashConfig(), "")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, uid := range []string{"alice", "bob"} {
		if _, err := svc.Dispatch(ctx, tbl.ID, engine.Intent{
			Type: engine.IntentJoinAsPlayer, UID: uid, DisplayName: uid, BuyIn: 1000,
		}); err != nil {
			t.Fatalf("join %s: %v", uid, err)
		}
	}

	dealRes, err := svc.Dispatch(ctx, tbl.ID, engine.Intent{Type: engine.IntentDeal, UID: "alice"})
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if dealRes.Table.Phase != engine.PhaseCutForDealer {
		t.Fatalf("expected cut ceremony, got %s", dealRes.Table.Phase)
	}

	// The public cut cards are reproducible from the cut transition's own
	// seed: table id, upcoming hand, and the document version it loaded.
	cutVersion := dealRes.Version - 1
	rngCut := engine.HandRand(tbl.ID, 1, cutVersion, svc.nonce)
	scratch := engine.NewShuffledDeck(rngCut)
	for _, s := range dealRes.Table.Seats {
		if s == nil {
			continue
		}
		want, err := scratch.DealOne(rngCut)
		if err != nil {
			t.Fatalf("replay scratch deck: %v", err)
		}
		if s.CutCard != want {
			t.Fatalf("seat %d cut card %s, replay says %s", s.Index, s.CutCard, want)
		}
	}

	res, err := svc.Dispatch(ctx, tbl.ID, engine.Intent{Type: engine.IntentResolveCut, UID: "alice"})
	if err != nil {
		t.Fatalf("resolve cut: %v", err)
	}

	// Hand 1's deck must not continue the permutation that exposed the
	// cut cards, or the ceremony would reveal the first hole cards.
	leak := engine.NewShuffledDeck(engine.HandRand(tbl.ID, 1, cutVersion, svc.nonce))
	remaining := res.Table.Deck.Live
	dealt := len(leak.Live) - len(remaining)
	same := true
	for i := range remaining {
		if remaining[i] != leak.Live[dealt+i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("hand 1 dealt from the cut ceremony's permutation")
	}
}

func TestCheckPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	tbl, err := svc.CreateTable(ctx, "alice", cashConfig(), "hunter2x")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	if tbl.Config.PasswordHash == "" || tbl.Config.PasswordHash == "hunter2x" {
		t.Fatalf("expected hashed password, got %q", tbl.Config.PasswordHash)
	}
	if err := CheckPassword(tbl, "hunter2x"); err != nil {
		t.Fatalf("expected correct password accepted: %v", err)
	}
	if err := CheckPassword(tbl, "wrong"); err == nil {
		t.Fatalf("expected wrong password rejected")
	}

	open, err := svc.CreateTable(ctx, "alice", cashConfig(), "")
	if err != nil {
		t.Fatalf("create open table: %v", err)
	}
	if err := CheckPassword(open, ""); err != nil {
		t.Fatalf("open table must not require a password: %v", err)
	}
}

// racingStore fails the first failSaves Save calls with a version
// mismatch to exercise the retry loop.
type racingStore struct {
	store.Store
	failSaves int
	saves     int
}

func (r *racingStore) Save(ctx context.Context, tbl *engine.Table, expectVersion int64) (int64, error) {
	r.saves++
	if r.failSaves > 0 {
		r.failSaves--
		return 0, store.ErrVersionMismatch
	}
	return r.Store.Save(ctx, tbl, expectVersion)
}

func TestClockFiresTimeoutAfterGrace(t *testing.T) {
	cfg := cashConfig()
	tbl, err := engine.NewTable("t1", "alice", cfg)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	now := time.Now()

	if got := dueIntents(tbl, now); len(got) != 0 {
		t.Fatalf("idle table owes nothing, got %v", got)
	}

	tbl.Phase = engine.PhaseBettingPreflop
	tbl.ActiveSeat = 0
	tbl.TurnDeadline = engine.ToMillis(now.Add(-1 * time.Second))
	if got := dueIntents(tbl, now); len(got) != 0 {
		t.Fatalf("grace period must hold the timeout, got %v", got)
	}

	tbl.TurnDeadline = engine.ToMillis(now.Add(-3 * time.Second))
	got := dueIntents(tbl, now)
	if len(got) != 1 || got[0].Type != engine.IntentTimeout {
		t.Fatalf("expected timeout intent, got %v", got)
	}
}

func TestClockAdvancesExpiredRevealWindow(t *testing.T) {
	tbl, err := engine.NewTable("t1", "alice", cashConfig())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	now := time.Now()
	tbl.Phase = engine.PhaseShowdown
	tbl.ShowBluffDeadline = engine.ToMillis(now.Add(-time.Second))
	got := dueIntents(tbl, now)
	if len(got) != 1 || got[0].Type != engine.IntentStartNextHand {
		t.Fatalf("expected startNextHand intent, got %v", got)
	}

	tbl.ShowBluffDeadline = engine.ToMillis(now.Add(time.Second))
	if got := dueIntents(tbl, now); len(got) != 0 {
		t.Fatalf("open reveal window must block the clock, got %v", got)
	}
}

func TestClockRaisesDueBlindLevel(t *testing.T) {
	cfg := engine.Config{
		Variant:        engine.VariantTripleDraw,
		BettingType:    engine.FixedLimit,
		Mode:           engine.ModeSNG,
		MaxPlayers:     6,
		SmallBlind:     10,
		BigBlind:       20,
		TurnTimeMS:     30_000,
		BuyIn:          100,
		StartingChips:  1000,
		PrizeStructure: []float64{1},
	}
	tbl, err := engine.NewTable("t1", "alice", cfg)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	now := time.Now()
	tbl.Tournament.State = engine.TournamentRunning
	tbl.Tournament.BlindTimer.NextLevelAt = engine.ToMillis(now.Add(-time.Second))

	got := dueIntents(tbl, now)
	if len(got) != 1 || got[0].Type != engine.IntentIncreaseBlindLevel {
		t.Fatalf("expected increaseBlindLevel intent, got %v", got)
	}

	tbl.Tournament.BlindTimer.CurrentLevel = engine.MaxBlindLevel
	if got := dueIntents(tbl, now); len(got) != 0 {
		t.Fatalf("capped blinds owe nothing, got %v", got)
	}
}

func TestStaleSweepSparesLiveTables(t *testing.T) {
	now := time.Now()
	tbl, err := engine.NewTable("t1", "alice", cashConfig())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	if isStale(tbl, now) {
		t.Fatalf("fresh table must not be stale")
	}

	tbl.History = []engine.HandSummary{{EndedAt: engine.ToMillis(now.Add(-25 * time.Hour))}}
	if !isStale(tbl, now) {
		t.Fatalf("day-old empty table should be stale")
	}

	tbl.Seats[0] = &engine.Seat{Index: 0, UID: "alice", Status: engine.SeatSittingOut}
	if isStale(tbl, now) {
		t.Fatalf("occupied table must not be stale")
	}
}
