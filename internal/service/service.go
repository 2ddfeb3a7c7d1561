// Package service runs intents against stored table documents under
// optimistic concurrency and applies the wallet side effects of committed
// transitions.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/bcrypt"

	"felt/engine"
	"felt/internal/wallet"
	"felt/store"
)

const (
	maxCASRetries      = 5
	idempotencyEntries = 4096
)

// Result is the committed document plus its new store version.
type Result struct {
	Table   *engine.Table
	Version int64
}

type Service struct {
	store  store.Store
	wallet wallet.Service
	nonce  []byte

	// Fingerprints of recently committed intents. A retried delivery of
	// the same gesture against the same hand and phase returns the
	// current document instead of replaying.
	seen *lru.Cache[string, struct{}]
}

func New(st store.Store, w wallet.Service) (*Service, error) {
	seen, err := lru.New[string, struct{}](idempotencyEntries)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return &Service{store: st, wallet: w, nonce: nonce, seen: seen}, nil
}

// CreateTable validates the config, hashes the optional join password,
// and persists a fresh IDLE document.
func (s *Service) CreateTable(ctx context.Context, creatorUID string, cfg engine.Config, password string) (*engine.Table, error) {
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		cfg.PasswordHash = string(hash)
	}
	tbl, err := engine.NewTable(uuid.NewString(), creatorUID, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, tbl); err != nil {
		return nil, err
	}
	log.Printf("[Service] table %s created by %s (%s %s %s)",
		tbl.ID, creatorUID, cfg.Variant, cfg.BettingType, cfg.Mode)
	return tbl, nil
}

// CheckPassword verifies a join password against the table config.
func CheckPassword(tbl *engine.Table, password string) error {
	if tbl.Config.PasswordHash == "" {
		return nil
	}
	if bcrypt.CompareHashAndPassword([]byte(tbl.Config.PasswordHash), []byte(password)) != nil {
		return engine.Errf(engine.KindNotAuthorized, "wrong table password")
	}
	return nil
}

// Load fetches the current document for read-only use.
func (s *Service) Load(ctx context.Context, tableID string) (*engine.Table, int64, error) {
	return s.store.Load(ctx, tableID)
}

// List returns every stored table id.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Delete removes a table document.
func (s *Service) Delete(ctx context.Context, tableID string) error {
	return s.store.Delete(ctx, tableID)
}

// Dispatch applies an intent to a table inside a load/apply/save loop.
// A version race reloads and retries; exhausting the retries surfaces as
// Conflict. On success the committed document is returned.
//
// Buy-in intents debit the caller's bankroll before touching the table;
// a rejected intent credits the chips straight back.
func (s *Service) Dispatch(ctx context.Context, tableID string, in engine.Intent) (Result, error) {
	ref, err := s.debitBuyIn(ctx, tableID, in)
	if err != nil {
		return Result{}, err
	}
	res, err := s.dispatch(ctx, tableID, in)
	if err != nil {
		s.refundBuyIn(ctx, in, ref)
	}
	return res, err
}

func (s *Service) dispatch(ctx context.Context, tableID string, in engine.Intent) (Result, error) {
	now := time.Now()

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		loaded, version, err := s.store.Load(ctx, tableID)
		if err != nil {
			return Result{}, err
		}

		key := in.IdempotencyKey(tableID, loaded.HandNumber, loaded.Phase)
		if _, dup := s.seen.Get(key); dup {
			return Result{Table: loaded, Version: version}, nil
		}

		work := loaded.Clone()
		rng := engine.HandRand(tableID, work.HandNumber+1, version, s.nonce)
		applyErr := engine.Apply(work, in, now, rng)
		if applyErr != nil && !errors.Is(applyErr, engine.ErrDeckUnderflow) {
			return Result{Table: loaded, Version: version}, applyErr
		}

		newVersion, saveErr := s.store.Save(ctx, work, version)
		if errors.Is(saveErr, store.ErrVersionMismatch) {
			continue
		}
		if saveErr != nil {
			return Result{}, saveErr
		}

		s.seen.Add(key, struct{}{})
		s.creditPayouts(ctx, tableID, loaded, work)
		if applyErr != nil {
			// Deck underflow: the aborted, refunded document was
			// committed; the caller still learns the hand died.
			return Result{Table: work, Version: newVersion}, applyErr
		}
		return Result{Table: work, Version: newVersion}, nil
	}
	return Result{}, engine.ErrConflict
}

// debitBuyIn charges a join or registration buy-in against the caller's
// bankroll before the table transition runs. The reference is scoped to
// the hand the player joins at, so a duplicate delivery is a no-op while
// a genuine later re-join charges again.
func (s *Service) debitBuyIn(ctx context.Context, tableID string, in engine.Intent) (string, error) {
	if s.wallet == nil {
		return "", nil
	}
	var prefix string
	switch in.Type {
	case engine.IntentJoinAsPlayer:
		prefix = "buyin"
	case engine.IntentRegister:
		prefix = "sngbuyin"
	default:
		return "", nil
	}
	loaded, _, err := s.store.Load(ctx, tableID)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("%s:%s:%s:h%d", prefix, tableID, in.UID, loaded.HandNumber)

	_, err = s.wallet.Debit(ctx, in.UID, in.BuyIn, ref, "table buy-in")
	switch {
	case errors.Is(err, wallet.ErrInsufficientFunds), errors.Is(err, wallet.ErrUnknownAccount):
		return "", engine.Errf(engine.KindInsufficientChips, "bankroll cannot cover buy-in of %d", in.BuyIn)
	case errors.Is(err, wallet.ErrInvalidAmount):
		return "", engine.Errf(engine.KindInvalidInput, "invalid buy-in %d", in.BuyIn)
	}
	return ref, err
}

func (s *Service) refundBuyIn(ctx context.Context, in engine.Intent, ref string) {
	if s.wallet == nil || ref == "" {
		return
	}
	if _, err := s.wallet.Credit(ctx, in.UID, in.BuyIn, "refund:"+ref, "buy-in refund"); err != nil {
		log.Printf("[Service] buy-in refund failed for %s: %v", in.UID, err)
	}
}

// creditPayouts mirrors tournament prize money into bankrolls once the
// document transitions to COMPLETED. References make every movement
// idempotent, so a crash between the table commit and the wallet write
// is repaired by the retry.
func (s *Service) creditPayouts(ctx context.Context, tableID string, before, after *engine.Table) {
	if s.wallet == nil {
		return
	}
	if before.Tournament != nil && after.Tournament != nil &&
		before.Tournament.State != engine.TournamentCompleted &&
		after.Tournament.State == engine.TournamentCompleted {
		for _, p := range after.Tournament.Payouts {
			if p.UID == "" || p.Amount <= 0 {
				continue
			}
			if strings.HasPrefix(p.UID, "bot-") {
				// House bots play for free and keep nothing.
				continue
			}
			ref := fmt.Sprintf("payout:%s:pos%d", tableID, p.Position)
			if _, err := s.wallet.Credit(ctx, p.UID, p.Amount, ref,
				fmt.Sprintf("tournament payout, place %d", p.Position)); err != nil {
				log.Printf("[Service] table %s payout credit failed for %s: %v", tableID, p.UID, err)
			}
		}
	}
}

// AppendChat adds a chat line to the table document, bounded to the most
// recent entries.
func (s *Service) AppendChat(ctx context.Context, tableID, uid, name, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > 500 {
		return Result{}, engine.Errf(engine.KindInvalidInput, "chat message must be 1..500 chars")
	}
	now := time.Now()

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		loaded, version, err := s.store.Load(ctx, tableID)
		if err != nil {
			return Result{}, err
		}
		work := loaded.Clone()
		work.ChatLog = append(work.ChatLog, engine.ChatMessage{
			UID: uid, Name: name, Text: text, At: engine.ToMillis(now),
		})
		if len(work.ChatLog) > engine.MaxChatLog {
			work.ChatLog = work.ChatLog[len(work.ChatLog)-engine.MaxChatLog:]
		}
		newVersion, saveErr := s.store.Save(ctx, work, version)
		if errors.Is(saveErr, store.ErrVersionMismatch) {
			continue
		}
		if saveErr != nil {
			return Result{}, saveErr
		}
		return Result{Table: work, Version: newVersion}, nil
	}
	return Result{}, engine.ErrConflict
}
