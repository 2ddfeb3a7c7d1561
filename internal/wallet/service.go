package wallet

import (
	"context"
	"errors"
	"time"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownAccount    = errors.New("unknown account")
)

// Service tracks player bankrolls outside of any table document. Buy-ins
// debit here before chips appear on a table; cash-outs and tournament
// payouts credit back.
//
// Every mutation carries a caller-chosen reference string. A reference is
// applied at most once per account, so the table service can safely retry
// wallet side effects after a crash between the table commit and the
// wallet write.
type Service interface {
	Balance(ctx context.Context, uid string) (int64, error)
	Credit(ctx context.Context, uid string, amount int64, ref, memo string) (int64, error)
	Debit(ctx context.Context, uid string, amount int64, ref, memo string) (int64, error)
	Recent(ctx context.Context, uid string, limit int) ([]Transaction, error)
	Close() error
}

// Transaction is one signed ledger entry. Amount is positive for credits
// and negative for debits; BalanceAfter is the account balance once the
// entry applied.
type Transaction struct {
	UID          string    `json:"uid"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Ref          string    `json:"ref"`
	Memo         string    `json:"memo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func clampRecentLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}
