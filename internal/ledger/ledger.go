package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
)

var (
	// ErrStorage marks durability failures. The balance is unchanged when
	// an operation returns it.
	ErrStorage = errors.New("ledger storage failure")

	// ErrSessionNotFound is returned when no payment session matches a
	// tx_ref.
	ErrSessionNotFound = errors.New("payment session not found")

	// ErrInvalidAmount rejects non-positive amounts before any store work.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// InsufficientFundsError is returned when a debit would take the balance
// below zero. Carries the amounts so callers can report them.
type InsufficientFundsError struct {
	Required int64
	Current  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d, current %d", e.Required, e.Current)
}

// Store is the authoritative wallet. Apply is the only way balance changes;
// implementations must make each Apply a single atomic unit so no caller
// observes a balance that lacks a recorded transaction.
type Store interface {
	// Apply appends a CONFIRMED transaction and moves the balance. Debits
	// (REDEEM, PAYOUT) fail with InsufficientFundsError when balance is
	// too low, leaving everything untouched.
	Apply(ctx context.Context, kind string, amount int64, externalRef string) (*models.Transaction, error)

	// Balance reflects every completed Apply.
	Balance(ctx context.Context) (int64, error)

	// Reserve records externalRef and returns true iff it was never
	// reserved before. Atomic under concurrent duplicate deliveries.
	Reserve(ctx context.Context, externalRef string) (bool, error)

	// Release rolls back a reservation after a failed Apply so the sender
	// can retry the event.
	Release(ctx context.Context, externalRef string) error

	// CreateSession records or replaces a payment session keyed by tx_ref.
	CreateSession(ctx context.Context, session *models.PaymentSession) error

	// CompleteSession marks the session COMPLETED and returns it, or
	// ErrSessionNotFound.
	CompleteSession(ctx context.Context, txRef string) (*models.PaymentSession, error)
}

func isDebit(kind string) bool {
	return kind == models.KindRedeem || kind == models.KindPayout
}

func validKind(kind string) bool {
	switch kind {
	case models.KindTopUpDirect, models.KindTopUpGateway, models.KindRedeem, models.KindPayout:
		return true
	}
	return false
}
