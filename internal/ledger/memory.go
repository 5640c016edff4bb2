package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
)

// MemoryStore keeps the wallet in process memory behind a single mutex.
// Used in tests and as the reference implementation of the Store contract.
type MemoryStore struct {
	mu sync.Mutex

	balance      int64
	currency     string
	transactions []*models.Transaction
	refs         map[string]string
	sessions     map[string]*models.PaymentSession
}

func NewMemoryStore(seedBalance int64) *MemoryStore {
	return &MemoryStore{
		balance:  seedBalance,
		currency: "NGN",
		refs:     make(map[string]string),
		sessions: make(map[string]*models.PaymentSession),
	}
}

func (s *MemoryStore) Apply(ctx context.Context, kind string, amount int64, externalRef string) (*models.Transaction, error) {
	if !validKind(kind) {
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if isDebit(kind) {
		if s.balance < amount {
			return nil, &InsufficientFundsError{Required: amount, Current: s.balance}
		}
		s.balance -= amount
	} else {
		s.balance += amount
	}

	now := time.Now().UTC()
	tx := &models.Transaction{
		ID:          uuid.NewString(),
		Kind:        kind,
		Amount:      amount,
		Status:      models.StatusConfirmed,
		ExternalRef: externalRef,
		CreatedAt:   now,
		ConfirmedAt: &now,
	}
	s.transactions = append(s.transactions, tx)
	if externalRef != "" {
		s.refs[externalRef] = tx.ID
	}
	return tx, nil
}

func (s *MemoryStore) Balance(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

func (s *MemoryStore) Reserve(ctx context.Context, externalRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.refs[externalRef]; exists {
		return false, nil
	}
	s.refs[externalRef] = ""
	return true, nil
}

func (s *MemoryStore) Release(ctx context.Context, externalRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Only unapplied reservations may be released.
	if txID, exists := s.refs[externalRef]; exists && txID == "" {
		delete(s.refs, externalRef)
	}
	return nil
}

func (s *MemoryStore) CreateSession(ctx context.Context, session *models.PaymentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.TxRef] = &copied
	return nil
}

func (s *MemoryStore) CompleteSession(ctx context.Context, txRef string) (*models.PaymentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[txRef]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.Status = models.SessionCompleted
	session.UpdatedAt = time.Now().UTC()
	copied := *session
	return &copied, nil
}

// Transactions returns a snapshot of the append-only log.
func (s *MemoryStore) Transactions() []*models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}
