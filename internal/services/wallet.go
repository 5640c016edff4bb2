package services

import (
	"context"
	"log"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/ledger"
	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
)

// WalletService exposes balance reads, direct top-ups and the fixed-cost
// NutriKit redemption. All balance rules live in the ledger store; this
// layer only validates input and picks the transaction kind.
type WalletService struct {
	store      ledger.Store
	redeemCost int64
}

func NewWalletService(store ledger.Store, redeemCost int64) *WalletService {
	return &WalletService{store: store, redeemCost: redeemCost}
}

func (s *WalletService) Balance(ctx context.Context) (int64, error) {
	return s.store.Balance(ctx)
}

func (s *WalletService) RedeemCost() int64 {
	return s.redeemCost
}

// TopUp credits the wallet directly and returns the new balance.
func (s *WalletService) TopUp(ctx context.Context, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ledger.ErrInvalidAmount
	}
	tx, err := s.store.Apply(ctx, models.KindTopUpDirect, amount, "")
	if err != nil {
		return 0, err
	}
	balance, err := s.store.Balance(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("Wallet topped up: +%d (tx %s), new balance: %d", amount, tx.ID, balance)
	return balance, nil
}

// Redeem debits the fixed NutriKit cost and returns the new balance.
func (s *WalletService) Redeem(ctx context.Context) (int64, error) {
	tx, err := s.store.Apply(ctx, models.KindRedeem, s.redeemCost, "")
	if err != nil {
		return 0, err
	}
	balance, err := s.store.Balance(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("NutriKit redeemed (tx %s), remaining balance: %d", tx.ID, balance)
	return balance, nil
}
