package models

import (
	"time"
)

// Transaction kinds. Signed into the balance: top-ups credit, REDEEM and
// PAYOUT debit.
const (
	KindTopUpDirect  = "TOPUP_DIRECT"
	KindTopUpGateway = "TOPUP_GATEWAY"
	KindRedeem       = "REDEEM"
	KindPayout       = "PAYOUT"
)

// Transaction statuses.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusFailed    = "FAILED"
)

// Account is the wallet document. Balance is in minor currency units and is
// never negative.
type Account struct {
	ID       string `bson:"_id" json:"id"`
	Balance  int64  `bson:"balance" json:"balance"`
	Currency string `bson:"currency" json:"currency"`
}

// Transaction is one confirmed balance movement. Immutable once written.
type Transaction struct {
	ID          string     `bson:"_id" json:"id"`
	Kind        string     `bson:"kind" json:"kind"`
	Amount      int64      `bson:"amount" json:"amount"`
	Status      string     `bson:"status" json:"status"`
	ExternalRef string     `bson:"external_ref,omitempty" json:"external_ref,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	ConfirmedAt *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
}

// PaymentSession statuses.
const (
	SessionCreated   = "CREATED"
	SessionAwaiting  = "AWAITING_CONFIRMATION"
	SessionCompleted = "COMPLETED"
	SessionExpired   = "EXPIRED"
)

// PaymentSession tracks a hosted payment intent. It becomes COMPLETED only
// through a reconciled webhook carrying the same tx_ref.
type PaymentSession struct {
	TxRef        string    `bson:"_id" json:"tx_ref"`
	Amount       int64     `bson:"amount" json:"amount"`
	Status       string    `bson:"status" json:"status"`
	RedirectLink string    `bson:"redirect_link,omitempty" json:"redirect_link,omitempty"`
	PayerEmail   string    `bson:"payer_email,omitempty" json:"payer_email,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// IdempotencyRecord maps an external reference to the transaction it
// produced. At most one record per reference, never overwritten.
type IdempotencyRecord struct {
	ExternalRef   string    `bson:"_id" json:"external_ref"`
	TransactionID string    `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
