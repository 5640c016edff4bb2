package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
)

const walletID = "wallet"

// MongoStore holds the wallet in MongoDB. Debits are compare-and-swap
// updates on the wallet document so concurrent handlers can never take the
// balance negative; the idempotency index is a collection whose _id is the
// external reference.
type MongoStore struct {
	wallet       *mongo.Collection
	transactions *mongo.Collection
	idempotency  *mongo.Collection
	sessions     *mongo.Collection
	currency     string
}

// NewMongoStore wires the collections, ensures indexes and seeds the wallet
// document if it does not exist yet.
func NewMongoStore(ctx context.Context, db *mongo.Database, seedBalance int64) (*MongoStore, error) {
	s := &MongoStore{
		wallet:       db.Collection("wallet"),
		transactions: db.Collection("transactions"),
		idempotency:  db.Collection("idempotency"),
		sessions:     db.Collection("sessions"),
		currency:     "NGN",
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	_, err := s.wallet.UpdateOne(ctx,
		bson.M{"_id": walletID},
		bson.M{"$setOnInsert": bson.M{"balance": seedBalance, "currency": s.currency}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed wallet: %v", err)
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.M{"external_ref": 1}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.M{"kind": 1}},
		{Keys: bson.M{"created_at": -1}},
	}
	if _, err := s.transactions.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Printf("Failed to create transaction indexes: %v", err)
		return fmt.Errorf("failed to create indexes: %v", err)
	}
	return nil
}

func (s *MongoStore) Apply(ctx context.Context, kind string, amount int64, externalRef string) (*models.Transaction, error) {
	if !validKind(kind) {
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	delta := amount
	if isDebit(kind) {
		delta = -amount
		// The $gte filter makes check-and-debit one atomic update.
		res, err := s.wallet.UpdateOne(ctx,
			bson.M{"_id": walletID, "balance": bson.M{"$gte": amount}},
			bson.M{"$inc": bson.M{"balance": delta}},
		)
		if err != nil {
			log.Printf("Debit update failed for kind %s: %v", kind, err)
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if res.MatchedCount == 0 {
			current, err := s.Balance(ctx)
			if err != nil {
				return nil, err
			}
			return nil, &InsufficientFundsError{Required: amount, Current: current}
		}
	} else {
		if _, err := s.wallet.UpdateOne(ctx,
			bson.M{"_id": walletID},
			bson.M{"$inc": bson.M{"balance": delta}},
		); err != nil {
			log.Printf("Credit update failed for kind %s: %v", kind, err)
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
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
	if _, err := s.transactions.InsertOne(ctx, tx); err != nil {
		// Fail closed: undo the balance move so it never drifts from the
		// recorded log.
		if _, undoErr := s.wallet.UpdateOne(ctx,
			bson.M{"_id": walletID},
			bson.M{"$inc": bson.M{"balance": -delta}},
		); undoErr != nil {
			log.Printf("CRITICAL: failed to compensate balance after transaction insert failure: %v", undoErr)
		}
		log.Printf("Transaction insert failed for kind %s: %v", kind, err)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if externalRef != "" {
		if _, err := s.idempotency.UpdateOne(ctx,
			bson.M{"_id": externalRef},
			bson.M{"$set": bson.M{"transaction_id": tx.ID}},
		); err != nil {
			log.Printf("Failed to link idempotency record %s to transaction %s: %v", externalRef, tx.ID, err)
		}
	}
	return tx, nil
}

func (s *MongoStore) Balance(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var account models.Account
	if err := s.wallet.FindOne(ctx, bson.M{"_id": walletID}).Decode(&account); err != nil {
		log.Printf("Failed to read wallet balance: %v", err)
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return account.Balance, nil
}

func (s *MongoStore) Reserve(ctx context.Context, externalRef string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	record := models.IdempotencyRecord{
		ExternalRef: externalRef,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.idempotency.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		log.Printf("Failed to reserve external_ref %s: %v", externalRef, err)
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return true, nil
}

func (s *MongoStore) Release(ctx context.Context, externalRef string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Never release a reservation that already produced a transaction.
	_, err := s.idempotency.DeleteOne(ctx, bson.M{
		"_id":            externalRef,
		"transaction_id": bson.M{"$exists": false},
	})
	if err != nil {
		log.Printf("Failed to release external_ref %s: %v", externalRef, err)
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (s *MongoStore) CreateSession(ctx context.Context, session *models.PaymentSession) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.sessions.ReplaceOne(ctx,
		bson.M{"_id": session.TxRef},
		session,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		log.Printf("Failed to save session %s: %v", session.TxRef, err)
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (s *MongoStore) CompleteSession(ctx context.Context, txRef string) (*models.PaymentSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var session models.PaymentSession
	err := s.sessions.FindOneAndUpdate(ctx,
		bson.M{"_id": txRef},
		bson.M{"$set": bson.M{"status": models.SessionCompleted, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSessionNotFound
		}
		log.Printf("Failed to complete session %s: %v", txRef, err)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &session, nil
}
