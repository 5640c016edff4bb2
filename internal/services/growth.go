package services

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

const growthEntryLimit = 100

type GrowthService struct {
	collection *mongo.Collection
}

func NewGrowthService(db *mongo.Database) *GrowthService {
	return &GrowthService{collection: db.Collection("growth")}
}

// Record stores one measurement set.
func (s *GrowthService) Record(ctx context.Context, weight, height, muac float64) (*models.GrowthEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	entry := &models.GrowthEntry{
		ID:        uuid.NewString(),
		Date:      now.Format("2006-01-02"),
		Timestamp: now,
		Weight:    weight,
		Height:    height,
		MUAC:      muac,
	}
	if _, err := s.collection.InsertOne(ctx, entry); err != nil {
		log.Printf("Failed to save growth entry: %v", err)
		return nil, fmt.Errorf("failed to save growth entry: %v", err)
	}
	log.Printf("Growth entry saved: W:%.1fkg H:%.1fcm MUAC:%.1fcm", weight, height, muac)
	return entry, nil
}

// Entries returns the most recent measurements, newest first.
func (s *GrowthService) Entries(ctx context.Context) ([]models.GrowthEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(growthEntryLimit))
	if err != nil {
		log.Printf("Failed to fetch growth entries: %v", err)
		return nil, fmt.Errorf("failed to fetch growth entries: %v", err)
	}
	defer cur.Close(ctx)

	var entries []models.GrowthEntry
	if err := cur.All(ctx, &entries); err != nil {
		log.Printf("Failed to decode growth entries: %v", err)
		return nil, fmt.Errorf("failed to decode growth entries: %v", err)
	}
	return entries, nil
}
