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

const chatHistoryLimit = 50

type ChatService struct {
	collection *mongo.Collection
}

func NewChatService(db *mongo.Database) *ChatService {
	return &ChatService{collection: db.Collection("chat_history")}
}

// Record stores one exchange.
func (s *ChatService) Record(ctx context.Context, userMessage, aiResponse string) (*models.ChatEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry := &models.ChatEntry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		UserMessage: userMessage,
		AIResponse:  aiResponse,
	}
	if _, err := s.collection.InsertOne(ctx, entry); err != nil {
		log.Printf("Failed to save chat entry: %v", err)
		return nil, fmt.Errorf("failed to save chat entry: %v", err)
	}
	return entry, nil
}

// History returns the most recent exchanges, newest first.
func (s *ChatService) History(ctx context.Context) ([]models.ChatEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(chatHistoryLimit))
	if err != nil {
		log.Printf("Failed to fetch chat history: %v", err)
		return nil, fmt.Errorf("failed to fetch chat history: %v", err)
	}
	defer cur.Close(ctx)

	var entries []models.ChatEntry
	if err := cur.All(ctx, &entries); err != nil {
		log.Printf("Failed to decode chat history: %v", err)
		return nil, fmt.Errorf("failed to decode chat history: %v", err)
	}
	return entries, nil
}
