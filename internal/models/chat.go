package models

import "time"

// ChatEntry records one advisor exchange.
type ChatEntry struct {
	ID          string    `bson:"_id" json:"id"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	UserMessage string    `bson:"user_message" json:"user_message"`
	AIResponse  string    `bson:"ai_response" json:"ai_response"`
}
