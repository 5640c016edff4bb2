package models

import "time"

// GrowthEntry is one recorded set of child measurements. Weight in kg,
// height and MUAC in cm.
type GrowthEntry struct {
	ID        string    `bson:"_id" json:"id"`
	Date      string    `bson:"date" json:"date"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Weight    float64   `bson:"weight" json:"weight"`
	Height    float64   `bson:"height" json:"height"`
	MUAC      float64   `bson:"muac" json:"muac"`
}
