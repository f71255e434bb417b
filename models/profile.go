package models

// UserProfile holds a user's body measurements and fit preference.
// One record per user, fully replaced on every submission.
type UserProfile struct {
	UserID       string  `json:"user_id" bson:"user_id" dynamodbav:"user_id"`
	HeightCM     float64 `json:"height_cm" bson:"height_cm" dynamodbav:"height_cm"`
	WeightKG     float64 `json:"weight_kg" bson:"weight_kg" dynamodbav:"weight_kg"`
	ChestCM      float64 `json:"chest_cm" bson:"chest_cm" dynamodbav:"chest_cm"`
	WaistCM      float64 `json:"waist_cm" bson:"waist_cm" dynamodbav:"waist_cm"`
	HipsCM       float64 `json:"hips_cm" bson:"hips_cm" dynamodbav:"hips_cm"`
	InseamCM     float64 `json:"inseam_cm" bson:"inseam_cm" dynamodbav:"inseam_cm"`
	PreferredFit string  `json:"preferred_fit" bson:"preferred_fit" dynamodbav:"preferred_fit"`
	AvatarKey    *string `json:"avatar_key,omitempty" bson:"avatar_key,omitempty" dynamodbav:"avatar_key,omitempty"`
	UpdatedAt    string  `json:"updatedAt" bson:"updatedAt" dynamodbav:"updatedAt"`
}

// Measurement bounds, exclusive minimum and inclusive maximum.
const (
	MinMeasurement = 0
	MaxMeasurement = 300
)
