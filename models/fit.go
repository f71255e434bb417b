package models

import "time"

// FitStatus is the lifecycle state of a fit generation job.
type FitStatus string

const (
	FitPending FitStatus = "PENDING"
	FitReady   FitStatus = "READY"
	FitFailed  FitStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed.
func (s FitStatus) Terminal() bool {
	return s == FitReady || s == FitFailed
}

// FitMode selects how a fit image is produced.
type FitMode string

const (
	// ModeComposite generates the image synchronously within the request.
	ModeComposite FitMode = "MVP_COMPOSITE"
	// ModeBedrock leaves the job PENDING for an external worker.
	ModeBedrock FitMode = "BEDROCK"
)

// Valid reports whether m is a known mode.
func (m FitMode) Valid() bool {
	return m == ModeComposite || m == ModeBedrock
}

// ItemRef points at a cart item selected for a fit.
type ItemRef struct {
	Retailer  string `json:"retailer" bson:"retailer" dynamodbav:"retailer"`
	ProductID string `json:"productId" bson:"productId" dynamodbav:"productId"`
}

// FitJob represents a fit generation request and its result.
// ImageKey is stored under "imageUrl" and holds an object key, never a URL.
type FitJob struct {
	FitID        string    `json:"fitId" bson:"fitId" dynamodbav:"fitId"`
	UserID       string    `json:"user_id" bson:"user_id" dynamodbav:"user_id"`
	Items        []ItemRef `json:"items" bson:"items" dynamodbav:"items"`
	Mode         FitMode   `json:"mode" bson:"mode" dynamodbav:"mode"`
	Status       FitStatus `json:"status" bson:"status" dynamodbav:"status"`
	Name         *string   `json:"name,omitempty" bson:"name,omitempty" dynamodbav:"name,omitempty"`
	BodyAssetKey *string   `json:"body_asset_key,omitempty" bson:"body_asset_key,omitempty" dynamodbav:"body_asset_key,omitempty"`
	ImageKey     *string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty" dynamodbav:"imageUrl,omitempty"`
	CreatedAt    string    `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt    string    `json:"updatedAt" bson:"updatedAt" dynamodbav:"updatedAt"`
}

// TimestampLayout is fixed width so that lexical order matches time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Timestamp formats t in UTC using TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
