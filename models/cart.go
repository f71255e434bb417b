package models

// CartItem is a denormalized snapshot of a retailer product the user added.
// Keyed by (UserID, ItemKey) where ItemKey is "<retailer>#<productId>".
type CartItem struct {
	UserID       string `json:"user_id" bson:"user_id" dynamodbav:"user_id"`
	ItemKey      string `json:"item_key" bson:"item_key" dynamodbav:"item_key"`
	Retailer     string `json:"retailer" bson:"retailer" dynamodbav:"retailer"`
	ProductID    string `json:"productId" bson:"productId" dynamodbav:"productId"`
	Title        string `json:"title" bson:"title" dynamodbav:"title"`
	PriceCents   int64  `json:"price_cents" bson:"price_cents" dynamodbav:"price_cents"`
	Currency     string `json:"currency" bson:"currency" dynamodbav:"currency"`
	ProductURL   string `json:"productUrl" bson:"productUrl" dynamodbav:"productUrl"`
	ImageURL     string `json:"imageUrl" bson:"imageUrl" dynamodbav:"imageUrl"`
	SelectedSize string `json:"selectedSize" bson:"selectedSize" dynamodbav:"selectedSize"`
	Color        string `json:"color" bson:"color" dynamodbav:"color"`
	Category     string `json:"category" bson:"category" dynamodbav:"category"`
	AddedAt      string `json:"addedAt" bson:"addedAt" dynamodbav:"addedAt"`
	UpdatedAt    string `json:"updatedAt" bson:"updatedAt" dynamodbav:"updatedAt"`
}

// CartItemKey builds the composite sort key for a retailer product.
func CartItemKey(retailer, productID string) string {
	return retailer + "#" + productID
}
