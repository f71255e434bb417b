package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/raushankrgupta/fitly-api/models"
	"github.com/raushankrgupta/fitly-api/store"
	"github.com/raushankrgupta/fitly-api/utils"
)

var cartRules = []rule{
	stringRule("retailer"),
	stringRule("productId"),
	stringRule("title"),
	{field: "price_cents", valid: isMinorUnits, invalid: invalidValue("price_cents must be a non-negative number")},
	stringRule("currency"),
	stringRule("productUrl"),
	stringRule("imageUrl"),
	stringRule("selectedSize"),
	stringRule("color"),
	stringRule("category"),
}

type cartRequest struct {
	Retailer     string  `json:"retailer"`
	ProductID    string  `json:"productId"`
	Title        string  `json:"title"`
	PriceCents   float64 `json:"price_cents"`
	Currency     string  `json:"currency"`
	ProductURL   string  `json:"productUrl"`
	ImageURL     string  `json:"imageUrl"`
	SelectedSize string  `json:"selectedSize"`
	Color        string  `json:"color"`
	Category     string  `json:"category"`
}

type cartPage struct {
	Items      []models.CartItem `json:"items"`
	NextCursor *string           `json:"nextCursor"`
}

// AddCartItem handles POST /cart. Re-adding the same retailer product
// updates it in place and keeps its first addedAt.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) error {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil
	}

	body, ok := readBody(r)
	if !ok {
		fail(w, r, errInvalidJSON, nil)
		return nil
	}
	if v := body.check(cartRules); v != nil {
		reject(w, r, v)
		return nil
	}
	var req cartRequest
	if err := body.bind(cartRules, &req); err != nil {
		return fmt.Errorf("bind cart item: %w", err)
	}

	now := h.timestamp()
	key := store.Key{"user_id": userID, "item_key": models.CartItemKey(req.Retailer, req.ProductID)}
	set := store.Fields{
		"retailer":     req.Retailer,
		"productId":    req.ProductID,
		"title":        req.Title,
		"price_cents":  int64(req.PriceCents),
		"currency":     req.Currency,
		"productUrl":   req.ProductURL,
		"imageUrl":     req.ImageURL,
		"selectedSize": req.SelectedSize,
		"color":        req.Color,
		"category":     req.Category,
		"updatedAt":    now,
	}
	if err := h.cart.Update(r.Context(), key, set, store.Fields{"addedAt": now}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save cart item")
		fail(w, r, storeError("Failed to save cart item"), nil)
		return nil
	}

	utils.RespondJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
	return nil
}

// ListCart handles GET /cart?cursor=.
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) error {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil
	}

	page, err := h.cart.Query(r.Context(), store.Query{
		Partition: userID,
		Limit:     h.cartPageLimit,
		Cursor:    r.URL.Query().Get("cursor"),
	})
	if errors.Is(err, store.ErrInvalidCursor) {
		fail(w, r, errInvalidCursor, nil)
		return nil
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list cart items")
		fail(w, r, storeError("Failed to retrieve cart items"), nil)
		return nil
	}

	resp := cartPage{Items: page.Items}
	if resp.Items == nil {
		resp.Items = []models.CartItem{}
	}
	if page.NextCursor != "" {
		resp.NextCursor = &page.NextCursor
	}
	utils.RespondJSON(w, r, http.StatusOK, resp)
	return nil
}
