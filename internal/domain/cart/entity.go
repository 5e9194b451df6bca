// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"optivista/internal/domain/catalog"
)

var (
	ErrInvalidCart = errors.New("cart: invalid")
)

// DefaultCartTTL is the inactivity window after which a stored cart may be evicted.
// Storage adapters refresh it on each write.
const DefaultCartTTL = 7 * 24 * time.Hour

// StorageKey prefixes every persisted cart.
const StorageKey = "optivista_cart"

// Key returns the storage key of the cart belonging to a session.
func Key(session string) string {
	session = strings.TrimSpace(session)
	if session == "" {
		return StorageKey
	}
	return StorageKey + ":" + session
}

// CartItem is one line of the cart. There is at most one line per catalog image.
type CartItem struct {
	ID       string  `json:"id" firestore:"id"`
	Name     string  `json:"name" firestore:"name"`
	URL      string  `json:"url" firestore:"url"`
	AIHint   string  `json:"aiHint" firestore:"aiHint"`
	Price    float64 `json:"price" firestore:"price"`
	Quantity int     `json:"quantity" firestore:"quantity"`
}

// ItemFrom builds a quantity-1 line for img.
func ItemFrom(img catalog.Image) CartItem {
	return CartItem{
		ID:       strings.TrimSpace(img.ID),
		Name:     img.Name,
		URL:      img.URL,
		AIHint:   img.AIHint,
		Price:    img.EffectivePrice(),
		Quantity: 1,
	}
}

// Total is sum(price * quantity).
func Total(items []CartItem) float64 {
	var t float64
	for _, it := range items {
		t += it.Price * float64(it.Quantity)
	}
	return t
}

// Count is the number of units across all lines.
func Count(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Encode serializes items in order. A nil list encodes as [].
func Encode(items []CartItem) (string, error) {
	if items == nil {
		items = []CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("cart: encode: %w", err)
	}
	return string(b), nil
}

// Decode parses a persisted cart. Lines without an id or with a non-positive
// quantity are dropped; repeated ids are merged into the first occurrence.
func Decode(raw string) ([]CartItem, error) {
	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCart, err)
	}
	return normalize(items), nil
}

// ----------------------------
// Helpers
// ----------------------------

func findItemIndex(items []CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func normalize(src []CartItem) []CartItem {
	out := make([]CartItem, 0, len(src))
	for _, it := range src {
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" || it.Quantity <= 0 {
			continue
		}
		if idx := findItemIndex(out, it.ID); idx >= 0 {
			out[idx].Quantity += it.Quantity
			continue
		}
		out = append(out, it)
	}
	return out
}

func cloneItems(src []CartItem) []CartItem {
	return append(make([]CartItem, 0, len(src)), src...)
}
