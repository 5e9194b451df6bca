// internal/domain/cart/store.go
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"optivista/internal/domain/catalog"
)

// Store is the cart state machine. The stored list is loaded once by NewStore
// and rewritten in full after every transition that changes it.
//
// A transition is committed in memory only after it has been persisted, so a
// storage failure leaves both sides on the previous list.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	key      string
	notifier Notifier
	log      *zap.Logger
	items    []CartItem
}

func NewStore(ctx context.Context, storage Storage, key string, notifier Notifier, logger *zap.Logger) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart: nil storage: %w", ErrInvalidCart)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	s := &Store{
		storage:  storage,
		key:      key,
		notifier: notifier,
		log:      logger.Named("cart"),
		items:    []CartItem{},
	}

	raw, ok, err := storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cart: load %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return s, nil
	}
	items, err := Decode(raw)
	if err != nil {
		s.log.Warn("discarding unreadable cart", zap.String("key", key), zap.Error(err))
		return s, nil
	}
	s.items = items
	return s, nil
}

// Add appends img with quantity 1. Adding an image already in the cart
// changes nothing and only reports a notice.
func (s *Store) Add(ctx context.Context, img catalog.Image) error {
	item := ItemFrom(img)
	if item.ID == "" {
		return ErrInvalidCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if findItemIndex(s.items, item.ID) >= 0 {
		s.notifier.Notify(alreadyInCart(img.Name))
		return nil
	}

	next := append(cloneItems(s.items), item)
	return s.commit(ctx, next, addedToCart(img.Name))
}

// UpdateQuantity sets the quantity of id; q <= 0 removes the line. Setting
// the quantity it already has reports the notice without persisting.
func (s *Store) UpdateQuantity(ctx context.Context, id string, q int) error {
	if q <= 0 {
		return s.Remove(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findItemIndex(s.items, strings.TrimSpace(id))
	if idx < 0 {
		return nil
	}
	if s.items[idx].Quantity == q {
		s.notifier.Notify(quantityUpdated(s.items[idx].Name, q))
		return nil
	}
	next := cloneItems(s.items)
	next[idx].Quantity = q
	return s.commit(ctx, next, quantityUpdated(next[idx].Name, q))
}

func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findItemIndex(s.items, strings.TrimSpace(id))
	if idx < 0 {
		return nil
	}
	removed := s.items[idx]
	next := make([]CartItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	return s.commit(ctx, next, removedFromCart(removed.Name))
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, []CartItem{}, cartCleared())
}

// Total is recomputed on every call.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.items)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// commit persists next and then makes it current. Caller holds mu.
func (s *Store) commit(ctx context.Context, next []CartItem, n Notice) error {
	raw, err := Encode(next)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, s.key, raw); err != nil {
		s.log.Error("persist cart failed", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("cart: persist %s: %w", s.key, err)
	}
	s.items = next
	s.notifier.Notify(n)
	return nil
}
