// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	cartdom "optivista/internal/domain/cart"
)

var (
	ErrCartInvalidArgument = errors.New("cart_usecase: invalid argument")
)

// CartView is the cart as returned to the client after an operation.
type CartView struct {
	Items   []cartdom.CartItem `json:"items"`
	Total   float64            `json:"total"`
	Count   int                `json:"count"`
	Notices []cartdom.Notice   `json:"notices,omitempty"`
}

// CartUsecase runs cart transitions for a browser session.
type CartUsecase struct {
	storage cartdom.Storage
	catalog *CatalogUsecase
	log     *zap.Logger
}

func NewCartUsecase(storage cartdom.Storage, catalog *CatalogUsecase, logger *zap.Logger) *CartUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartUsecase{storage: storage, catalog: catalog, log: logger}
}

// open loads the session's cart with a recorder collecting its notices.
func (uc *CartUsecase) open(ctx context.Context, session string) (*cartdom.Store, *cartdom.NoticeRecorder, error) {
	sid := strings.TrimSpace(session)
	if sid == "" {
		return nil, nil, ErrCartInvalidArgument
	}
	rec := &cartdom.NoticeRecorder{}
	s, err := cartdom.NewStore(ctx, uc.storage, cartdom.Key(sid), rec, uc.log)
	if err != nil {
		return nil, nil, err
	}
	return s, rec, nil
}

func view(s *cartdom.Store, rec *cartdom.NoticeRecorder) CartView {
	return CartView{
		Items:   s.Items(),
		Total:   s.Total(),
		Count:   s.Count(),
		Notices: rec.Drain(),
	}
}

func (uc *CartUsecase) Get(ctx context.Context, session string) (CartView, error) {
	s, rec, err := uc.open(ctx, session)
	if err != nil {
		return CartView{}, err
	}
	return view(s, rec), nil
}

// Add puts a catalog image in the cart, looked up by id so price and name
// come from the catalog and not from the client.
func (uc *CartUsecase) Add(ctx context.Context, session, imageID string) (CartView, error) {
	s, rec, err := uc.open(ctx, session)
	if err != nil {
		return CartView{}, err
	}
	img, err := uc.catalog.Get(ctx, imageID)
	if err != nil {
		return CartView{}, err
	}
	if err := s.Add(ctx, img); err != nil {
		return CartView{}, err
	}
	return view(s, rec), nil
}

func (uc *CartUsecase) UpdateQuantity(ctx context.Context, session, imageID string, quantity int) (CartView, error) {
	s, rec, err := uc.open(ctx, session)
	if err != nil {
		return CartView{}, err
	}
	if err := s.UpdateQuantity(ctx, imageID, quantity); err != nil {
		return CartView{}, err
	}
	return view(s, rec), nil
}

func (uc *CartUsecase) Remove(ctx context.Context, session, imageID string) (CartView, error) {
	s, rec, err := uc.open(ctx, session)
	if err != nil {
		return CartView{}, err
	}
	if err := s.Remove(ctx, imageID); err != nil {
		return CartView{}, err
	}
	return view(s, rec), nil
}

func (uc *CartUsecase) Clear(ctx context.Context, session string) (CartView, error) {
	s, rec, err := uc.open(ctx, session)
	if err != nil {
		return CartView{}, err
	}
	if err := s.Clear(ctx); err != nil {
		return CartView{}, err
	}
	return view(s, rec), nil
}
