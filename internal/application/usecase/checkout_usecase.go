// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"optivista/internal/application/auth"
	"optivista/internal/application/docstore"
	"optivista/internal/application/write"
	orderdom "optivista/internal/domain/order"
	userdom "optivista/internal/domain/user"
)

var (
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	ErrCheckoutNoPayee   = errors.New("checkout: UPI payment details are not configured")
)

// QRRenderer turns a payment link into a scannable PNG.
type QRRenderer interface {
	PNG(content string, size int) ([]byte, error)
}

// PaymentRequest is what the customer scans to pay.
type PaymentRequest struct {
	UPIURL string  `json:"upiUrl"`
	Amount float64 `json:"amount"`
	QRPNG  []byte  `json:"qrPng,omitempty"`
}

// PlacedOrder is returned once the customer says they have paid.
type PlacedOrder struct {
	OrderID string   `json:"orderId"`
	ShortID string   `json:"shortId"`
	Total   float64  `json:"total"`
	View    CartView `json:"cart"`
}

// CheckoutUsecase drives the manual UPI flow: show a QR code, then record a
// pending order that an admin verifies against the received payment.
type CheckoutUsecase struct {
	carts  *CartUsecase
	reader docstore.Reader
	writer *write.Writer
	payee  orderdom.Payee
	qr     QRRenderer
	clock  Clock
	log    *zap.Logger
}

func NewCheckoutUsecase(
	carts *CartUsecase,
	reader docstore.Reader,
	writer *write.Writer,
	payee orderdom.Payee,
	qr QRRenderer,
	clock Clock,
	logger *zap.Logger,
) *CheckoutUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutUsecase{
		carts:  carts,
		reader: reader,
		writer: writer,
		payee:  payee,
		qr:     qr,
		clock:  orSystemClock(clock),
		log:    logger.Named("checkout"),
	}
}

// Begin prepares the UPI payment for the session's cart.
func (uc *CheckoutUsecase) Begin(ctx context.Context, session string, caller *auth.Identity) (PaymentRequest, error) {
	if caller == nil {
		return PaymentRequest{}, ErrAuthRequired
	}
	if !uc.payee.Configured() {
		return PaymentRequest{}, ErrCheckoutNoPayee
	}
	cart, err := uc.carts.Get(ctx, session)
	if err != nil {
		return PaymentRequest{}, err
	}
	if len(cart.Items) == 0 {
		return PaymentRequest{}, ErrCheckoutEmptyCart
	}

	link, err := uc.payee.PaymentURL(cart.Total)
	if err != nil {
		return PaymentRequest{}, err
	}
	req := PaymentRequest{UPIURL: link, Amount: cart.Total}
	if uc.qr != nil {
		png, err := uc.qr.PNG(link, 256)
		if err != nil {
			return PaymentRequest{}, fmt.Errorf("checkout: render qr: %w", err)
		}
		req.QRPNG = png
	}
	return req, nil
}

// Confirm records the order without waiting for the write and empties the cart.
func (uc *CheckoutUsecase) Confirm(ctx context.Context, session string, caller *auth.Identity) (PlacedOrder, error) {
	if caller == nil {
		return PlacedOrder{}, ErrAuthRequired
	}
	cart, err := uc.carts.Get(ctx, session)
	if err != nil {
		return PlacedOrder{}, err
	}
	if len(cart.Items) == 0 {
		return PlacedOrder{}, ErrCheckoutEmptyCart
	}

	name, email := caller.Name, caller.Email
	profile, err := getAs[userdom.Profile](ctx, uc.reader, *docstore.Doc(userdom.Collection, caller.UID))
	if err != nil {
		return PlacedOrder{}, err
	}
	if profile != nil {
		name = profile.Data.DisplayName()
		if profile.Data.Email != "" {
			email = profile.Data.Email
		}
	}

	ref := uc.writer.NewRef(orderdom.Collection)
	o, err := orderdom.New(ref.ID, caller.UID, name, email, cart.Items, uc.clock.Now())
	if err != nil {
		return PlacedOrder{}, err
	}
	uc.writer.Set(ref, o, write.SetOptions{})

	cleared, err := uc.carts.Clear(ctx, session)
	if err != nil {
		return PlacedOrder{}, err
	}
	uc.log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("uid", caller.UID),
		zap.Float64("total", o.TotalAmount),
	)
	return PlacedOrder{OrderID: o.ID, ShortID: o.ShortID(), Total: o.TotalAmount, View: cleared}, nil
}
