// internal/application/usecase/order_usecase.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"optivista/internal/application/docstore"
	"optivista/internal/application/write"
	orderdom "optivista/internal/domain/order"
)

type OrderUsecase struct {
	reader docstore.Reader
	writer *write.Writer
}

func NewOrderUsecase(reader docstore.Reader, writer *write.Writer) *OrderUsecase {
	return &OrderUsecase{reader: reader, writer: writer}
}

// OrdersQuery lists every order, newest first.
func OrdersQuery() *docstore.Query {
	return docstore.NewQuery(orderdom.Collection).OrderBy("orderDate", true)
}

// UserOrdersQuery lists the orders placed by uid.
func UserOrdersQuery(uid string) *docstore.Query {
	return docstore.NewQuery(orderdom.Collection).Where("userId", "==", uid)
}

func (uc *OrderUsecase) ListAll(ctx context.Context) ([]orderdom.Order, error) {
	return uc.list(ctx, OrdersQuery())
}

func (uc *OrderUsecase) ListForUser(ctx context.Context, uid string) ([]orderdom.Order, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrInvalidArgument
	}
	return uc.list(ctx, UserOrdersQuery(uid))
}

func (uc *OrderUsecase) list(ctx context.Context, q *docstore.Query) ([]orderdom.Order, error) {
	docs, err := listAs[orderdom.Order](ctx, uc.reader, q)
	if err != nil {
		return nil, err
	}
	out := make([]orderdom.Order, 0, len(docs))
	for _, d := range docs {
		o := d.Data
		o.ID = d.ID
		out = append(out, o)
	}
	return out, nil
}

// SetStatus records the admin's verification outcome without waiting.
func (uc *OrderUsecase) SetStatus(id, status string) error {
	id = strings.TrimSpace(id)
	st, err := orderdom.ParseStatus(status)
	if err != nil || id == "" {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	uc.writer.Update(*docstore.Doc(orderdom.Collection, id), map[string]any{"status": string(st)})
	return nil
}
