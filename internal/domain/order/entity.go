// internal/domain/order/entity.go
package order

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"optivista/internal/domain/cart"
)

const Collection = "orders"

var (
	ErrInvalidOrder  = errors.New("order: invalid")
	ErrEmptyCart     = errors.New("order: cart is empty")
	ErrInvalidStatus = errors.New("order: invalid status")
	ErrUPINotSet     = errors.New("order: upi payee not configured")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Order is an order awaiting manual verification of its UPI payment.
type Order struct {
	ID            string          `json:"id" firestore:"id"`
	UserID        string          `json:"userId" firestore:"userId"`
	CustomerName  string          `json:"customerName" firestore:"customerName"`
	CustomerEmail string          `json:"customerEmail" firestore:"customerEmail"`
	Items         []cart.CartItem `json:"items" firestore:"items"`
	TotalAmount   float64         `json:"totalAmount" firestore:"totalAmount"`
	OrderDate     time.Time       `json:"orderDate" firestore:"orderDate"`
	Status        Status          `json:"status" firestore:"status"`
	ImageIDs      []string        `json:"imageIds" firestore:"imageIds"`
}

// New builds a pending order from the cart lines. id is the document id
// already allocated by the store.
func New(id, userID, customerName, customerEmail string, items []cart.CartItem, now time.Time) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}
	o := Order{
		ID:            strings.TrimSpace(id),
		UserID:        strings.TrimSpace(userID),
		CustomerName:  strings.TrimSpace(customerName),
		CustomerEmail: strings.TrimSpace(customerEmail),
		Items:         append([]cart.CartItem(nil), items...),
		TotalAmount:   cart.Total(items),
		OrderDate:     now.UTC(),
		Status:        StatusPending,
	}
	for _, it := range items {
		o.ImageIDs = append(o.ImageIDs, it.ID)
	}
	if o.ID == "" || o.UserID == "" {
		return Order{}, ErrInvalidOrder
	}
	return o, nil
}

// ShortID is the reference shown to the customer.
func (o Order) ShortID() string {
	if len(o.ID) <= 7 {
		return o.ID
	}
	return o.ID[:7]
}

// Payee is the UPI account payments are made to.
type Payee struct {
	ID   string
	Name string
}

const placeholderUPI = "YOUR_UPI_ID_HERE"

func (p Payee) Configured() bool {
	id := strings.TrimSpace(p.ID)
	return id != "" && id != placeholderUPI && strings.TrimSpace(p.Name) != ""
}

// PaymentURL builds the upi://pay deep link for amount (INR).
func (p Payee) PaymentURL(amount float64) (string, error) {
	if !p.Configured() {
		return "", ErrUPINotSet
	}
	if amount <= 0 {
		return "", ErrEmptyCart
	}
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=INR&tn=Payment for Optivista Order",
		strings.TrimSpace(p.ID),
		url.PathEscape(strings.TrimSpace(p.Name)),
		strconv.FormatFloat(amount, 'f', 2, 64),
	), nil
}
