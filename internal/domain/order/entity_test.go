package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optivista/internal/domain/cart"
)

func TestPayee_PaymentURL(t *testing.T) {
	p := Payee{ID: "studio@upi", Name: "Optivista Studio"}

	u, err := p.PaymentURL(1497)
	require.NoError(t, err)
	assert.Equal(t, "upi://pay?pa=studio@upi&pn=Optivista%20Studio&am=1497.00&cu=INR&tn=Payment for Optivista Order", u)

	_, err = Payee{ID: placeholderUPI, Name: "x"}.PaymentURL(10)
	assert.ErrorIs(t, err, ErrUPINotSet)
	_, err = Payee{ID: "a@upi"}.PaymentURL(10)
	assert.ErrorIs(t, err, ErrUPINotSet)
	_, err = p.PaymentURL(0)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestNew_BuildsPendingOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []cart.CartItem{
		{ID: "a", Name: "A", Price: 100, Quantity: 2},
		{ID: "b", Name: "B", Price: 50, Quantity: 1},
	}

	o, err := New("abcdefghij", "u1", "Ann Lee", "ann@example.com", items, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 250.0, o.TotalAmount)
	assert.Equal(t, []string{"a", "b"}, o.ImageIDs)
	assert.Equal(t, "abcdefg", o.ShortID())

	_, err = New("id", "u1", "", "", nil, now)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)
	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
