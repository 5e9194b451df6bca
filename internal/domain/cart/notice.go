// internal/domain/cart/notice.go
package cart

import (
	"fmt"
	"sync"
)

type Tone string

const (
	ToneDefault     Tone = "default"
	ToneDestructive Tone = "destructive"
)

// Notice is the user-facing message describing a cart transition.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tone        Tone   `json:"variant"`
}

type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// NoticeRecorder collects notices so a request can return them to the client.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *NoticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Drain returns the collected notices and forgets them.
func (r *NoticeRecorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

func alreadyInCart(name string) Notice {
	return Notice{Title: "Already in Cart", Description: fmt.Sprintf("%q is already in your cart.", name), Tone: ToneDefault}
}

func addedToCart(name string) Notice {
	return Notice{Title: "Added to Cart", Description: fmt.Sprintf("%q has been added to your cart.", name), Tone: ToneDefault}
}

func removedFromCart(name string) Notice {
	return Notice{Title: "Removed from Cart", Description: fmt.Sprintf("%q has been removed.", name), Tone: ToneDestructive}
}

func quantityUpdated(name string, q int) Notice {
	return Notice{Title: "Quantity Updated", Description: fmt.Sprintf("%q quantity set to %d.", name, q), Tone: ToneDefault}
}

func cartCleared() Notice {
	return Notice{Title: "Cart Cleared", Description: "Your shopping cart is now empty.", Tone: ToneDefault}
}
