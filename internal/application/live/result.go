// internal/application/live/result.go
package live

import (
	"optivista/internal/application/auth"
	"optivista/internal/application/errorbus"
)

// Doc is a decoded document together with its id.
type Doc[T any] struct {
	ID   string `json:"id"`
	Data T      `json:"data"`
}

// Result is the current state of a subscription.
//
// Data is the zero value (nil) until the first snapshot arrives, after a
// failure, and whenever the feed is withheld. A withheld feed reports
// IsLoading=false: it is waiting on auth, not fetching.
type Result[V any] struct {
	Data      V                         `json:"data"`
	IsLoading bool                      `json:"isLoading"`
	Err       *errorbus.PermissionError `json:"error"`
}

// AuthState is the externally owned auth status a subscription is gated on.
type AuthState struct {
	User      *auth.Identity
	IsLoading bool
}

// Resolving is the state before the auth provider has answered.
func Resolving() AuthState { return AuthState{IsLoading: true} }

// SignedOut is a resolved state without a user.
func SignedOut() AuthState { return AuthState{} }

// SignedIn is a resolved state with user.
func SignedIn(user *auth.Identity) AuthState { return AuthState{User: user} }

func (a AuthState) uid() string {
	if a.User == nil {
		return ""
	}
	return a.User.UID
}

func (a AuthState) equal(b AuthState) bool {
	return a.IsLoading == b.IsLoading && (a.User == nil) == (b.User == nil) && a.uid() == b.uid()
}
