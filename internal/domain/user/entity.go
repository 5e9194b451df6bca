// internal/domain/user/entity.go
package user

import (
	"errors"
	"strings"
)

const (
	Collection      = "users"
	AdminCollection = "roles_admin"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile is the users/{uid} document.
type Profile struct {
	ID         string `json:"id" firestore:"id"`
	Email      string `json:"email" firestore:"email"`
	FirstName  string `json:"firstName" firestore:"firstName"`
	LastName   string `json:"lastName" firestore:"lastName"`
	PhotoURL   string `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	Role       Role   `json:"role" firestore:"role"`
	IsAdmin    bool   `json:"isAdmin" firestore:"isAdmin"`
	IsVerified bool   `json:"isVerified" firestore:"isVerified"`
}

// AdminGrant is the roles_admin/{uid} marker document.
type AdminGrant struct {
	UID   string `json:"uid" firestore:"uid"`
	Email string `json:"email" firestore:"email"`
}

var (
	ErrInvalidID        = errors.New("user: invalid id")
	ErrInvalidFirstName = errors.New("user: invalid firstName")
	ErrInvalidLastName  = errors.New("user: invalid lastName")
)

// Policy
var (
	MaxNameLength = 100
)

// DisplayName is "first last", falling back to the email.
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		return p.Email
	}
	return name
}

// SplitName turns a provider display name into first/last.
func SplitName(displayName string) (first, last string) {
	parts := strings.Fields(displayName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// NamePatch is a partial update of the editable profile fields.
type NamePatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// Fields validates the patch and returns the document update it describes.
func (p NamePatch) Fields() (map[string]any, error) {
	out := map[string]any{}
	if p.FirstName != nil {
		v := strings.TrimSpace(*p.FirstName)
		if v == "" || len([]rune(v)) > MaxNameLength {
			return nil, ErrInvalidFirstName
		}
		out["firstName"] = v
	}
	if p.LastName != nil {
		v := strings.TrimSpace(*p.LastName)
		if len([]rune(v)) > MaxNameLength {
			return nil, ErrInvalidLastName
		}
		out["lastName"] = v
	}
	return out, nil
}

// AdminEmails is the set of addresses promoted to admin on sign-in.
type AdminEmails map[string]struct{}

func ParseAdminEmails(csv string) AdminEmails {
	out := AdminEmails{}
	for _, e := range strings.Split(csv, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

func (a AdminEmails) Contains(email string) bool {
	_, ok := a[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
