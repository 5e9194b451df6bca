// internal/application/usecase/auth_usecase.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"optivista/internal/application/auth"
	"optivista/internal/application/docstore"
	userdom "optivista/internal/domain/user"
)

const googleProvider = "google.com"

// AuthUsecase keeps users/{uid} in step with the identity provider and
// grants admin to the configured addresses.
type AuthUsecase struct {
	reader  docstore.Reader
	batcher Batcher
	admins  userdom.AdminEmails
	log     *zap.Logger
}

func NewAuthUsecase(reader docstore.Reader, batcher Batcher, admins userdom.AdminEmails, logger *zap.Logger) *AuthUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthUsecase{reader: reader, batcher: batcher, admins: admins, log: logger.Named("auth")}
}

// Bootstrap runs after every sign-in. It creates the profile on first sign-in,
// refreshes the verification flag, and promotes admin addresses whose email
// is verified (or that signed in with Google). All writes go in one batch.
func (uc *AuthUsecase) Bootstrap(ctx context.Context, id *auth.Identity) (userdom.Profile, error) {
	if id == nil || strings.TrimSpace(id.UID) == "" {
		return userdom.Profile{}, ErrAuthRequired
	}
	ref := *docstore.Doc(userdom.Collection, id.UID)

	existing, err := getAs[userdom.Profile](ctx, uc.reader, ref)
	if err != nil {
		return userdom.Profile{}, err
	}

	var p userdom.Profile
	fields := map[string]any{
		"id":         id.UID,
		"isVerified": id.EmailVerified,
	}
	if existing == nil {
		first, last := userdom.SplitName(id.Name)
		p = userdom.Profile{
			ID:        id.UID,
			Email:     id.Email,
			FirstName: first,
			LastName:  last,
			PhotoURL:  id.Picture,
			Role:      userdom.RoleUser,
		}
		fields["email"] = p.Email
		fields["firstName"] = p.FirstName
		fields["lastName"] = p.LastName
		fields["role"] = string(p.Role)
		fields["isAdmin"] = false
		if p.PhotoURL != "" {
			fields["photoURL"] = p.PhotoURL
		}
	} else {
		p = existing.Data
		p.ID = id.UID
	}
	p.IsVerified = id.EmailVerified

	ops := []docstore.BatchOp{}
	trusted := id.EmailVerified || id.Provider == googleProvider
	if trusted && uc.admins.Contains(id.Email) {
		p.Role, p.IsAdmin = userdom.RoleAdmin, true
		fields["role"] = string(userdom.RoleAdmin)
		fields["isAdmin"] = true
		ops = append(ops, docstore.BatchOp{
			Kind: docstore.BatchSet,
			Ref:  *docstore.Doc(userdom.AdminCollection, id.UID),
			Data: userdom.AdminGrant{UID: id.UID, Email: id.Email},
		})
	}
	ops = append([]docstore.BatchOp{{Kind: docstore.BatchSet, Ref: ref, Data: fields, Merge: true}}, ops...)

	if err := uc.batcher.Batch(ctx, ops); err != nil {
		return userdom.Profile{}, fmt.Errorf("bootstrap %s: %w", id.UID, err)
	}
	if p.IsAdmin && (existing == nil || !existing.Data.IsAdmin) {
		uc.log.Info("admin granted", zap.String("uid", id.UID), zap.String("email", id.Email))
	}
	return p, nil
}

// IsAdmin reports whether roles_admin/{uid} exists.
func (uc *AuthUsecase) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if strings.TrimSpace(uid) == "" {
		return false, nil
	}
	rec, err := uc.reader.Get(ctx, *docstore.Doc(userdom.AdminCollection, uid))
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}
