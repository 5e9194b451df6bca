package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"optivista/internal/application/auth"
)

type tokenVerifier map[string]*auth.Identity

func (v tokenVerifier) Verify(_ context.Context, tok string) (*auth.Identity, error) {
	if id, ok := v[tok]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

type countingChecker struct {
	admins map[string]bool
	calls  int
	err    error
}

func (c *countingChecker) IsAdmin(_ context.Context, uid string) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.admins[uid], nil
}

var verifier = tokenVerifier{
	"alice-token": {UID: "alice"},
	"bob-token":   {UID: "bob"},
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := CurrentIdentity(r)
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(id.UID))
	})
}

func do(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_Required(t *testing.T) {
	h := NewAuthMiddleware(verifier, zap.NewNop()).Required(whoAmI())

	assert.Equal(t, http.StatusUnauthorized, do(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, "forged").Code)

	rec := do(h, "alice-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestAuthMiddleware_Optional(t *testing.T) {
	h := NewAuthMiddleware(verifier, nil).Optional(whoAmI())

	assert.Equal(t, "anonymous", do(h, "").Body.String())
	assert.Equal(t, "bob", do(h, "bob-token").Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(h, "forged").Code)
}

func TestAdminMiddleware(t *testing.T) {
	checker := &countingChecker{admins: map[string]bool{"alice": true}}
	admin := NewAdminMiddleware(checker, time.Minute, nil)
	h := NewAuthMiddleware(verifier, nil).Required(admin.Handler(whoAmI()))

	assert.Equal(t, http.StatusOK, do(h, "alice-token").Code)
	assert.Equal(t, http.StatusOK, do(h, "alice-token").Code)
	assert.Equal(t, 1, checker.calls, "role is cached")

	assert.Equal(t, http.StatusForbidden, do(h, "bob-token").Code)

	admin.Forget("alice")
	assert.Equal(t, http.StatusOK, do(h, "alice-token").Code)
	assert.Equal(t, 3, checker.calls)
}

func TestAdminMiddleware_LookupFailureIsNotCached(t *testing.T) {
	checker := &countingChecker{err: errors.New("unavailable")}
	admin := NewAdminMiddleware(checker, time.Minute, nil)
	h := NewAuthMiddleware(verifier, nil).Required(admin.Handler(whoAmI()))

	assert.Equal(t, http.StatusInternalServerError, do(h, "alice-token").Code)
	checker.err = nil
	checker.admins = map[string]bool{"alice": true}
	assert.Equal(t, http.StatusOK, do(h, "alice-token").Code)
}

func TestCartSession_IssuesAndKeepsCookie(t *testing.T) {
	var seen string
	h := CartSession(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CartSessionID(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CartSessionCookie, cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	first := seen

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartSessionCookie, Value: first})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, first, seen)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartSessionCookie, Value: "not-a-uuid"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid", seen)
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
