// internal/adapters/in/http/middleware/admin.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// AdminChecker answers whether uid holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, uid string) (bool, error)
}

// AdminMiddleware lets only admins through. Must run after AuthMiddleware.Required.
// Role lookups are cached per uid for a short TTL.
type AdminMiddleware struct {
	checker AdminChecker
	cache   *cache.Cache
	log     *zap.Logger
}

func NewAdminMiddleware(checker AdminChecker, ttl time.Duration, logger *zap.Logger) *AdminMiddleware {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminMiddleware{
		checker: checker,
		cache:   cache.New(ttl, 0),
		log:     logger.Named("admin"),
	}
}

// IsAdmin consults the cache before the checker. Lookup failures are not cached.
func (m *AdminMiddleware) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if v, ok := m.cache.Get(uid); ok {
		return v.(bool), nil
	}
	ok, err := m.checker.IsAdmin(ctx, uid)
	if err != nil {
		return false, err
	}
	m.cache.SetDefault(uid, ok)
	return ok, nil
}

// Forget drops the cached role of uid.
func (m *AdminMiddleware) Forget(uid string) {
	m.cache.Delete(uid)
}

func (m *AdminMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := CurrentIdentity(r)
		if !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if m.checker == nil {
			WriteError(w, http.StatusServiceUnavailable, "admin middleware not initialized")
			return
		}

		isAdmin, err := m.IsAdmin(r.Context(), id.UID)
		if err != nil {
			m.log.Warn("role lookup failed", zap.String("uid", id.UID), zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "role lookup failed")
			return
		}
		if !isAdmin {
			WriteError(w, http.StatusForbidden, "forbidden: admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
