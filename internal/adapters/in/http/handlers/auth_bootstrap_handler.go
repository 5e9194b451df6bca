// internal/adapters/in/http/handlers/auth_bootstrap_handler.go
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	httpmw "optivista/internal/adapters/in/http/middleware"
	usecase "optivista/internal/application/usecase"
)

// AuthBootstrapHandler creates (or refreshes) the caller's profile after
// sign-in and grants admin to configured addresses.
type AuthBootstrapHandler struct {
	uc     *usecase.AuthUsecase
	admins *httpmw.AdminMiddleware
	log    *zap.Logger
}

func NewAuthBootstrapHandler(uc *usecase.AuthUsecase, admins *httpmw.AdminMiddleware, logger *zap.Logger) http.Handler {
	return &AuthBootstrapHandler{uc: uc, admins: admins, log: named(logger, "auth")}
}

func (h *AuthBootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, ok := httpmw.CurrentIdentity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.uc.Bootstrap(r.Context(), id)
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	// admin status may have changed
	if h.admins != nil {
		h.admins.Forget(id.UID)
	}

	writeJSON(w, http.StatusCreated, profile)
}
