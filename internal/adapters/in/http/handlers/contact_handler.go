// internal/adapters/in/http/handlers/contact_handler.go
package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	usecase "optivista/internal/application/usecase"
	contactdom "optivista/internal/domain/contact"
)

// ContactHandler accepts contact form posts: JSON, urlencoded or multipart.
type ContactHandler struct {
	uc  *usecase.ContactUsecase
	log *zap.Logger
}

func NewContactHandler(uc *usecase.ContactUsecase, logger *zap.Logger) http.Handler {
	return &ContactHandler{uc: uc, log: named(logger, "contact")}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var s contactdom.Submission
	if ct := r.Header.Get("Content-Type"); isForm(ct) {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		var err error
		if strings.HasPrefix(ct, "multipart/form-data") {
			err = r.ParseMultipartForm(maxJSONBody)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}
		s = contactdom.Submission{
			Name:    r.PostFormValue("name"),
			Email:   r.PostFormValue("email"),
			Message: r.PostFormValue("message"),
		}
	} else if err := decodeJSON(w, r, &s); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.uc.Submit(r.Context(), s)
	switch {
	case err != nil:
		h.log.Error("contact submission failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, state)
	case len(state.Issues) > 0:
		writeJSON(w, http.StatusBadRequest, state)
	default:
		writeJSON(w, http.StatusOK, state)
	}
}

func isForm(contentType string) bool {
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data")
}
