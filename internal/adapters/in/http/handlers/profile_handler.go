// internal/adapters/in/http/handlers/profile_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	httpmw "optivista/internal/adapters/in/http/middleware"
	usecase "optivista/internal/application/usecase"
	userdom "optivista/internal/domain/user"
)

// maxPhotoBytes caps profile picture uploads.
const maxPhotoBytes = 10 << 20

// ProfileHandler serves the caller's own profile. Mount behind
// AuthMiddleware.Required.
type ProfileHandler struct {
	profiles *usecase.ProfileUsecase
	orders   *usecase.OrderUsecase
	log      *zap.Logger
	mux      chi.Router
}

func NewProfileHandler(profiles *usecase.ProfileUsecase, orders *usecase.OrderUsecase, logger *zap.Logger) http.Handler {
	h := &ProfileHandler{profiles: profiles, orders: orders, log: named(logger, "profile")}

	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Patch("/", h.patch)
	r.Post("/photo", h.uploadPhoto)
	if orders != nil {
		r.Get("/orders", h.listOrders)
	}
	h.mux = r
	return h
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *ProfileHandler) uid(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httpmw.CurrentIdentity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return id.UID, true
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.uid(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.Get(r.Context(), uid)
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) patch(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.uid(w, r)
	if !ok {
		return
	}
	var patch userdom.NamePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.profiles.UpdateNames(uid, patch); err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// uploadPhoto expects multipart/form-data with the picture in field "photo".
func (h *ProfileHandler) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.uid(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+(1<<20))
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "photo too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo is required")
		return
	}
	defer file.Close()

	url, err := h.profiles.UploadPhoto(r.Context(), uid, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"photoURL": url})
}

func (h *ProfileHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.uid(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListForUser(r.Context(), uid)
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
