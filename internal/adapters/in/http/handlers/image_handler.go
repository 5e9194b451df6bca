// internal/adapters/in/http/handlers/image_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	httpmw "optivista/internal/adapters/in/http/middleware"
	usecase "optivista/internal/application/usecase"
)

// ImageHandler serves the public catalog and the signed-in download log.
type ImageHandler struct {
	catalog   *usecase.CatalogUsecase
	downloads *usecase.DownloadUsecase
	log       *zap.Logger
	mux       chi.Router
}

// NewImageHandler mounts:
//
//	GET  /            ?category=
//	GET  /{id}
//	POST /{id}/download   (authenticated)
func NewImageHandler(catalog *usecase.CatalogUsecase, downloads *usecase.DownloadUsecase, authmw *httpmw.AuthMiddleware, logger *zap.Logger) http.Handler {
	h := &ImageHandler{catalog: catalog, downloads: downloads, log: named(logger, "images")}

	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	if downloads != nil && authmw != nil {
		r.With(authmw.Required).Post("/{id}/download", h.download)
	}
	h.mux = r
	return h
}

func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *ImageHandler) list(w http.ResponseWriter, r *http.Request) {
	images, err := h.catalog.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (h *ImageHandler) get(w http.ResponseWriter, r *http.Request) {
	img, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (h *ImageHandler) download(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpmw.CurrentIdentity(r)
	url, err := h.downloads.Record(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
