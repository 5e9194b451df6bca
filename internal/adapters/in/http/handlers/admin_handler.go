// internal/adapters/in/http/handlers/admin_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	usecase "optivista/internal/application/usecase"
	"optivista/internal/domain/catalog"
)

// AdminHandler is the back office: catalog edits, order verification, the
// download log and site settings. Mount behind AuthMiddleware.Required and
// AdminMiddleware.Handler.
type AdminHandler struct {
	catalog   *usecase.CatalogUsecase
	orders    *usecase.OrderUsecase
	downloads *usecase.DownloadUsecase
	settings  *usecase.SettingsUsecase
	log       *zap.Logger
	mux       chi.Router
}

type AdminDeps struct {
	Catalog   *usecase.CatalogUsecase
	Orders    *usecase.OrderUsecase
	Downloads *usecase.DownloadUsecase
	Settings  *usecase.SettingsUsecase
}

type statusRequest struct {
	Status string `json:"status"`
}

type seedRequest struct {
	Images []catalog.Image `json:"images"`
}

func NewAdminHandler(deps AdminDeps, logger *zap.Logger) http.Handler {
	h := &AdminHandler{
		catalog:   deps.Catalog,
		orders:    deps.Orders,
		downloads: deps.Downloads,
		settings:  deps.Settings,
		log:       named(logger, "admin"),
	}

	r := chi.NewRouter()
	if h.catalog != nil {
		r.Post("/images", h.addImage)
		r.Put("/images/{id}", h.updateImage)
		r.Delete("/images/{id}", h.deleteImage)
		r.Post("/images/seed", h.seed)
	}
	if h.orders != nil {
		r.Get("/orders", h.listOrders)
		r.Patch("/orders/{id}", h.setOrderStatus)
	}
	if h.downloads != nil {
		r.Get("/downloads", h.listDownloads)
	}
	if h.settings != nil {
		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.saveSettings)
	}
	h.mux = r
	return h
}

func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *AdminHandler) addImage(w http.ResponseWriter, r *http.Request) {
	var img catalog.Image
	if err := decodeJSON(w, r, &img); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.catalog.Add(img)
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *AdminHandler) updateImage(w http.ResponseWriter, r *http.Request) {
	var img catalog.Image
	if err := decodeJSON(w, r, &img); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.catalog.Update(id, img); err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (h *AdminHandler) deleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(chi.URLParam(r, "id")); err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// seed replaces the catalog. An empty body seeds the bundled sample set.
func (h *AdminHandler) seed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	images := req.Images
	if len(images) == 0 {
		var err error
		if images, err = catalog.SeedImages(); err != nil {
			writeUsecaseError(w, h.log, err)
			return
		}
	}

	n, err := h.catalog.Seed(r.Context(), images)
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"written": n})
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.orders.SetStatus(chi.URLParam(r, "id"), req.Status); err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": req.Status})
}

func (h *AdminHandler) listDownloads(w http.ResponseWriter, r *http.Request) {
	entries, err := h.downloads.List(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *AdminHandler) saveSettings(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.settings.Save(r.Context(), in); err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}
