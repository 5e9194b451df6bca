// internal/adapters/in/http/handlers/cart_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	httpmw "optivista/internal/adapters/in/http/middleware"
	usecase "optivista/internal/application/usecase"
)

// CartHandler exposes the session cart. It expects the CartSession
// middleware in front of it.
type CartHandler struct {
	uc  *usecase.CartUsecase
	log *zap.Logger
	mux chi.Router
}

type addItemRequest struct {
	ImageID string `json:"imageId"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func NewCartHandler(uc *usecase.CartUsecase, logger *zap.Logger) http.Handler {
	h := &CartHandler{uc: uc, log: named(logger, "cart")}

	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Delete("/", h.clear)
	r.Post("/items", h.add)
	r.Patch("/items/{id}", h.updateQuantity)
	r.Delete("/items/{id}", h.remove)
	h.mux = r
	return h
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, ok := httpmw.CartSessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing cart session")
	}
	return sid, ok
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.uc.Get(r.Context(), sid))
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w)(h.uc.Add(r.Context(), sid, req.ImageID))
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	h.respond(w)(h.uc.UpdateQuantity(r.Context(), sid, chi.URLParam(r, "id"), *req.Quantity))
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.uc.Remove(r.Context(), sid, chi.URLParam(r, "id")))
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.uc.Clear(r.Context(), sid))
}

func (h *CartHandler) respond(w http.ResponseWriter) func(usecase.CartView, error) {
	return func(v usecase.CartView, err error) {
		if err != nil {
			writeUsecaseError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
