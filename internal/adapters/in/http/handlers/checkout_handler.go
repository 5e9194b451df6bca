// internal/adapters/in/http/handlers/checkout_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	httpmw "optivista/internal/adapters/in/http/middleware"
	usecase "optivista/internal/application/usecase"
)

// CheckoutHandler runs the UPI checkout for the session cart. Mount it
// behind AuthMiddleware.Required and CartSession.
type CheckoutHandler struct {
	uc  *usecase.CheckoutUsecase
	log *zap.Logger
	mux chi.Router
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase, logger *zap.Logger) http.Handler {
	h := &CheckoutHandler{uc: uc, log: named(logger, "checkout")}

	r := chi.NewRouter()
	r.Post("/", h.begin)
	r.Get("/qr.png", h.qr)
	r.Post("/confirm", h.confirm)
	h.mux = r
	return h
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *CheckoutHandler) prepare(w http.ResponseWriter, r *http.Request) (usecase.PaymentRequest, bool) {
	sid, ok := httpmw.CartSessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing cart session")
		return usecase.PaymentRequest{}, false
	}
	caller, _ := httpmw.CurrentIdentity(r)
	req, err := h.uc.Begin(r.Context(), sid, caller)
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return usecase.PaymentRequest{}, false
	}
	return req, true
}

func (h *CheckoutHandler) begin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.prepare(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// qr answers with the payment QR code as a bare PNG for <img> tags.
func (h *CheckoutHandler) qr(w http.ResponseWriter, r *http.Request) {
	req, ok := h.prepare(w, r)
	if !ok {
		return
	}
	if len(req.QRPNG) == 0 {
		writeError(w, http.StatusNotFound, "qr code unavailable")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(req.QRPNG)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(req.QRPNG)
}

func (h *CheckoutHandler) confirm(w http.ResponseWriter, r *http.Request) {
	sid, ok := httpmw.CartSessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing cart session")
		return
	}
	caller, _ := httpmw.CurrentIdentity(r)
	placed, err := h.uc.Confirm(r.Context(), sid, caller)
	if err != nil {
		writeUsecaseError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}
