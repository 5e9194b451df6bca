// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	httpmw "optivista/internal/adapters/in/http/middleware"
	"optivista/internal/application/docstore"
	"optivista/internal/application/errorbus"
	usecase "optivista/internal/application/usecase"
	cartdom "optivista/internal/domain/cart"
	"optivista/internal/domain/catalog"
	downloaddom "optivista/internal/domain/download"
	orderdom "optivista/internal/domain/order"
	"optivista/internal/domain/settings"
)

const maxJSONBody = 1 << 20

var writeJSON = httpmw.WriteJSON
var writeError = httpmw.WriteError

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// statusFor maps usecase and domain errors onto HTTP status codes.
func statusFor(err error) int {
	var perr *errorbus.PermissionError
	switch {
	case errors.Is(err, usecase.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrForbidden),
		errors.Is(err, docstore.ErrPermissionDenied),
		errors.As(err, &perr):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrNotFound),
		errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrCheckoutEmptyCart):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrCheckoutNoPayee):
		return http.StatusServiceUnavailable
	case errors.Is(err, usecase.ErrInvalidArgument),
		errors.Is(err, usecase.ErrCartInvalidArgument),
		errors.Is(err, docstore.ErrInvalidArgument),
		errors.Is(err, cartdom.ErrInvalidCart),
		errors.Is(err, catalog.ErrInvalidImage),
		errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, downloaddom.ErrInvalidDownload),
		errors.Is(err, orderdom.ErrInvalidStatus),
		errors.Is(err, settings.ErrUnknownKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeUsecaseError answers with the mapped status. Internal errors are
// logged and answered with a generic message.
func writeUsecaseError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func named(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.Named(name)
}
