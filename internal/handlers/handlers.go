// Package handlers exposes the JSON API. Handlers decode requests, call the
// services and translate domain errors; they never run business logic
// themselves.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erickcordeiroa/my-invoices/internal/httpx"
	"github.com/erickcordeiroa/my-invoices/internal/services"
)

// writeDomainError maps service sentinels onto HTTP statuses. Anything
// unrecognized is an infrastructure failure and becomes a logged 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrWalletNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrInvoiceNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoResults):
		httpx.JSONError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrDuplicateWallet),
		errors.Is(err, services.ErrDuplicateCategory),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrWalletHasDependents),
		errors.Is(err, services.ErrCategoryHasDependents):
		httpx.JSONError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidInvoiceConfiguration),
		errors.Is(err, services.ErrInvoiceCreationFailed),
		errors.Is(err, services.ErrCannotUpdateInstallment),
		errors.Is(err, services.ErrCannotUpdateProcessedRecurring),
		errors.Is(err, services.ErrCannotDeleteInstallment),
		errors.Is(err, services.ErrCategoryTypeMismatch),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrNotPaid),
		errors.Is(err, services.ErrInvalidReportRange),
		errors.Is(err, services.ErrInvalidActivation):
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, services.ErrAccountNotActive):
		httpx.JSONError(w, http.StatusForbidden, err.Error(), nil)
	default:
		slog.Error("request failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

func queryUint(r *http.Request, key string) uint {
	v, _ := strconv.ParseUint(r.URL.Query().Get(key), 10, 64)
	return uint(v)
}

// queryDate parses YYYY-MM-DD query params; nil when absent or malformed.
func queryDate(r *http.Request, key string) *time.Time {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

type pageResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
}
