package server

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/cryptofolio/trading-service/internal/auth"
	"github.com/cryptofolio/trading-service/internal/ledger"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, apiError{Code: code, Message: err.Error()})
}

// writeDomainError maps ledger/auth failures onto status codes. Each
// error kind stays distinguishable on the wire via its code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err)
	case errors.Is(err, ledger.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err)
	case errors.Is(err, ledger.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, "invalid_symbol", err)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient_funds", err)
	case errors.Is(err, ledger.ErrInsufficientAssets):
		writeError(w, http.StatusConflict, "insufficient_assets", err)
	case errors.Is(err, ledger.ErrPriceUnavailable):
		writeError(w, http.StatusBadGateway, "price_unavailable", err)
	case errors.Is(err, ledger.ErrUnknownAccount):
		writeError(w, http.StatusNotFound, "unknown_account", err)
	case errors.Is(err, ledger.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", err)
	case errors.Is(err, auth.ErrUserExists):
		writeError(w, http.StatusConflict, "user_exists", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_server_error", errors.New("internal server error"))
	}
}
