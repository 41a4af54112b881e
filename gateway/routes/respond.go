package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"rwaledger/crypto"
	"rwaledger/gateway/middleware"
	"rwaledger/native/bank"
	"rwaledger/native/rwa"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, rwa.KindInvalidArgument.String(), err)
}

// writeLedgerError maps an aborted ledger call onto an HTTP status.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, middleware.ErrNoCaller):
		writeJSONError(w, http.StatusUnauthorized, rwa.KindUnauthorized.String(), err)
		return
	case errors.Is(err, bank.ErrInsufficientFunds):
		writeJSONError(w, http.StatusUnprocessableEntity, "insufficient_funds", err)
		return
	case errors.Is(err, bank.ErrInvalidAmount), errors.Is(err, bank.ErrTokenRequired), errors.Is(err, errBadRequest):
		writeBadRequest(w, err)
		return
	}
	kind := rwa.KindOf(err)
	writeJSONError(w, statusForKind(kind), kind.String(), err)
}

func statusForKind(kind rwa.Kind) int {
	switch kind {
	case rwa.KindUnauthorized, rwa.KindComplianceViolation, rwa.KindNotRegistered, rwa.KindNotEligible:
		return http.StatusForbidden
	case rwa.KindNotFound:
		return http.StatusNotFound
	case rwa.KindInvalidArgument:
		return http.StatusBadRequest
	case rwa.KindNotInitialized, rwa.KindAlreadyInitialized, rwa.KindInvalidState, rwa.KindAlreadyClaimed:
		return http.StatusConflict
	case rwa.KindCapacityExceeded, rwa.KindInsufficientBalance, rwa.KindNothingToClaim:
		return http.StatusUnprocessableEntity
	case rwa.KindLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}

func uintParam(r *http.Request, name string) (uint64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an unsigned integer", errBadRequest, name)
	}
	return value, nil
}

func accountParam(r *http.Request, name string) ([20]byte, error) {
	return parseAccount(chi.URLParam(r, name), name)
}

func parseAccount(raw, field string) ([20]byte, error) {
	addr, err := crypto.ParseRaw(strings.TrimSpace(raw))
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %s: %v", errBadRequest, field, err)
	}
	return addr, nil
}

// parseAmount reads a non-negative decimal string. Empty means zero.
func parseAmount(raw, field string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative decimal integer", errBadRequest, field)
	}
	return value, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func addrString(a [20]byte) string { return crypto.FromRaw(a).String() }
