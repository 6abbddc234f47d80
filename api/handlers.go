/*
handlers.go - HTTP API handlers for the point ledger

PURPOSE:
  Exposes the point ledger engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  GET    /point/{id}            Current balance
  GET    /point/{id}/histories  Transaction history
  PATCH  /point/{id}/charge     Credit points (body: bare JSON amount)
  PATCH  /point/{id}/use        Debit points (body: bare JSON amount)

ERROR HANDLING:
  Errors are returned as JSON {code, message} with appropriate status:
  - 400: Policy failures (invalid amount, insufficient points), bad input
  - 409: Concurrent modification the engine could not resolve
  - 500: Storage faults and anything unexpected

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/point-ledger/point"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *point.Engine
	Log    zerolog.Logger
}

// NewHandler creates a new handler around the given engine.
func NewHandler(engine *point.Engine, log zerolog.Logger) *Handler {
	return &Handler{Engine: engine, Log: log}
}

// =============================================================================
// POINT HANDLERS
// =============================================================================

// GetPoint returns the current balance for a user.
func (h *Handler) GetPoint(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	balance, err := h.Engine.GetBalance(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// GetHistories returns a user's transaction history in insertion order.
func (h *Handler) GetHistories(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	records, err := h.Engine.GetHistory(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toHistoryDTOs(records))
}

// ChargePoint credits points to a user's balance.
func (h *Handler) ChargePoint(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	amount, ok := h.amount(w, r)
	if !ok {
		return
	}

	balance, err := h.Engine.Charge(r.Context(), id, amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// UsePoint debits points from a user's balance.
func (h *Handler) UsePoint(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	amount, ok := h.amount(w, r)
	if !ok {
		return
	}

	balance, err := h.Engine.Use(r.Context(), id, amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (point.UserID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id", "user id must be an integer")
		return 0, false
	}
	return point.UserID(id), true
}

// amount decodes the bare JSON number body carried by charge/use requests.
func (h *Handler) amount(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var amount int64
	if err := json.NewDecoder(r.Body).Decode(&amount); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_amount_body", "request body must be a JSON integer amount")
		return 0, false
	}
	return amount, true
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case point.IsClientError(err):
		writeError(w, http.StatusBadRequest, errorCode(err), err.Error())
	case errors.Is(err, point.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "concurrent_modification", err.Error())
	default:
		h.Log.Error().Err(err).Msg("point operation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, point.ErrInsufficientPoints):
		return "insufficient_points"
	case errors.Is(err, point.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "bad_request"
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
