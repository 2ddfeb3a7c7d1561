package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"felt/internal/auth"
)

type HTTPHandler struct {
	auth   auth.Service
	wallet Service
}

type errorResponse struct {
	Error string `json:"error"`
}

type balanceResponse struct {
	UID     string `json:"uid"`
	Balance int64  `json:"balance"`
}

func NewHTTPHandler(authService auth.Service, walletService Service) *HTTPHandler {
	return &HTTPHandler{
		auth:   authService,
		wallet: walletService,
	}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/wallet/balance", h.handleBalance)
	mux.HandleFunc("/api/wallet/transactions", h.handleTransactions)
}

func (h *HTTPHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid, ok := h.resolveUID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	balance, err := h.wallet.Balance(ctx, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query balance failed")
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{UID: uid, Balance: balance})
}

func (h *HTTPHandler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid, ok := h.resolveUID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.wallet.Recent(ctx, uid, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query transactions failed")
		return
	}
	if items == nil {
		items = []Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

func (h *HTTPHandler) resolveUID(r *http.Request) (string, bool) {
	raw := r.Header.Get("Authorization")
	if !strings.HasPrefix(raw, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if token == "" {
		return "", false
	}
	uid, _, ok := h.auth.ResolveSession(token)
	return uid, ok
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
