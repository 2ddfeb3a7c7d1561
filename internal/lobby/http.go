package lobby

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"felt/engine"
	"felt/internal/auth"
)

type HTTPHandler struct {
	auth  auth.Service
	lobby *Lobby
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(authService auth.Service, l *Lobby) *HTTPHandler {
	return &HTTPHandler{auth: authService, lobby: l}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/lobby/tables", h.handleTables)
}

func (h *HTTPHandler) handleTables(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.lobby.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list tables failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.resolveUID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	var req CreateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	tbl, err := h.lobby.Create(ctx, uid, req)
	if err != nil {
		if engine.KindOf(err) == engine.KindInvalidInput {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "create table failed")
		return
	}
	writeJSON(w, http.StatusOK, summarize(tbl))
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

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
