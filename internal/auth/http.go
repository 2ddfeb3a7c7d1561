package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"felt/engine"
)

// HTTPHandler exposes the account and session surface. Error replies
// carry the same {kind, message} body the websocket gateway sends, so
// clients run one error path across both transports.
type HTTPHandler struct {
	service Service
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UID          string `json:"uid"`
	SessionToken string `json:"session_token"`
}

type whoamiResponse struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
}

type errorBody struct {
	Kind    engine.ErrorKind `json:"kind,omitempty"`
	Message string           `json:"message"`
}

func NewHTTPHandler(service Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", h.credentialEndpoint(h.service.Register))
	mux.HandleFunc("/api/auth/login", h.credentialEndpoint(h.service.Login))
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/me", h.handleMe)
}

// credentialEndpoint adapts Register and Login, which share a wire shape
// and differ only in the service call behind them.
func (h *HTTPHandler) credentialEndpoint(call func(username, password string) (string, string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeFailure(w, http.StatusMethodNotAllowed, engine.KindInvalidInput, "method not allowed")
			return
		}
		var req credentialsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, engine.KindInvalidInput, "invalid request body")
			return
		}

		uid, token, err := call(req.Username, req.Password)
		if err != nil {
			status, kind, msg := classify(err)
			writeFailure(w, status, kind, msg)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{UID: uid, SessionToken: token})
	}
}

// classify maps auth failures onto the table error taxonomy.
func classify(err error) (int, engine.ErrorKind, string) {
	switch {
	case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest, engine.KindInvalidInput, err.Error()
	case errors.Is(err, ErrUsernameTaken):
		return http.StatusConflict, engine.KindConflict, err.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, engine.KindNotAuthorized, "invalid username or password"
	default:
		return http.StatusInternalServerError, "", "auth backend failure"
	}
}

func (h *HTTPHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeFailure(w, http.StatusMethodNotAllowed, engine.KindInvalidInput, "method not allowed")
		return
	}
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeFailure(w, http.StatusUnauthorized, engine.KindNotAuthorized, "missing session token")
		return
	}
	h.service.Logout(token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeFailure(w, http.StatusMethodNotAllowed, engine.KindInvalidInput, "method not allowed")
		return
	}
	uid, username, ok := h.service.ResolveSession(bearerToken(r.Header.Get("Authorization")))
	if !ok {
		writeFailure(w, http.StatusUnauthorized, engine.KindNotAuthorized, "invalid session token")
		return
	}
	writeJSON(w, http.StatusOK, whoamiResponse{UID: uid, Username: username})
}

func bearerToken(raw string) string {
	if !strings.HasPrefix(raw, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
}

func writeFailure(w http.ResponseWriter, status int, kind engine.ErrorKind, msg string) {
	writeJSON(w, status, errorBody{Kind: kind, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
