// Package httpapi serves the small HTTP surface next to the websocket
// endpoint: login (mints the token cookie) and session introspection.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/batsdk/wowclass-enlace/auth"
	"github.com/batsdk/wowclass-enlace/contract"
)

const cookieMaxAge = 30 * 24 * time.Hour

// Handler owns the /api/auth routes.
type Handler struct {
	directory *Directory
	signer    *auth.Signer
	verifier  contract.TokenVerifier
	secure    bool
	log       *slog.Logger
}

func NewHandler(directory *Directory, signer *auth.Signer, verifier contract.TokenVerifier,
	secure bool, log *slog.Logger) *Handler {
	return &Handler{
		directory: directory,
		signer:    signer,
		verifier:  verifier,
		secure:    secure,
		log:       log,
	}
}

// Register attaches the auth routes to a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/auth/session", h.Session)
}

// Login validates the credentials, mints a token and sets it as an
// HttpOnly cookie so the browser sends it on the websocket handshake.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input"})
		return
	}
	if err := auth.ValidateLogin(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid input"})
		return
	}

	identity, err := h.directory.Authenticate(req.Role, req.Identifier, req.Password)
	if err != nil {
		h.log.Info("login refused", "role", req.Role, "identifier", req.Identifier)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}

	token, err := h.signer.Generate(identity)
	if err != nil {
		h.log.Error("token generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(cookieMaxAge.Seconds()),
	})
	h.log.Info("login succeeded", "role", identity.Role, "user_id", identity.SubjectID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Session echoes the identity behind the token cookie, or a null user
// when the cookie is absent or stale.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	identity, err := h.verifier.Verify(token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{
		"id":   identity.SubjectID,
		"role": identity.Role,
		"name": identity.Name,
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
