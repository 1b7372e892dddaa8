// Package handler exposes the identity HTTP surface: wallet login, identity
// assertion issuance, and the published verification key set.
package handler

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"openflow/backend/internal/identity/service"
	"openflow/backend/internal/security"
	"openflow/backend/internal/server/middleware"
	"openflow/backend/internal/telemetry"
)

// Handler serves the identity endpoints. publicKey may be nil when no key
// material was found at startup; the JWKS endpoint then responds 503.
type Handler struct {
	auth      *service.AuthService
	emitter   telemetry.EventEmitter
	publicKey *rsa.PublicKey
	keyID     string
	secure    bool
}

// New returns a Handler wired to the auth service.
// secure controls the Secure flag on the session cookie.
func New(auth *service.AuthService, emitter telemetry.EventEmitter, publicKey *rsa.PublicKey, keyID string, secure bool) *Handler {
	return &Handler{
		auth:      auth,
		emitter:   emitter,
		publicKey: publicKey,
		keyID:     keyID,
		secure:    secure,
	}
}

type coinbaseLoginRequest struct {
	Email          string `json:"email"`
	CoinbaseUserID string `json:"coinbase_user_id"`
	WalletAddress  string `json:"wallet_address"`
}

type loginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type coinbaseLoginResponse struct {
	Success bool      `json:"success"`
	User    loginUser `json:"user"`
}

// CoinbaseLogin handles POST /auth/coinbase-login. It reconciles the wallet
// claim to a local account, establishes a login session, and sets the
// session cookie. Disabled accounts and malformed claims get 400.
func (h *Handler) CoinbaseLogin(w http.ResponseWriter, r *http.Request) {
	var req coinbaseLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim := service.Claim{
		Email:          req.Email,
		CoinbaseUserID: req.CoinbaseUserID,
		WalletAddress:  req.WalletAddress,
	}
	user, established, err := h.auth.Reconcile(r.Context(), claim, middleware.ClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClaim):
			writeError(w, http.StatusBadRequest, "invalid login claim")
		case errors.Is(err, service.ErrAccountDisabled):
			writeError(w, http.StatusBadRequest, "account is disabled")
		default:
			log.Printf("identity: coinbase login failed: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    established.Token,
		Path:     "/",
		Expires:  established.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	telemetry.EmitAsync(h.emitter, &telemetry.AuthEvent{
		EventType: telemetry.EventCoinbaseLogin,
		UserID:    user.ID,
		Email:     user.Email,
		Source:    "http_handler",
		CreatedAt: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, coinbaseLoginResponse{
		Success: true,
		User:    loginUser{ID: user.ID, Email: user.Email},
	})
}

type cdpJWTResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// CDPJWT handles GET /auth/cdp-jwt. Requires a live session (enforced by
// middleware); issues a signed identity assertion for the session's user.
func (h *Handler) CDPJWT(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	token, user, err := h.auth.IssueToken(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthenticated):
			writeError(w, http.StatusUnauthorized, "not authenticated")
		default:
			log.Printf("identity: token issuance failed: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	telemetry.EmitAsync(h.emitter, &telemetry.AuthEvent{
		EventType: telemetry.EventTokenIssued,
		UserID:    user.ID,
		Email:     user.Email,
		Source:    "http_handler",
		CreatedAt: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, cdpJWTResponse{
		Token:  token,
		UserID: user.ID,
		Email:  user.Email,
	})
}

// JWKS handles GET /.well-known/jwks.json. Responses are cacheable for a
// short window; verifiers poll this to pick up the signing key.
func (h *Handler) JWKS(w http.ResponseWriter, r *http.Request) {
	keySet, err := security.KeySet(h.publicKey, h.keyID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "key material unavailable")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, keySet)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("identity: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
