// Package server assembles the HTTP routes from handler dependencies.
package server

import (
	"net/http"

	healthhandler "openflow/backend/internal/health/handler"
	identityhandler "openflow/backend/internal/identity/handler"
	"openflow/backend/internal/server/middleware"
)

// Deps holds the handlers and middleware dependencies for the router.
type Deps struct {
	// Identity serves login, token issuance, and JWKS. Required.
	Identity *identityhandler.Handler
	// Health serves readiness. Required.
	Health *healthhandler.Server
	// Sessions resolves session cookies for protected routes. If nil,
	// protected routes reject every request with 401.
	Sessions middleware.SessionResolver
}

// Router builds the HTTP handler with all routes registered.
//
// Route → handler mapping:
//   - POST /auth/coinbase-login     → internal/identity/handler (public)
//   - GET  /auth/cdp-jwt            → internal/identity/handler (session required)
//   - GET  /.well-known/jwks.json   → internal/identity/handler (public)
//   - GET  /healthz                 → internal/health/handler (public)
func Router(deps Deps) http.Handler {
	requireSession := middleware.RequireSession(deps.Sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/coinbase-login", deps.Identity.CoinbaseLogin)
	mux.Handle("GET /auth/cdp-jwt", requireSession(http.HandlerFunc(deps.Identity.CDPJWT)))
	mux.HandleFunc("GET /.well-known/jwks.json", deps.Identity.JWKS)
	mux.HandleFunc("GET /healthz", deps.Health.Healthz)

	return middleware.Trace(mux)
}
