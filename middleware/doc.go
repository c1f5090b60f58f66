// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# Sessions and Admin Access

RequireSession verifies the voter session token, taken from an
"Authorization: Bearer" header or the "session" cookie, and stores the
voter id on the request context:

	mux.HandleFunc("POST /votes", middleware.RequireSession(secret, h.CastVote))

	voterID, ok := middleware.VoterID(r.Context())

RequireAdmin checks the X-Admin-Key header against the configured key.
An unset admin key rejects every request.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(cfg.AllowedOrigins)(mux),
	}

Built on github.com/rs/cors with credentials allowed. An empty origin
list allows any origin.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies (limited to 1 MiB):

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP. X-Forwarded-For and X-Real-IP are only read
when reverse proxies are configured as trusted:

	ip := middleware.GetClientIP(r, cfg.TrustedProxies)

Hashed with the IP salt before it is stored on a vote for fraud detection.
*/
package middleware
