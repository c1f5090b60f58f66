// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides session verification, admin key checks, and hashing utilities.

# Sessions

Voter identity comes from an external OAuth provider. Its callback issues a
signed HS256 session token whose subject is the provider's opaque user id:

	token, err := auth.IssueSession(userID, secret, 24*time.Hour)
	voterID, err := auth.ParseSession(token, secret)

ParseSession rejects tokens with a different issuer, algorithm, secret, or an
expired exp claim. All failures wrap ErrInvalidSession.

# Admin Keys

Admin endpoints compare the X-Admin-Key header with the configured key in
constant time:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving fraud detection:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256. Votes store only the
hash, which is the network origin key the fraud detector groups on.
*/
package auth
