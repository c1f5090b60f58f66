// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// SessionIssuer is the issuer claim expected on session tokens
const SessionIssuer = "star-vote"

// IssueSession signs a session token for an identity resolved by the
// external OAuth provider. The voter ID is opaque and stored as the subject.
func IssueSession(voterID, secret string, ttl time.Duration) (string, error) {
	if voterID == "" {
		return "", fmt.Errorf("%w: empty voter id", ErrInvalidSession)
	}
	if secret == "" {
		return "", fmt.Errorf("%w: empty secret", ErrInvalidSession)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    SessionIssuer,
		Subject:   voterID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// ParseSession verifies a session token and returns the voter ID it carries
func ParseSession(tokenString, secret string) (string, error) {
	if tokenString == "" || secret == "" {
		return "", ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if !claims.VerifyIssuer(SessionIssuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrInvalidSession, claims.Issuer)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}

	return claims.Subject, nil
}
