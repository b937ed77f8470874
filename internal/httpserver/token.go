// internal/httpserver/token.go
//
// Signed game-session tokens. The session_id handed to clients is an
// HS256 JWT wrapping the session row id and its scene id; clients treat
// it as opaque and pass it back unchanged on /validate,
// /game-session/end and POST /high-scores.

package httpserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenTTL = 24 * time.Hour

var errInvalidToken = errors.New("invalid session token")

type sessionClaims struct {
	SessionID string `json:"sid"`
	SceneID   int    `json:"scene"`
	jwt.RegisteredClaims
}

// signSessionToken mints the opaque session_id for a new game session.
func signSessionToken(secret, sessionID string, sceneID int, issued time.Time) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID,
		SceneID:   sceneID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(sessionTokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return ss, nil
}

// parseSessionToken verifies a presented session_id and extracts its
// claims. Any verification failure maps to errInvalidToken.
func parseSessionToken(secret, token string) (sessionClaims, error) {
	var claims sessionClaims
	t, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !t.Valid || claims.SessionID == "" {
		return sessionClaims{}, errInvalidToken
	}
	return claims, nil
}
