// Package auth derives a stable user identity from a WebSocket upgrade
// request and issues/validates the optional signed session tokens.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var usernameRe = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// Identify derives the user id for a connection:
//   - a valid username query parameter maps to user-<username>;
//   - a bearer token maps to user-<sub> when it verifies as a session
//     token, else to user-<first 8 hex of sha256(token)>;
//   - anything else gets a fresh anonymous identity.
func Identify(r *http.Request) string {
	if u := r.URL.Query().Get("username"); usernameRe.MatchString(u) {
		return "user-" + u
	}

	if token := bearerToken(r); token != "" {
		if claims, err := ValidateToken(token); err == nil && usernameRe.MatchString(claims.Subject) {
			return "user-" + claims.Subject
		}
		sum := sha256.Sum256([]byte(token))
		return "user-" + hex.EncodeToString(sum[:])[:8]
	}

	return "anon-" + randomHex(8)
}

// ValidUsername reports whether s satisfies the username grammar.
func ValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func randomHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func secret() []byte {
	s := os.Getenv("JWT_SECRET")
	if s == "" {
		s = "local-dev-secret-change-in-production"
	}
	return []byte(s)
}

// GenerateToken issues an HS256 session token for a username.
func GenerateToken(username string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "crdt-server",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// ValidateToken verifies a session token and returns its claims.
func ValidateToken(tokenString string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret(), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
