// Package auth verifies bearer tokens and yields the verified user id.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// contextKey is where the middleware stores the parsed token.
const contextKey = "user"

// Claims identifies the chat user a token was issued for. Tokens minted by
// other services may carry the id only in the registered subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// User returns the user id, preferring the explicit claim over the subject.
func (c *Claims) User() string {
	if id := strings.TrimSpace(c.UserID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Subject)
}

// JWTMiddleware verifies HS256 bearer tokens. Browsers cannot set headers on
// a WebSocket handshake, so the token is also read from ?token=.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    contextKey,
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		Skipper:       skipper,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
	})
}

// SkipPaths returns a skipper for public routes. An entry ending in "/*"
// matches the prefix itself and everything below it.
func SkipPaths(paths ...string) middleware.Skipper {
	exact := make(map[string]struct{}, len(paths))
	var prefixes []string
	for _, p := range paths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			prefixes = append(prefixes, prefix)
			continue
		}
		exact[p] = struct{}{}
	}
	return func(c echo.Context) bool {
		path := c.Request().URL.Path
		if _, ok := exact[path]; ok {
			return true
		}
		for _, prefix := range prefixes {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
		}
		return false
	}
}

// UserIDFromContext returns the user id of the verified token on c.
func UserIDFromContext(c echo.Context) (string, error) {
	token, _ := c.Get(contextKey).(*jwt.Token)
	if token == nil || !token.Valid {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	userID := claims.User()
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "user id missing")
	}
	return userID, nil
}

// GenerateToken signs a token for userID that expires after ttl.
func GenerateToken(userID, secret string, ttl time.Duration) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	switch {
	case userID == "":
		return "", time.Time{}, errors.New("user id is required")
	case strings.TrimSpace(secret) == "":
		return "", time.Time{}, errors.New("jwt secret is required")
	case ttl <= 0:
		return "", time.Time{}, errors.New("token ttl must be positive")
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
