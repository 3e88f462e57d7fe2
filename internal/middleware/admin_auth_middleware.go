package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	ContextKeyUserID = contextKey("userID")

	AccessTokenCookieName = "__Host-accessToken"
)

// AdminAuthMiddleware requires a valid token carrying the "admin" role.
// The dashboard sends it as a cookie; scripts may use a Bearer header.
// A nil key disables the check (dev only).
func AdminAuthMiddleware(pub *rsa.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if pub == nil {
			utils.Logger.Warn("Admin auth disabled: no RSA public key configured")
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractAccessToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			claims, vErr := ParseDashboardToken(tokenStr, pub)
			if vErr != nil {
				code := utils.ErrCodeUnauthorized
				msg := "Invalid token"
				if errors.Is(vErr, jwt.ErrTokenExpired) {
					code, msg = utils.ErrCodeTokenExpired, "Token expired"
				}
				utils.RespondErrorWithCode(w, http.StatusUnauthorized, code, msg, nil, vErr)
				return
			}
			if claims.Role != RoleAdmin {
				utils.RespondErrorWithCode(
					w, http.StatusForbidden, utils.ErrCodeUnauthorized, "Insufficient permissions", nil,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractAccessToken(r *http.Request) (string, error) {
	if c, err := r.Cookie(AccessTokenCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing access token")
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}
