package middleware

import (
	"crypto/rsa"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer identifies the auth service that issues dashboard tokens.
const TokenIssuer = "ProCan"

const RoleAdmin = "admin"

// DashboardClaims are the claims carried by dashboard access tokens.
type DashboardClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var errMissingSubject = errors.New("missing subject claim")

// ParseDashboardToken verifies an RS256 token from TokenIssuer. exp is
// mandatory.
func ParseDashboardToken(raw string, pub *rsa.PublicKey) (*DashboardClaims, error) {
	claims := &DashboardClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return pub, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errMissingSubject
	}
	return claims, nil
}
