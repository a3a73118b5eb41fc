package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Key string

// ClaimsKey is the request context key under which the authentication
// middleware stores the verified claims.
const ClaimsKey Key = "claims"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// Claims carries the identity extracted from a bearer token. Subject is the
// user id.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Keys holds the shared secrets used to sign and verify tokens.
type Keys struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewKeys(accessSecret, refreshSecret string) (*Keys, error) {
	if accessSecret == "" {
		return nil, fmt.Errorf("access token secret is not set")
	}
	if refreshSecret == "" {
		return nil, fmt.Errorf("refresh token secret is not set")
	}
	return &Keys{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

func (k *Keys) GenerateAccessToken(userID string, roles []string) (string, error) {
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "shop-service",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.accessSecret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

func (k *Keys) GenerateRefreshToken(userID string, roles []string) (string, error) {
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "shop-service",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(refreshTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("signing refresh token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies the signature and expiry of an access token
// and returns its claims.
func (k *Keys) ValidateAccessToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.accessSecret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing access token: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("invalid access token")
	}
	return claims, nil
}

func (k *Keys) ValidateRefreshToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.refreshSecret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing refresh token: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("invalid refresh token")
	}
	return claims, nil
}

// HasRole reports whether the claims carry the given role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
