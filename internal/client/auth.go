package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned before any request is sent with an expired token.
var ErrTokenExpired = errors.New("token expired: run 'assetflow auth token' to mint a new one")

// checkTokenExpiry inspects the exp claim of a JWT without verifying its
// signature; the server remains the authority. Opaque tokens pass through.
func checkTokenExpiry(token string, now time.Time) error {
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if now.After(exp.Time) {
		return fmt.Errorf("%w (expired at %s)", ErrTokenExpired, exp.Time.Format(time.RFC3339))
	}
	return nil
}

// MintDevToken signs an HS256 token for development servers.
func MintDevToken(subject, secret string, admin bool, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if admin {
		claims["admin"] = true
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
