// Package token issues and validates the opaque bearer tokens handed to
// clients. Internally they are HS256-signed JWTs carrying the user ID;
// clients never inspect them.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token fails signature or claim
// validation, including expiry.
var ErrInvalidToken = errors.New("invalid token")

// Claims includes the standard registered claims plus the user ID the
// token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Generate mints a signed token for the given user ID, valid for ttl.
func Generate(userID string, secret []byte, ttl time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID: userID,
	})

	signed, err := t.SignedString(secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// UserID verifies the token and returns the user ID it was issued for.
// Any validation failure is reported as ErrInvalidToken.
func UserID(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	if !t.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
