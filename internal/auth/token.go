// Package auth emite y valida tokens firmados, hashea contraseñas y lleva la
// identidad autenticada en el context del request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront/internal/apperr"
)

const issuer = "storefront"

// ErrSigningKeyUnavailable: sin secreto no se emite ningún token
var ErrSigningKeyUnavailable = errors.New("token signing key unavailable")

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue firma un token que solo contiene el id de la cuenta; el rol se
// vuelve a leer de la base en cada request.
func (t *Tokens) Issue(accountID string) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, ErrSigningKeyUnavailable
	}
	if accountID == "" {
		return "", time.Time{}, errors.New("account id is required")
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   accountID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate devuelve el id de cuenta o un error Unauthenticated
func (t *Tokens) Validate(token string) (string, error) {
	if token == "" {
		return "", apperr.Unauthenticated("missing token")
	}
	if len(t.secret) == 0 {
		return "", apperr.Unexpected("validate token", ErrSigningKeyUnavailable)
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.Unauthenticated("token expired")
		}
		return "", apperr.Unauthenticated("invalid token")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return "", apperr.Unauthenticated("invalid token")
	}
	return claims.Subject, nil
}
