// Package token implements HMAC-signed bearer token validation for the API.
package token

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	authmw "caseflow/pkg/platform/middleware/auth"
)

// Validator validates HS256-signed JWTs issued by the case-management frontend.
// The subject claim carries the principal ID as a decimal string.
type Validator struct {
	signingKey []byte
}

// NewValidator creates a Validator for the given shared signing key.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

var _ authmw.TokenValidator = (*Validator)(nil)

// ValidateToken parses and verifies tokenString, returning the claims the
// middleware cares about.
func (v *Validator) ValidateToken(tokenString string) (*authmw.Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	principal, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("subject is not a principal ID: %w", err)
	}

	jti, _ := claims["jti"].(string)

	return &authmw.Claims{PrincipalID: principal, JTI: jti}, nil
}

// Issue signs a token for the given principal. Used by tests and local tooling;
// production tokens come from the identity provider.
func (v *Validator) Issue(principal int64) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(principal, 10),
	})
	return t.SignedString(v.signingKey)
}
