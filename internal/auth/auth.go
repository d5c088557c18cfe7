// Package auth issues and verifies the rsa signed tokens of the service.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrForbidden    = errors.New("attempted action is not allowed")
	ErrKIDMissing   = errors.New("kid missing from token header")
	ErrKIDMalformed = errors.New("kid in token header is malformed")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the token claims, Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// KeyLookup finds signing keys by id.
type KeyLookup interface {
	PrivateKey(kid string) (*rsa.PrivateKey, error)
	PublicKey(kid string) (*rsa.PublicKey, error)
}

// Auth signs and verifies tokens of a single issuer.
type Auth struct {
	keys   KeyLookup
	method jwt.SigningMethod
	parser *jwt.Parser
	issuer string
}

// New constructs an Auth, tokens are RS256 signed.
func New(keys KeyLookup, issuer string) *Auth {
	return &Auth{
		keys:   keys,
		method: jwt.SigningMethodRS256,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name})),
		issuer: issuer,
	}
}

// Issuer returns the issuer tokens are generated for.
func (a *Auth) Issuer() string {
	return a.issuer
}

// GenerateToken signs the claims with the key kid.
func (a *Auth) GenerateToken(kid string, c Claims) (string, error) {
	t := jwt.NewWithClaims(a.method, c)
	t.Header["kid"] = kid

	privateKey, err := a.keys.PrivateKey(kid)
	if err != nil {
		return "", fmt.Errorf("privateKey: %w", err)
	}

	token, err := t.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("signedString: %w", err)
	}

	return token, nil
}

// VerifyToken checks a "Bearer <token>" header value and returns its claims.
func (a *Auth) VerifyToken(bearer string) (Claims, error) {
	token, ok := strings.CutPrefix(bearer, "Bearer ")
	if !ok {
		return Claims{}, errors.New("expected authorization header format: Bearer <token>")
	}

	var claims Claims
	verified, err := a.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		k, ok := t.Header["kid"]
		if !ok {
			return nil, ErrKIDMissing
		}

		kid, ok := k.(string)
		if !ok {
			return nil, ErrKIDMalformed
		}

		pub, err := a.keys.PublicKey(kid)
		if err != nil {
			return nil, fmt.Errorf("fetching public key for kid[%s]: %w", kid, err)
		}

		return pub, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parseWithClaims: %w", err)
	}

	if !verified.Valid {
		return Claims{}, ErrInvalidToken
	}

	if !claims.VerifyIssuer(a.issuer, true) {
		return Claims{}, fmt.Errorf("issuer %q: %w", claims.Issuer, ErrInvalidToken)
	}

	return claims, nil
}

// Authorized succeeds when the claims hold at least one of the roles.
func (a *Auth) Authorized(c Claims, roles map[string]struct{}) error {
	for _, role := range c.Roles {
		if _, ok := roles[role]; ok {
			return nil
		}
	}

	return ErrForbidden
}
