package auth

import (
	"context"
	"errors"
)

type ctxKey int

const claimsKey ctxKey = 1

// SetClaims stores the verified claims of the caller.
func SetClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// GetClaims returns the claims stored by SetClaims.
func GetClaims(ctx context.Context) (Claims, error) {
	c, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claims not found in context")
	}

	return c, nil
}
