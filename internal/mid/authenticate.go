package mid

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hamidoujand/roster/internal/auth"
	"github.com/hamidoujand/roster/internal/domains/user/bus"
	"github.com/hamidoujand/roster/internal/errs"
)

// UserQuerier finds the user a token was issued for.
type UserQuerier interface {
	QueryByID(ctx context.Context, id uuid.UUID) (bus.User, error)
}

// Authenticate verifies the bearer token and makes sure its user still exists
// and is enabled. Verified claims are stored in the request context.
func Authenticate(a *auth.Auth, users UserQuerier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.VerifyToken(c.GetHeader("Authorization"))
		if err != nil {
			c.Error(errs.New(http.StatusUnauthorized, "verify token: %s", err))
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.Error(errs.New(http.StatusUnauthorized, "invalid subject: %q", claims.Subject))
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		usr, err := users.QueryByID(ctx, userID)
		if errors.Is(err, bus.ErrUserNotFound) {
			c.Error(errs.New(http.StatusUnauthorized, "user %s no longer exists", userID))
			c.Abort()
			return
		}

		if err != nil {
			c.Error(errs.New(http.StatusInternalServerError, "queryByID: %s", err))
			c.Abort()
			return
		}

		if !usr.Enabled {
			c.Error(errs.New(http.StatusUnauthorized, "user %s is disabled", userID))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(auth.SetClaims(c.Request.Context(), claims))
		c.Next()
	}
}
