// Package handler provides the endpoints of the users domain.
package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/hamidoujand/roster/internal/auth"
	"github.com/hamidoujand/roster/internal/domains/user/bus"
	"github.com/hamidoujand/roster/internal/errs"
	"github.com/hamidoujand/roster/internal/page"
	"github.com/hamidoujand/roster/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type handler struct {
	userBus     *bus.Bus
	auth        *auth.Auth
	kid         string
	tokenMaxAge time.Duration
	tracer      trace.Tracer
	log         logger.Logger
}

var admins = map[string]struct{}{bus.RoleAdmin.String(): {}}

// FindAll returns a page of every user matching the query filters.
func (h *handler) FindAll(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.findAll")
	defer span.End()

	pg, err := page.Parse(c.Query("page"), c.Query("rows"))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse page: %s", err))
		return
	}

	var qf queryFilter
	if err := c.ShouldBindQuery(&qf); err != nil {
		c.Error(bindErr(err))
		return
	}

	filter, err := qf.toBusQueryFilter()
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "%s", err))
		return
	}

	orderBy, err := bus.ParseOrderBy(c.Query("order_by"))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse order_by: %s", err))
		return
	}

	usrs, err := h.userBus.Query(ctx, filter, orderBy, pg)
	if errors.Is(err, bus.ErrInvalidFilter) {
		c.Error(errs.New(http.StatusBadRequest, "%s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "query: %s", err))
		return
	}

	total, err := h.userBus.Count(ctx, filter)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "count: %s", err))
		return
	}

	span.SetAttributes(attribute.Int("users.total", total))

	c.JSON(http.StatusOK, QueryResult{
		Users:       toAppUsers(usrs),
		Total:       total,
		Page:        pg.Number,
		RowsPerPage: pg.Rows,
	})
}

// QueryByID returns the user with the id in the path, callers can read
// themselves and admins can read anyone.
func (h *handler) QueryByID(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.queryByID")
	defer span.End()

	p := c.Param("id")
	userID, err := uuid.Parse(p)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "invalid id: %s", p))
		return
	}

	claims, err := auth.GetClaims(ctx)
	if err != nil {
		c.Error(errs.New(http.StatusUnauthorized, "%s", err))
		return
	}

	if claims.Subject != userID.String() {
		if err := h.auth.Authorized(claims, admins); err != nil {
			c.Error(errs.New(http.StatusForbidden, "%s", err))
			return
		}
	}

	usr, err := h.userBus.QueryByID(ctx, userID)
	if errors.Is(err, bus.ErrUserNotFound) {
		c.Error(errs.New(http.StatusNotFound, "user %s not found", userID))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "queryByID: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppUser(usr))
}

// Create adds a new user.
func (h *handler) Create(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.create")
	defer span.End()

	var nu newUser
	if err := c.ShouldBindJSON(&nu); err != nil {
		c.Error(bindErr(err))
		return
	}

	busUser, err := toBusNewUser(nu)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "%s", err))
		return
	}

	usr, err := h.userBus.Create(ctx, busUser)
	if errors.Is(err, bus.ErrDuplicatedEmail) {
		c.Error(errs.New(http.StatusBadRequest, "%s", bus.ErrDuplicatedEmail))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "create: %s", err))
		return
	}

	h.log.Info(ctx, "user created", "userID", usr.ID)

	c.JSON(http.StatusCreated, toAppUser(usr))
}

// Login exchanges an email and a password for a signed token.
func (h *handler) Login(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.login")
	defer span.End()

	var cred credentials
	if err := c.ShouldBindJSON(&cred); err != nil {
		c.Error(bindErr(err))
		return
	}

	email, err := mail.ParseAddress(cred.Email)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parseAddress: %s", err))
		return
	}

	usr, err := h.userBus.Authenticate(ctx, *email, cred.Password)
	if errors.Is(err, bus.ErrAuthFailed) {
		c.Error(errs.New(http.StatusUnauthorized, "invalid email or password"))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "authenticate: %s", err))
		return
	}

	now := time.Now()
	claims := auth.Claims{
		Roles: bus.RolesToString(usr.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.auth.Issuer(),
			Subject:   usr.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenMaxAge)),
		},
	}

	token, err := h.auth.GenerateToken(h.kid, claims)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "generateToken: %s", err))
		return
	}

	c.JSON(http.StatusOK, Token{Token: token})
}

// ==============================================================================

// bindErr keeps validation errors for the error middleware, anything else is a
// malformed request.
func bindErr(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return err
	}

	return errs.New(http.StatusBadRequest, "malformed request: %s", err)
}
